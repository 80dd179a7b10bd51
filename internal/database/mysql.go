package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"relocation-advisor/internal/models"
	"relocation-advisor/internal/recommend"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host string, port int, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.User{},
		&models.Journey{},
		&models.UserProfileSnapshot{},
		&models.ProfileChange{},
		&models.Recommendation{},
		&models.PropertySuggestion{},
		&models.RecommendedArea{},
		&models.AreaDemographics{},
		&models.AreaPlace{},
		&models.AreaCategorySummary{},
		&models.ListingProperty{},
		&models.PropertiesSummary{},
		&models.EnrichmentJob{},
		&models.MaintenanceLog{},
	)
}

// ===== Users =====

func (gdb *GormDB) FindUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := gdb.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (gdb *GormDB) FindOrCreateUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := gdb.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{Email: email}
		if err := gdb.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LoadBaseProfile rebuilds the user's standing profile from their most recent
// journey snapshot. A user with no prior journey starts from an empty
// profile.
func (gdb *GormDB) LoadBaseProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	var snap models.UserProfileSnapshot
	err := gdb.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("journey_id DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		Name:        snap.Name,
		Email:       snap.Email,
		Phone:       snap.Phone,
		CountryCode: snap.CountryCode,
		State:       snap.State,
		City:        snap.City,

		Environment:    snap.Environment,
		Education1:     snap.Education1,
		Education2:     snap.Education2,
		Family:         snap.Family,
		Employment1:    snap.Employment1,
		Employment2:    snap.Employment2,
		SocialLife:     snap.SocialLife,
		Hobbies:        snap.Hobbies,
		Transportation: snap.Transportation,
		Pets:           snap.Pets,
		GreenSpace:     snap.GreenSpace,
		Shopping:       snap.Shopping,
		Restaurants:    snap.Restaurants,

		Occupancy:        snap.Occupancy,
		Property:         snap.Property,
		Timeframe:        snap.Timeframe,
		PriceRange:       snap.PriceRange,
		DownPayment:      snap.DownPayment,
		EmploymentStatus: snap.EmploymentStatus,
		GrossAnnual:      snap.GrossAnnual,
		Credit:           snap.Credit,
	}, nil
}

// ===== Journeys =====

func (gdb *GormDB) CreateJourney(ctx context.Context, journey *models.Journey) error {
	journey.Status = models.JourneyStatusPending
	return gdb.db.WithContext(ctx).Create(journey).Error
}

func (gdb *GormDB) FindJourney(ctx context.Context, id int64) (*models.Journey, error) {
	var journey models.Journey
	err := gdb.db.WithContext(ctx).First(&journey, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("journey %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

func (gdb *GormDB) ListJourneys(ctx context.Context, userID int64) ([]models.Journey, error) {
	var journeys []models.Journey
	err := gdb.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&journeys).Error
	return journeys, err
}

// MarkJourneyRunning flips the journey to RUNNING. The user's journey rows
// are locked for the duration of the transaction, so two concurrent run
// requests cannot both pass the single-RUNNING-per-user check.
func (gdb *GormDB) MarkJourneyRunning(ctx context.Context, journey *models.Journey) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Journey
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", journey.UserID).
			Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			if rows[i].Status == models.JourneyStatusRunning && rows[i].ID != journey.ID {
				return fmt.Errorf("%w: journey %d", recommend.ErrConflict, rows[i].ID)
			}
		}

		result := tx.Model(&models.Journey{}).
			Where("id = ? AND status IN ?", journey.ID,
				[]string{models.JourneyStatusPending, models.JourneyStatusCancelled}).
			Updates(map[string]any{
				"status":     models.JourneyStatusRunning,
				"last_error": "",
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: journey %d is no longer runnable", recommend.ErrJourneyState, journey.ID)
		}
		return nil
	})
}

func (gdb *GormDB) UpdateJourneyStatus(ctx context.Context, journeyID int64, status, lastError string) error {
	updates := map[string]any{
		"status":     status,
		"last_error": lastError,
	}
	if status == models.JourneyStatusCompleted {
		now := time.Now()
		updates["completed_at"] = &now
	}
	return gdb.db.WithContext(ctx).
		Model(&models.Journey{}).
		Where("id = ?", journeyID).
		Updates(updates).Error
}

// ===== Maintenance =====

// CancelStaleRunningJourneys flips journeys stuck in RUNNING longer than
// maxAge to CANCELLED. A journey only stays RUNNING that long after a crash.
func (gdb *GormDB) CancelStaleRunningJourneys(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := gdb.db.WithContext(ctx).
		Model(&models.Journey{}).
		Where("status = ? AND updated_at < ?", models.JourneyStatusRunning, cutoff).
		Updates(map[string]any{
			"status":     models.JourneyStatusCancelled,
			"last_error": "cancelled by maintenance: run exceeded maximum age",
		})
	return result.RowsAffected, result.Error
}

func (gdb *GormDB) RecordMaintenance(ctx context.Context, entry *models.MaintenanceLog) error {
	return gdb.db.WithContext(ctx).Create(entry).Error
}

func (gdb *GormDB) ListMaintenanceLogs(ctx context.Context, limit int) ([]models.MaintenanceLog, error) {
	var logs []models.MaintenanceLog
	err := gdb.db.WithContext(ctx).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}

// JourneyStats summarizes journey states for the admin endpoint.
func (gdb *GormDB) JourneyStats(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := gdb.db.WithContext(ctx).
		Model(&models.Journey{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Status] = r.N
	}
	return stats, nil
}

// ErrNotFound mirrors the service-level sentinel so handlers can map storage
// misses to 404 without importing the service package.
var ErrNotFound = errors.New("not found")
