package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"relocation-advisor/internal/models"
)

// Service persists the profile a journey runs against and records how it
// drifted from the user's previous run.
type Service struct {
	db *gorm.DB
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SnapshotForJourney upserts the merged profile under the journey id. Called
// on entry to RUNNING, before any external call, so a crash mid-pipeline
// leaves an inspectable trace.
func (s *Service) SnapshotForJourney(ctx context.Context, user *models.User, profile *models.UserProfile, journey *models.Journey) error {
	snap := buildSnapshot(user, profile, journey)

	var existing models.UserProfileSnapshot
	result := s.db.WithContext(ctx).Where("journey_id = ?", journey.ID).First(&existing)
	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		if err := s.db.WithContext(ctx).Create(snap).Error; err != nil {
			return err
		}
	case result.Error != nil:
		return result.Error
	default:
		snap.ID = existing.ID
		snap.CreatedAt = existing.CreatedAt
		if err := s.db.WithContext(ctx).Save(snap).Error; err != nil {
			return err
		}
	}

	if err := s.recordChanges(ctx, snap); err != nil {
		// Change records are diagnostics; never fail the run over them.
		log.Printf("[snapshot] ⚠️ Change detection failed for journey %d: %v", journey.ID, err)
	}
	return nil
}

func buildSnapshot(user *models.User, profile *models.UserProfile, journey *models.Journey) *models.UserProfileSnapshot {
	return &models.UserProfileSnapshot{
		UserID:    user.ID,
		JourneyID: journey.ID,

		Name:        profile.Name,
		Email:       profile.Email,
		Phone:       profile.Phone,
		CountryCode: profile.CountryCode,
		State:       profile.State,
		City:        models.StringList(profile.City),

		Environment:    profile.Environment,
		Education1:     models.StringList(profile.Education1),
		Education2:     models.StringList(profile.Education2),
		Family:         models.StringList(profile.Family),
		Employment1:    models.StringList(profile.Employment1),
		Employment2:    models.StringList(profile.Employment2),
		SocialLife:     models.StringList(profile.SocialLife),
		Hobbies:        models.StringList(profile.Hobbies),
		Transportation: models.StringList(profile.Transportation),
		Pets:           models.StringList(profile.Pets),
		GreenSpace:     models.StringList(profile.GreenSpace),
		Shopping:       models.StringList(profile.Shopping),
		Restaurants:    models.StringList(profile.Restaurants),

		Occupancy:        profile.Occupancy,
		Property:         profile.Property,
		Timeframe:        profile.Timeframe,
		PriceRange:       profile.PriceRange,
		DownPayment:      profile.DownPayment,
		EmploymentStatus: profile.EmploymentStatus,
		GrossAnnual:      profile.GrossAnnual,
		Credit:           profile.Credit,
	}
}

// recordChanges diffs the new snapshot against the user's previous journey
// snapshot and writes one ProfileChange row per changed field.
func (s *Service) recordChanges(ctx context.Context, snap *models.UserProfileSnapshot) error {
	var previous models.UserProfileSnapshot
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND journey_id < ?", snap.UserID, snap.JourneyID).
		Order("journey_id DESC").
		First(&previous)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil
	}
	if result.Error != nil {
		return result.Error
	}

	changes := diffSnapshots(&previous, snap)
	if len(changes) == 0 {
		return nil
	}
	// Re-running the same journey replaces its change rows.
	if err := s.db.WithContext(ctx).Where("snapshot_id = ?", snap.ID).Delete(&models.ProfileChange{}).Error; err != nil {
		return err
	}
	log.Printf("[snapshot] Journey %d: %d profile fields changed since journey %d", snap.JourneyID, len(changes), previous.JourneyID)
	return s.db.WithContext(ctx).Create(&changes).Error
}

func diffSnapshots(prev, curr *models.UserProfileSnapshot) []models.ProfileChange {
	now := time.Now()
	var changes []models.ProfileChange
	record := func(field, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, models.ProfileChange{
			SnapshotID: curr.ID,
			UserID:     curr.UserID,
			Field:      field,
			OldValue:   oldValue,
			NewValue:   newValue,
			DetectedAt: now,
		})
	}

	record("state", prev.State, curr.State)
	record("city", joinList(prev.City), joinList(curr.City))
	record("environment", prev.Environment, curr.Environment)
	record("education1", joinList(prev.Education1), joinList(curr.Education1))
	record("education2", joinList(prev.Education2), joinList(curr.Education2))
	record("family", joinList(prev.Family), joinList(curr.Family))
	record("employment1", joinList(prev.Employment1), joinList(curr.Employment1))
	record("employment2", joinList(prev.Employment2), joinList(curr.Employment2))
	record("socialLife", joinList(prev.SocialLife), joinList(curr.SocialLife))
	record("hobbies", joinList(prev.Hobbies), joinList(curr.Hobbies))
	record("transportation", joinList(prev.Transportation), joinList(curr.Transportation))
	record("pets", joinList(prev.Pets), joinList(curr.Pets))
	record("greenSpace", joinList(prev.GreenSpace), joinList(curr.GreenSpace))
	record("shopping", joinList(prev.Shopping), joinList(curr.Shopping))
	record("restaurants", joinList(prev.Restaurants), joinList(curr.Restaurants))
	record("occupancy", prev.Occupancy, curr.Occupancy)
	record("property", prev.Property, curr.Property)
	record("timeframe", prev.Timeframe, curr.Timeframe)
	record("priceRange", prev.PriceRange, curr.PriceRange)
	record("downPayment", prev.DownPayment, curr.DownPayment)
	record("employmentStatus", prev.EmploymentStatus, curr.EmploymentStatus)
	record("grossAnnual", intValue(prev.GrossAnnual), intValue(curr.GrossAnnual))
	record("credit", prev.Credit, curr.Credit)

	return changes
}

func joinList(l models.StringList) string {
	return strings.Join(l, ", ")
}

func intValue(p *int) string {
	if p == nil {
		return ""
	}
	data, _ := json.Marshal(*p)
	return string(data)
}
