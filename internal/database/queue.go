package database

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"relocation-advisor/internal/models"
)

// ClaimDueJob atomically claims the oldest runnable enrichment job. Returns
// nil when nothing is due.
func (gdb *GormDB) ClaimDueJob(ctx context.Context) (*models.EnrichmentJob, error) {
	var job models.EnrichmentJob

	err := gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.
			Where("status IN ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
				[]string{models.JobStatusPending, models.JobStatusFailed}, now).
			Order("created_at ASC").
			First(&job).Error
		if err != nil {
			return err
		}
		return tx.Model(&job).Updates(map[string]any{
			"status":        models.JobStatusProcessing,
			"next_retry_at": nil,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// AdvanceJobPhase moves a processing job from phase 2 to phase 3 and requeues
// it, so a crash between phases resumes at the right place.
func (gdb *GormDB) AdvanceJobPhase(ctx context.Context, job *models.EnrichmentJob) error {
	return gdb.db.WithContext(ctx).Model(job).Updates(map[string]any{
		"status":   models.JobStatusPending,
		"phase":    3,
		"attempts": 0,
	}).Error
}

// CompleteJob marks a job done.
func (gdb *GormDB) CompleteJob(ctx context.Context, job *models.EnrichmentJob) error {
	now := time.Now()
	return gdb.db.WithContext(ctx).Model(job).Updates(map[string]any{
		"status":       models.JobStatusDone,
		"completed_at": &now,
	}).Error
}

// FailJob records a failed attempt, scheduling a retry or marking the job
// permanently failed once attempts are exhausted.
func (gdb *GormDB) FailJob(ctx context.Context, job *models.EnrichmentJob, cause error, permanent bool) error {
	attempts := job.Attempts + 1
	updates := map[string]any{
		"attempts":   attempts,
		"last_error": cause.Error(),
	}
	if permanent || attempts >= models.MaxJobAttempts {
		updates["status"] = models.JobStatusPermanentFail
	} else {
		retryAt := time.Now().Add(models.NextJobRetryDelay(attempts - 1))
		updates["status"] = models.JobStatusFailed
		updates["next_retry_at"] = &retryAt
	}
	return gdb.db.WithContext(ctx).Model(job).Updates(updates).Error
}

// RequeueStuckJobs returns jobs stuck in processing longer than maxAge to the
// queue. Happens after a crash mid-job.
func (gdb *GormDB) RequeueStuckJobs(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	result := gdb.db.WithContext(ctx).
		Model(&models.EnrichmentJob{}).
		Where("status = ? AND updated_at < ?", models.JobStatusProcessing, cutoff).
		Update("status", models.JobStatusPending)
	return result.RowsAffected, result.Error
}

// PurgeOldJobs deletes terminal jobs older than age.
func (gdb *GormDB) PurgeOldJobs(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	result := gdb.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]string{models.JobStatusDone, models.JobStatusPermanentFail}, cutoff).
		Delete(&models.EnrichmentJob{})
	return result.RowsAffected, result.Error
}

// QueueStats counts jobs by status for the admin endpoint.
func (gdb *GormDB) QueueStats(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := gdb.db.WithContext(ctx).
		Model(&models.EnrichmentJob{}).
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

// ===== Enrichment data access =====

// AreasForRecommendation returns the area rows of one recommendation in
// presentation order.
func (gdb *GormDB) AreasForRecommendation(ctx context.Context, recommendationID int64) ([]models.RecommendedArea, error) {
	var areas []models.RecommendedArea
	err := gdb.db.WithContext(ctx).
		Where("recommendation_id = ?", recommendationID).
		Order("position ASC").
		Find(&areas).Error
	return areas, err
}

// PlacesForArea returns one category's places in position order.
func (gdb *GormDB) PlacesForArea(ctx context.Context, areaID int64, category string) ([]models.AreaPlace, error) {
	var places []models.AreaPlace
	err := gdb.db.WithContext(ctx).
		Where("area_id = ? AND category = ?", areaID, category).
		Order("position ASC").
		Find(&places).Error
	return places, err
}

// PropertiesForArea returns an area's property listings in position order.
func (gdb *GormDB) PropertiesForArea(ctx context.Context, areaID int64) ([]models.ListingProperty, error) {
	var props []models.ListingProperty
	err := gdb.db.WithContext(ctx).
		Where("area_id = ?", areaID).
		Order("position ASC").
		Find(&props).Error
	return props, err
}

// UpdatePlaceImages persists a freshly resolved image set for one place.
func (gdb *GormDB) UpdatePlaceImages(ctx context.Context, placeID int64, imageURL string, gallery []string) error {
	return gdb.db.WithContext(ctx).
		Model(&models.AreaPlace{}).
		Where("id = ?", placeID).
		Updates(map[string]any{
			"image_url":     imageURL,
			"image_gallery": models.StringList(gallery),
		}).Error
}

// UpdatePropertyImages persists a freshly resolved gallery for one listing.
func (gdb *GormDB) UpdatePropertyImages(ctx context.Context, propertyID int64, imageURLs []string) error {
	return gdb.db.WithContext(ctx).
		Model(&models.ListingProperty{}).
		Where("id = ?", propertyID).
		Update("image_urls", models.StringList(imageURLs)).Error
}
