package models

import (
	"time"
)

// EnrichmentJob queues background gallery completion for one saved
// recommendation. The worker runs phase 2 (visible galleries) and then
// phase 3 (everything else) before marking the job done.
type EnrichmentJob struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecommendationID int64      `gorm:"not null;index:idx_enrich_reco" json:"recommendation_id"`
	RunID            string     `gorm:"type:varchar(36);not null" json:"run_id"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_enrich_status" json:"status"`
	Phase            int        `gorm:"not null;default:2" json:"phase"` // next phase to run: 2 or 3
	Attempts         int        `gorm:"default:0" json:"attempts"`
	LastError        string     `gorm:"type:text" json:"last_error,omitempty"`
	NextRetryAt      *time.Time `gorm:"index:idx_enrich_retry" json:"next_retry_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func (EnrichmentJob) TableName() string {
	return "enrichment_jobs"
}

// Job status constants
const (
	JobStatusPending       = "pending"
	JobStatusProcessing    = "processing"
	JobStatusDone          = "done"
	JobStatusFailed        = "failed"
	JobStatusPermanentFail = "permanent_fail" // recommendation deleted or other non-retryable failures
)

// MaxJobAttempts before marking a job as permanently failed
const MaxJobAttempts = 5

// NextJobRetryDelay calculates backoff for job retries
func NextJobRetryDelay(attempts int) time.Duration {
	// 2min, 10min, 30min, 2h, 6h
	delays := []time.Duration{
		2 * time.Minute,
		10 * time.Minute,
		30 * time.Minute,
		2 * time.Hour,
		6 * time.Hour,
	}

	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
