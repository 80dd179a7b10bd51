package cleanup

import (
	"context"
	"log"
	"time"

	"relocation-advisor/internal/database"
	"relocation-advisor/internal/models"
)

// Service runs the daily maintenance pass: cancelling journeys stranded in
// RUNNING after a crash, requeueing stuck enrichment jobs and purging
// terminal ones.
type Service struct {
	db *database.GormDB
}

// NewService creates a new cleanup service
func NewService(db *database.GormDB) *Service {
	return &Service{db: db}
}

// Config holds thresholds for one maintenance run
type Config struct {
	StaleJourneyAge time.Duration // RUNNING longer than this is a crashed run
	StuckJobAge     time.Duration // processing longer than this is a crashed job
	JobRetention    time.Duration // terminal jobs older than this are purged
}

// DefaultConfig returns default thresholds
func DefaultConfig() Config {
	return Config{
		StaleJourneyAge: 2 * time.Hour,
		StuckJobAge:     1 * time.Hour,
		JobRetention:    30 * 24 * time.Hour,
	}
}

// Result summarizes one maintenance run
type Result struct {
	CancelledJourneys int64     `json:"cancelled_journeys"`
	RequeuedJobs      int64     `json:"requeued_jobs"`
	PurgedJobs        int64     `json:"purged_jobs"`
	ExecutedAt        time.Time `json:"executed_at"`
	DurationMillis    int64     `json:"duration_millis"`
	Errors            []string  `json:"errors,omitempty"`
}

// Run executes all maintenance steps. Individual step failures are collected
// rather than aborting the pass; every step writes a MaintenanceLog row.
func (s *Service) Run(ctx context.Context, cfg Config) *Result {
	start := time.Now()
	result := &Result{ExecutedAt: start}

	cancelled, err := s.db.CancelStaleRunningJourneys(ctx, cfg.StaleJourneyAge)
	if err != nil {
		result.Errors = append(result.Errors, "stale journeys: "+err.Error())
	} else {
		result.CancelledJourneys = cancelled
		s.record(ctx, "stale_journeys", int(cancelled), start)
	}
	if cancelled > 0 {
		log.Printf("[cleanup] ⚠️ Cancelled %d journeys stuck in RUNNING", cancelled)
	}

	requeued, err := s.db.RequeueStuckJobs(ctx, cfg.StuckJobAge)
	if err != nil {
		result.Errors = append(result.Errors, "stuck jobs: "+err.Error())
	} else {
		result.RequeuedJobs = requeued
		s.record(ctx, "stale_jobs", int(requeued), start)
	}
	if requeued > 0 {
		log.Printf("[cleanup] Requeued %d enrichment jobs stuck in processing", requeued)
	}

	purged, err := s.db.PurgeOldJobs(ctx, cfg.JobRetention)
	if err != nil {
		result.Errors = append(result.Errors, "job purge: "+err.Error())
	} else {
		result.PurgedJobs = purged
		s.record(ctx, "job_purge", int(purged), start)
	}

	result.DurationMillis = time.Since(start).Milliseconds()
	log.Printf("[cleanup] ✅ Maintenance done in %dms: %d journeys cancelled, %d jobs requeued, %d purged",
		result.DurationMillis, result.CancelledJourneys, result.RequeuedJobs, result.PurgedJobs)
	return result
}

// RecordCacheSweep logs a cache sweep performed by the scheduler.
func (s *Service) RecordCacheSweep(ctx context.Context, removed int) {
	s.record(ctx, "cache_sweep", removed, time.Now())
}

func (s *Service) record(ctx context.Context, kind string, affected int, start time.Time) {
	entry := &models.MaintenanceLog{
		Kind:           kind,
		AffectedCount:  affected,
		ExecutedAt:     time.Now(),
		DurationMillis: time.Since(start).Milliseconds(),
	}
	if err := s.db.RecordMaintenance(ctx, entry); err != nil {
		log.Printf("[cleanup] ⚠️ Failed to record maintenance log (%s): %v", kind, err)
	}
}
