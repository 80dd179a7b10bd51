package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/robfig/cron/v3"

	"relocation-advisor/internal/cleanup"
	"relocation-advisor/internal/config"
	"relocation-advisor/internal/places"
)

// Scheduler runs the daily maintenance pass and the hourly in-memory cache
// sweep on cron schedules.
type Scheduler struct {
	cron      *cron.Cron
	cleanup   *cleanup.Service
	cache     *places.MemoryCache // nil when the redis backend is active
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(cleanupSvc *cleanup.Service, cache *places.MemoryCache, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cleanup: cleanupSvc,
		cache:   cache,
		config:  cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	cronSpec := parseDailyTime(s.config.Enrich.MaintenanceTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("[scheduler] Starting daily maintenance...")
		s.cleanup.Run(context.Background(), cleanup.DefaultConfig())
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_, err = s.cron.AddFunc("@every 1h", func() {
			removed := s.cache.Sweep()
			if removed > 0 {
				log.Printf("[scheduler] Cache sweep removed %d expired entries", removed)
				s.cleanup.RecordCacheSweep(context.Background(), removed)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("[scheduler] Started with daily maintenance at %s (cron: %s)", s.config.Enrich.MaintenanceTime, cronSpec)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("[scheduler] Stopped")
	}
}

// parseDailyTime converts "HH:MM" to a cron spec, falling back to 03:30 on
// malformed input.
func parseDailyTime(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) == 2 {
		var hour, minute int
		if _, err := fmt.Sscanf(t, "%d:%d", &hour, &minute); err == nil &&
			hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
			return fmt.Sprintf("%d %d * * *", minute, hour)
		}
	}
	log.Printf("[scheduler] ⚠️ Invalid maintenance time %q, using 03:30", t)
	return "30 3 * * *"
}
