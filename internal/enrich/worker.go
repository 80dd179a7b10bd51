package enrich

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"

	"relocation-advisor/internal/config"
	"relocation-advisor/internal/database"
	"relocation-advisor/internal/models"
	"relocation-advisor/internal/places"
	"relocation-advisor/internal/recommend"
)

// Worker drains the enrichment queue: phase 2 completes the galleries users
// see first (leading item per category, first three listings), phase 3
// upgrades everything else from stock fallbacks to real photos. Lookups are
// paced so background work never starves foreground runs.
type Worker struct {
	db        *database.GormDB
	resolver  *places.Resolver
	pacer     *rate.Limiter
	stopChan  chan struct{}
	isRunning bool

	pollInterval      time.Duration
	maxPlacePhotos    int
	maxPropertyPhotos int
}

func NewWorker(db *database.GormDB, resolver *places.Resolver, cfg config.EnrichConfig) *Worker {
	return &Worker{
		db:                db,
		resolver:          resolver,
		pacer:             rate.NewLimiter(rate.Every(cfg.GetLookupDelay()), 1),
		stopChan:          make(chan struct{}),
		pollInterval:      cfg.GetPollInterval(),
		maxPlacePhotos:    cfg.MaxPlacePhotos,
		maxPropertyPhotos: cfg.MaxPropertyPhotos,
	}
}

// Start starts the worker loop.
func (w *Worker) Start() {
	if w.isRunning {
		log.Println("[enrich] Worker already running")
		return
	}
	w.isRunning = true
	log.Printf("[enrich] Worker started (poll_interval=%v)", w.pollInterval)
	go w.run()
}

// Stop stops the worker loop.
func (w *Worker) Stop() {
	if !w.isRunning {
		return
	}
	log.Println("[enrich] Worker stopping...")
	w.isRunning = false
	close(w.stopChan)
}

func (w *Worker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			log.Println("[enrich] Worker stopped")
			return
		case <-ticker.C:
			w.processNext()
		}
	}
}

func (w *Worker) processNext() {
	ctx := context.Background()

	job, err := w.db.ClaimDueJob(ctx)
	if err != nil {
		log.Printf("[enrich] ❌ Failed to claim job: %v", err)
		return
	}
	if job == nil {
		return
	}

	log.Printf("[enrich] Job %d (run %s): running phase %d, attempt %d",
		job.ID, job.RunID, job.Phase, job.Attempts+1)

	areas, err := w.db.AreasForRecommendation(ctx, job.RecommendationID)
	if err != nil {
		w.fail(ctx, job, err, false)
		return
	}
	if len(areas) == 0 {
		// Recommendation was deleted; retrying will never help.
		w.fail(ctx, job, fmt.Errorf("recommendation %d has no areas", job.RecommendationID), true)
		return
	}

	start := time.Now()
	if err := w.runPhase(ctx, job, areas); err != nil {
		w.fail(ctx, job, err, false)
		return
	}

	switch job.Phase {
	case 2:
		if err := w.db.AdvanceJobPhase(ctx, job); err != nil {
			log.Printf("[enrich] ❌ Job %d: failed to advance phase: %v", job.ID, err)
			return
		}
		log.Printf("[enrich] ✅ Job %d: phase 2 done in %v, phase 3 queued", job.ID, time.Since(start))
	default:
		if err := w.db.CompleteJob(ctx, job); err != nil {
			log.Printf("[enrich] ❌ Job %d: failed to complete: %v", job.ID, err)
			return
		}
		log.Printf("[enrich] ✅ Job %d: phase 3 done in %v", job.ID, time.Since(start))
	}
}

func (w *Worker) fail(ctx context.Context, job *models.EnrichmentJob, cause error, permanent bool) {
	log.Printf("[enrich] ⚠️ Job %d failed: %v", job.ID, cause)
	if err := w.db.FailJob(ctx, job, cause, permanent); err != nil {
		log.Printf("[enrich] ❌ Job %d: failed to record failure: %v", job.ID, err)
	}
}

// runPhase walks every area of the job's recommendation. Phase 2 touches only
// the visible slice of each list; phase 3 touches the rest. Individual lookup
// failures are skipped, only storage errors abort the phase.
func (w *Worker) runPhase(ctx context.Context, job *models.EnrichmentJob, areas []models.RecommendedArea) error {
	for i := range areas {
		area := &areas[i]
		for _, spec := range recommend.CategorySpecs {
			if err := w.enrichCategory(ctx, job.Phase, area, spec); err != nil {
				return err
			}
		}
		if err := w.enrichProperties(ctx, job.Phase, area); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) enrichCategory(ctx context.Context, phase int, area *models.RecommendedArea, spec recommend.CategorySpec) error {
	items, err := w.db.PlacesForArea(ctx, area.ID, spec.Key)
	if err != nil {
		return err
	}

	for _, place := range items {
		inPhase2 := place.Position == 0
		if (phase == 2) != inPhase2 {
			continue
		}

		gallery := w.completeGallery(ctx, place.Name, places.Options{
			LocationHint: area.Name + " " + area.State,
			TypeHint:     spec.TypeHint,
			Mode:         places.ModePOI,
		}, place.ImageGallery, w.maxPlacePhotos)
		if len(gallery) <= len(place.ImageGallery) {
			continue
		}

		if err := w.db.UpdatePlaceImages(ctx, place.ID, gallery[0], gallery); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) enrichProperties(ctx context.Context, phase int, area *models.RecommendedArea) error {
	props, err := w.db.PropertiesForArea(ctx, area.ID)
	if err != nil {
		return err
	}

	for _, prop := range props {
		if prop.Placeholder {
			continue
		}
		inPhase2 := prop.Position < 3
		if (phase == 2) != inPhase2 {
			continue
		}

		urls := w.completeGallery(ctx, prop.Address, places.Options{
			LocationHint: area.State,
			TypeHint:     "premise",
			Mode:         places.ModeProperty,
		}, prop.ImageURLs, w.maxPropertyPhotos)
		if len(urls) <= len(prop.ImageURLs) {
			continue
		}

		if err := w.db.UpdatePropertyImages(ctx, prop.ID, urls); err != nil {
			return err
		}
	}
	return nil
}

// completeGallery extends the current gallery up to max entries, walking photo
// indexes from where the gallery left off. Each outbound lookup waits out the
// pacing limiter; individual lookup failures skip the index rather than abort.
func (w *Worker) completeGallery(ctx context.Context, name string, opts places.Options, current []string, max int) []string {
	gallery := append([]string(nil), current...)
	seen := make(map[string]bool, len(gallery))
	for _, u := range gallery {
		seen[u] = true
	}

	for photoIndex := len(gallery); photoIndex < max; photoIndex++ {
		if err := w.pacer.Wait(ctx); err != nil {
			break
		}
		opts.PhotoIndex = photoIndex
		url, ok := w.resolver.Resolve(ctx, name, opts)
		if !ok || seen[url] {
			continue
		}
		seen[url] = true
		gallery = append(gallery, url)
	}
	return gallery
}
