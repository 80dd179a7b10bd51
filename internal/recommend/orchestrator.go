package recommend

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"relocation-advisor/internal/llm"
	"relocation-advisor/internal/models"
	"relocation-advisor/internal/places"
)

// Store is the persistence surface the orchestrator needs. The gorm database
// layer implements it; tests substitute a fake.
type Store interface {
	FindJourney(ctx context.Context, id int64) (*models.Journey, error)
	// MarkJourneyRunning atomically flips the journey to RUNNING. It fails
	// with ErrConflict when another journey of the same user is RUNNING and
	// with ErrJourneyState when the journey left its runnable state, so two
	// concurrent runs can never both pass the guard.
	MarkJourneyRunning(ctx context.Context, journey *models.Journey) error
	UpdateJourneyStatus(ctx context.Context, journeyID int64, status, lastError string) error
	FindUser(ctx context.Context, userID int64) (*models.User, error)
	LoadBaseProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	SaveRecommendation(ctx context.Context, in *SaveInput) (int64, error)
	EnqueueEnrichment(ctx context.Context, recommendationID int64, phase int) error
}

// Snapshotter persists the merged profile for a journey before any external
// call is made.
type Snapshotter interface {
	SnapshotForJourney(ctx context.Context, user *models.User, profile *models.UserProfile, journey *models.Journey) error
}

// SaveInput is everything one completed run persists in a single transaction.
type SaveInput struct {
	UserID     int64
	JourneyID  int64
	RunID      string
	Suggestion llm.Suggestion
	Areas      []Area
}

// Result is the synchronous response payload of one run.
type Result struct {
	RecommendationID int64          `json:"recommendationId"`
	RunID            string         `json:"runId"`
	Suggestion       llm.Suggestion `json:"propertySuggestion"`
	Areas            []Area         `json:"areas"`
}

// Orchestrator drives one recommendation run end to end: journey guard,
// profile snapshot, two-stage generation, merge, residential enforcement,
// critical images, persistence, enrichment hand-off.
type Orchestrator struct {
	store       Store
	snapshots   Snapshotter
	generator   *llm.Generator
	images      *ImageResolver
	filter      *places.Filter
	concurrency int
}

func NewOrchestrator(store Store, snapshots Snapshotter, generator *llm.Generator, images *ImageResolver, filter *places.Filter, detailConcurrency int) *Orchestrator {
	if detailConcurrency < 1 {
		detailConcurrency = 2
	}
	return &Orchestrator{
		store:       store,
		snapshots:   snapshots,
		generator:   generator,
		images:      images,
		filter:      filter,
		concurrency: detailConcurrency,
	}
}

// Run executes the journey. On any unhandled failure the journey transitions
// to CANCELLED and the error is returned to the caller.
func (o *Orchestrator) Run(ctx context.Context, journeyID int64) (*Result, error) {
	journey, err := o.store.FindJourney(ctx, journeyID)
	if err != nil {
		return nil, err
	}
	if journey.Status != models.JourneyStatusPending && journey.Status != models.JourneyStatusCancelled {
		return nil, fmt.Errorf("%w: journey %d is %s", ErrJourneyState, journeyID, journey.Status)
	}

	if err := o.store.MarkJourneyRunning(ctx, journey); err != nil {
		return nil, err
	}

	result, err := o.run(ctx, journey)
	if err != nil {
		log.Printf("[recommend] ❌ Journey %d cancelled: %v", journey.ID, err)
		if cancelErr := o.store.UpdateJourneyStatus(ctx, journey.ID, models.JourneyStatusCancelled, err.Error()); cancelErr != nil {
			log.Printf("[recommend] ⚠️ Failed to mark journey %d cancelled: %v", journey.ID, cancelErr)
		}
		return nil, err
	}

	if err := o.store.UpdateJourneyStatus(ctx, journey.ID, models.JourneyStatusCompleted, ""); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, journey *models.Journey) (*Result, error) {
	user, err := o.store.FindUser(ctx, journey.UserID)
	if err != nil {
		return nil, err
	}
	base, err := o.store.LoadBaseProfile(ctx, journey.UserID)
	if err != nil {
		return nil, err
	}
	profile, err := MergeProfileForJourney(user, base, journey)
	if err != nil {
		return nil, err
	}

	// Snapshot before any external call so a crash mid-pipeline leaves an
	// inspectable trace of what the run saw.
	if err := o.snapshots.SnapshotForJourney(ctx, user, profile, journey); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	log.Printf("[recommend] Run %s starting for user %d (journey %d)", runID, journey.UserID, journey.ID)

	core, err := o.generator.GenerateCore(ctx, profile)
	if err != nil {
		return nil, err
	}

	details := make([]*llm.AreaDetails, len(core.RecommendedAreas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i := range core.RecommendedAreas {
		i := i
		g.Go(func() error {
			d, err := o.generator.GenerateAreaDetails(gctx, profile, &core.RecommendedAreas[i])
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	areas := Merge(core, details)
	for i := range areas {
		kept, placeholders := EnforceResidential(areas[i].Details.Properties.Items, o.filter, areas[i].Name, areas[i].State)
		areas[i].Details.Properties.Items = kept
		areas[i].PropertyPlaceholders = placeholders
	}

	o.images.ApplyCriticalImages(ctx, areas)

	recommendationID, err := o.store.SaveRecommendation(ctx, &SaveInput{
		UserID:     journey.UserID,
		JourneyID:  journey.ID,
		RunID:      runID,
		Suggestion: core.PropertySuggestion,
		Areas:      areas,
	})
	if err != nil {
		return nil, err
	}

	if err := o.store.EnqueueEnrichment(ctx, recommendationID, 2); err != nil {
		// The response is already complete; enrichment just lags.
		log.Printf("[recommend] ⚠️ Run %s: failed to enqueue enrichment: %v", runID, err)
	}

	log.Printf("[recommend] ✅ Run %s completed: %d areas in %v", runID, len(areas), time.Since(start))
	return &Result{
		RecommendationID: recommendationID,
		RunID:            runID,
		Suggestion:       core.PropertySuggestion,
		Areas:            areas,
	}, nil
}
