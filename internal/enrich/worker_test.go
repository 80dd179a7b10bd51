package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"relocation-advisor/internal/config"
	"relocation-advisor/internal/places"
)

// galleryAPI serves one place whose photo list drives gallery completion.
type galleryAPI struct {
	photos []string

	searchCalls int
	mediaCalls  int
}

func (g *galleryAPI) SearchText(_ context.Context, _ string) ([]places.Candidate, error) {
	g.searchCalls++
	return []places.Candidate{{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}}}, nil
}

func (g *galleryAPI) Details(_ context.Context, placeID string) (*places.PlaceDetails, error) {
	if placeID != "p1" {
		return nil, errors.New("no such place")
	}
	return &places.PlaceDetails{
		ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
		Photos: g.photos,
	}, nil
}

func (g *galleryAPI) PhotoMedia(_ context.Context, photoName string) (string, error) {
	g.mediaCalls++
	return "https://lh3.googleusercontent.com/" + photoName, nil
}

func newTestWorker(t *testing.T, api places.API) *Worker {
	t.Helper()
	filter, err := places.NewFilter(
		[]string{"bank", "store"},
		`(?i)\b(bank|llc|realty)\b`,
		[]string{"premise", "street_address"},
	)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	resolver := places.NewResolver(api, places.NewMemoryCache(time.Hour), filter)
	return NewWorker(nil, resolver, config.EnrichConfig{
		MaxPlacePhotos:    4,
		MaxPropertyPhotos: 5,
	})
}

func TestCompleteGalleryFillsToMax(t *testing.T) {
	api := &galleryAPI{photos: []string{"photo-a", "photo-b", "photo-c", "photo-d", "photo-e"}}
	w := newTestWorker(t, api)

	current := []string{"https://lh3.googleusercontent.com/photo-a"}
	gallery := w.completeGallery(context.Background(), "Riverside Park", places.Options{}, current, 4)

	if len(gallery) != 4 {
		t.Fatalf("gallery has %d entries, want 4: %q", len(gallery), gallery)
	}
	if gallery[0] != current[0] {
		t.Errorf("existing lead image was replaced: %q", gallery[0])
	}
	seen := make(map[string]bool)
	for _, u := range gallery {
		if seen[u] {
			t.Errorf("duplicate url %q", u)
		}
		seen[u] = true
	}
}

func TestCompleteGalleryStopsAtPhotoListEnd(t *testing.T) {
	api := &galleryAPI{photos: []string{"photo-a", "photo-b"}}
	w := newTestWorker(t, api)

	gallery := w.completeGallery(context.Background(), "Riverside Park", places.Options{}, nil, 4)

	// Out-of-range indexes fall back to the first photo and are dropped as
	// duplicates, so a two-photo place yields a two-entry gallery.
	if len(gallery) != 2 {
		t.Fatalf("gallery has %d entries, want 2: %q", len(gallery), gallery)
	}
}

func TestCompleteGalleryFullGalleryMakesNoLookups(t *testing.T) {
	api := &galleryAPI{photos: []string{"photo-a", "photo-b", "photo-c", "photo-d"}}
	w := newTestWorker(t, api)

	current := []string{
		"https://lh3.googleusercontent.com/photo-a",
		"https://lh3.googleusercontent.com/photo-b",
		"https://lh3.googleusercontent.com/photo-c",
		"https://lh3.googleusercontent.com/photo-d",
	}
	gallery := w.completeGallery(context.Background(), "Riverside Park", places.Options{}, current, 4)

	if len(gallery) != 4 {
		t.Fatalf("gallery has %d entries, want 4", len(gallery))
	}
	if api.searchCalls != 0 || api.mediaCalls != 0 {
		t.Errorf("full gallery still made lookups: %d searches, %d media calls",
			api.searchCalls, api.mediaCalls)
	}
}
