package places

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeAPI serves canned search results keyed by query text and counts calls.
type fakeAPI struct {
	candidates map[string][]Candidate
	details    map[string]PlaceDetails
	searchErr  error

	searchCalls []string
	detailCalls int
	mediaCalls  int
}

func (f *fakeAPI) SearchText(_ context.Context, query string) ([]Candidate, error) {
	f.searchCalls = append(f.searchCalls, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates[query], nil
}

func (f *fakeAPI) Details(_ context.Context, placeID string) (*PlaceDetails, error) {
	f.detailCalls++
	d, ok := f.details[placeID]
	if !ok {
		return nil, errors.New("no such place")
	}
	return &d, nil
}

func (f *fakeAPI) PhotoMedia(_ context.Context, photoName string) (string, error) {
	f.mediaCalls++
	return "https://lh3.googleusercontent.com/" + photoName, nil
}

func newTestResolver(t *testing.T, api *fakeAPI) *Resolver {
	t.Helper()
	return NewResolver(api, NewMemoryCache(time.Hour), testFilter(t))
}

func TestResolveUsesCacheOnRepeat(t *testing.T) {
	api := &fakeAPI{
		candidates: map[string][]Candidate{
			"Riverside Park Riverside California": {
				{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}},
			},
		},
		details: map[string]PlaceDetails{
			"p1": {ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
				Photos: []string{"photo-a", "photo-b"}},
		},
	}
	r := newTestResolver(t, api)
	opts := Options{LocationHint: "Riverside California", Mode: ModePOI}

	url, ok := r.Resolve(context.Background(), "Riverside Park", opts)
	if !ok || url == "" {
		t.Fatalf("first resolve failed: %q, %v", url, ok)
	}

	again, ok := r.Resolve(context.Background(), "Riverside Park", opts)
	if !ok || again != url {
		t.Fatalf("second resolve = %q, %v", again, ok)
	}
	if len(api.searchCalls) != 1 {
		t.Errorf("expected 1 search, got %d (%q)", len(api.searchCalls), api.searchCalls)
	}
	if api.detailCalls != 1 {
		t.Errorf("expected 1 details call, got %d", api.detailCalls)
	}
}

func TestResolvePlaceCacheServesOtherPhotoIndexes(t *testing.T) {
	api := &fakeAPI{
		candidates: map[string][]Candidate{
			"Riverside Park": {{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}}},
		},
		details: map[string]PlaceDetails{
			"p1": {ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
				Photos: []string{"photo-a", "photo-b", "photo-c"}},
		},
	}
	r := newTestResolver(t, api)

	first, _ := r.Resolve(context.Background(), "Riverside Park", Options{PhotoIndex: 0})
	second, _ := r.Resolve(context.Background(), "Riverside Park", Options{PhotoIndex: 1})
	if first == second {
		t.Errorf("indexes 0 and 1 returned the same url %q", first)
	}
	if len(api.searchCalls) != 1 {
		t.Errorf("expected the place lookup to be cached, got %d searches", len(api.searchCalls))
	}
	if api.detailCalls != 1 {
		t.Errorf("expected the photo list to be cached with the place, got %d details calls", api.detailCalls)
	}
}

func TestResolvePropertyModeRejectsCommercial(t *testing.T) {
	// Every variant returns a bank; property mode must refuse it.
	bank := []Candidate{{ID: "b1", DisplayName: "First National Bank", Types: []string{"bank", "premise"}}}
	api := &fakeAPI{candidates: map[string][]Candidate{
		"12 Elm St Riverside California":           bank,
		"12 Elm St":                                bank,
		"12 Elm St premise Riverside California":   bank,
		"12 elm st Riverside California":           bank,
		"12 Elm St residence Riverside California": bank,
		"12 Elm St home Riverside California":      bank,
	}}
	r := newTestResolver(t, api)

	opts := Options{LocationHint: "Riverside California", TypeHint: "premise", Mode: ModeProperty}
	if url, ok := r.Resolve(context.Background(), "12 Elm St", opts); ok {
		t.Fatalf("resolved a bank as a property photo: %q", url)
	}

	// The miss is cached: a repeat must not search again.
	searches := len(api.searchCalls)
	if _, ok := r.Resolve(context.Background(), "12 Elm St", opts); ok {
		t.Fatal("second resolve unexpectedly succeeded")
	}
	if len(api.searchCalls) != searches {
		t.Errorf("negative result not cached: %d extra searches", len(api.searchCalls)-searches)
	}
}

func TestResolveFallsThroughVariants(t *testing.T) {
	api := &fakeAPI{
		candidates: map[string][]Candidate{
			// Only the bare-name variant hits.
			"Hidden Gem Cafe": {{ID: "p2", DisplayName: "Hidden Gem Cafe", Types: []string{"cafe"}}},
		},
		details: map[string]PlaceDetails{
			"p2": {ID: "p2", DisplayName: "Hidden Gem Cafe", Types: []string{"cafe"},
				Photos: []string{"photo-x"}},
		},
	}
	r := newTestResolver(t, api)

	url, ok := r.Resolve(context.Background(), "Hidden Gem Cafe", Options{LocationHint: "Riverside California"})
	if !ok || url == "" {
		t.Fatalf("resolve failed: %q, %v", url, ok)
	}
	if len(api.searchCalls) < 2 {
		t.Errorf("expected the first variant to miss before the bare name hit, got %q", api.searchCalls)
	}
}

func TestResolveOutOfRangePhotoIndex(t *testing.T) {
	api := &fakeAPI{
		candidates: map[string][]Candidate{
			"Riverside Park": {{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}}},
		},
		details: map[string]PlaceDetails{
			"p1": {ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
				Photos: []string{"photo-a", "photo-b"}},
		},
	}
	r := newTestResolver(t, api)

	first, _ := r.Resolve(context.Background(), "Riverside Park", Options{PhotoIndex: 0})
	overflow, ok := r.Resolve(context.Background(), "Riverside Park", Options{PhotoIndex: 7})
	if !ok || overflow != first {
		t.Errorf("out-of-range index = %q, want first photo %q", overflow, first)
	}
}

func TestResolveNeverErrors(t *testing.T) {
	api := &fakeAPI{searchErr: errors.New("quota exhausted")}
	r := newTestResolver(t, api)

	if url, ok := r.Resolve(context.Background(), "Anything", Options{}); ok {
		t.Errorf("resolve reported success during an outage: %q", url)
	}
	if _, ok := r.Resolve(context.Background(), "", Options{}); ok {
		t.Error("empty name must not resolve")
	}
}

func TestResolveOutageIsNotCachedAsMissing(t *testing.T) {
	api := &fakeAPI{
		candidates: map[string][]Candidate{
			"Riverside Park": {{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}}},
		},
		details: map[string]PlaceDetails{
			"p1": {ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
				Photos: []string{"photo-a"}},
		},
		searchErr: errors.New("quota exhausted"),
	}
	r := newTestResolver(t, api)

	if url, ok := r.Resolve(context.Background(), "Riverside Park", Options{}); ok {
		t.Fatalf("resolve succeeded during an outage: %q", url)
	}
	failedSearches := len(api.searchCalls)

	// The outage must not leave a negative entry behind.
	api.searchErr = nil
	url, ok := r.Resolve(context.Background(), "Riverside Park", Options{})
	if !ok || url == "" {
		t.Fatalf("resolve after recovery = %q, %v", url, ok)
	}
	if len(api.searchCalls) <= failedSearches {
		t.Error("recovery resolve never searched again")
	}
}
