package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relocation-advisor/internal/llm"
	"relocation-advisor/internal/places"
	"relocation-advisor/internal/webimage"
)

// photoAPI serves one place with a photo for every search.
type photoAPI struct{}

func (photoAPI) SearchText(context.Context, string) ([]places.Candidate, error) {
	return []places.Candidate{{ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"}}}, nil
}

func (photoAPI) Details(context.Context, string) (*places.PlaceDetails, error) {
	return &places.PlaceDetails{
		ID: "p1", DisplayName: "Riverside Park", Types: []string{"park"},
		Photos: []string{"photo-a"},
	}, nil
}

func (photoAPI) PhotoMedia(_ context.Context, photoName string) (string, error) {
	return "https://lh3.googleusercontent.com/" + photoName, nil
}

func newImageResolverWith(t *testing.T, api places.API) *ImageResolver {
	t.Helper()
	resolver := places.NewResolver(api, places.NewMemoryCache(time.Hour), enforcementFilter(t))
	return NewImageResolver(resolver, webimage.NewFetcher(), time.Second)
}

func TestApplyCriticalImagesResolvesLeadItems(t *testing.T) {
	r := newImageResolverWith(t, photoAPI{})

	area := Area{
		CoreArea: llm.CoreArea{Name: "Riverside", State: "California"},
		Details: &llm.AreaDetails{
			Schools: llm.CategoryDetail{Items: []llm.PlaceItem{
				{Name: "Lincoln Elementary", ImageURL: "https://example.com/not-an-image"},
				{Name: "Jefferson Middle", ImageURL: "https://example.com/page"},
			}},
		},
	}
	areas := []Area{area}
	r.ApplyCriticalImages(context.Background(), areas)

	got := areas[0]
	if got.ImageURL != "https://lh3.googleusercontent.com/photo-a" {
		t.Errorf("area image = %q", got.ImageURL)
	}
	items := got.Details.Schools.Items
	if items[0].ImageURL != "https://lh3.googleusercontent.com/photo-a" {
		t.Errorf("lead item image = %q", items[0].ImageURL)
	}
	// Non-lead items only get their generated URL sanity checked.
	if items[1].ImageURL == "https://example.com/page" {
		t.Error("non-image URL on a trailing item should be replaced with a fallback")
	}
	if items[1].ImageURL != llm.Fallbacks[specFor("schools").FallbackKind] {
		t.Errorf("trailing item fallback = %q", items[1].ImageURL)
	}
}

func TestApplyCriticalImagesDegradesToFallbacks(t *testing.T) {
	r := newImageResolverWith(t, downAPI{})

	areas := []Area{{
		CoreArea: llm.CoreArea{Name: "Riverside", State: "California"},
		Details: &llm.AreaDetails{
			Properties: llm.PropertiesDetail{Items: []llm.PropertyItem{
				{Address: "12 Elm St", ImageURLs: []string{"https://example.com/listing"}},
			}},
		},
	}}
	r.ApplyCriticalImages(context.Background(), areas)

	if areas[0].ImageURL != llm.Fallbacks["area"] {
		t.Errorf("area fallback = %q", areas[0].ImageURL)
	}
	prop := areas[0].Details.Properties.Items[0]
	if len(prop.ImageURLs) != 3 {
		t.Fatalf("property has %d images, want 3", len(prop.ImageURLs))
	}
	for _, u := range prop.ImageURLs {
		if u != llm.Fallbacks["property"] {
			t.Errorf("unexpected property image %q", u)
		}
	}
}

func TestResolveItemWebsiteFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta property="og:image" content="https://cdn.example.com/school.jpg">
		</head></html>`))
	}))
	defer srv.Close()

	r := newImageResolverWith(t, downAPI{})
	item := llm.PlaceItem{Name: "Lincoln Elementary", Website: srv.URL}

	url := r.resolveItem(context.Background(), &item, places.Options{Mode: places.ModePOI}, llm.Fallbacks["school"])
	if url != "https://cdn.example.com/school.jpg" {
		t.Errorf("resolveItem = %q, want the page og:image", url)
	}
}

func TestEnsurePropertyImages(t *testing.T) {
	prop := llm.PropertyItem{ImageURLs: []string{
		"https://example.com/house.jpg",
		"https://example.com/listing-page",
	}}
	ensurePropertyImages(&prop, llm.Fallbacks["property"])

	if len(prop.ImageURLs) != 3 {
		t.Fatalf("got %d images, want 3", len(prop.ImageURLs))
	}
	if prop.ImageURLs[0] != "https://example.com/house.jpg" {
		t.Errorf("valid image lost: %v", prop.ImageURLs)
	}
	if prop.ImageURLs[1] != llm.Fallbacks["property"] || prop.ImageURLs[2] != llm.Fallbacks["property"] {
		t.Errorf("fallback padding wrong: %v", prop.ImageURLs)
	}
}

func TestPrependUnique(t *testing.T) {
	got := prependUnique("a", []string{"b", "a", "c"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d = %q, want %q", i, got[i], want[i])
		}
	}
}
