package recommend

import (
	"context"
	"log"
	"time"

	"relocation-advisor/internal/llm"
	"relocation-advisor/internal/places"
	"relocation-advisor/internal/webimage"
)

// ImageResolver fills in the images users see on first render: the area
// photo, the leading item of every category, and the first three property
// cards. Everything else keeps stock fallbacks until the background pass
// upgrades it.
type ImageResolver struct {
	places  *places.Resolver
	web     *webimage.Fetcher
	timeout time.Duration
}

func NewImageResolver(placesResolver *places.Resolver, web *webimage.Fetcher, criticalTimeout time.Duration) *ImageResolver {
	return &ImageResolver{places: placesResolver, web: web, timeout: criticalTimeout}
}

const criticalProperties = 3

// ApplyCriticalImages resolves the critical path for every area in place.
// Each lookup gets its own short budget so one slow item cannot stall the
// whole response. Failures degrade to stock imagery, never to an error.
func (r *ImageResolver) ApplyCriticalImages(ctx context.Context, areas []Area) {
	start := time.Now()
	for i := range areas {
		r.applyArea(ctx, &areas[i])
	}
	log.Printf("[recommend] 🖼 Critical images resolved for %d areas in %v", len(areas), time.Since(start))
}

func (r *ImageResolver) applyArea(ctx context.Context, area *Area) {
	hint := area.State

	if url, ok := r.resolveOne(ctx, area.Name, places.Options{
		LocationHint: hint,
		Mode:         places.ModeArea,
	}); ok {
		area.ImageURL = url
	} else {
		area.ImageURL = places.EnsurePreferred(area.ImageURL, llm.Fallbacks["area"])
	}

	if area.Details == nil {
		return
	}

	for _, cat := range area.Details.Categories() {
		spec := specFor(cat.Key)
		fallback := llm.Fallbacks[spec.FallbackKind]
		for j := range cat.Detail.Items {
			item := &cat.Detail.Items[j]
			if j == 0 {
				item.ImageURL = r.resolveItem(ctx, item, places.Options{
					LocationHint: area.Name + " " + hint,
					TypeHint:     spec.TypeHint,
					Mode:         places.ModePOI,
				}, fallback)
			} else {
				item.ImageURL = places.EnsurePreferred(item.ImageURL, fallback)
			}
		}
	}

	propFallback := llm.Fallbacks["property"]
	for j := range area.Details.Properties.Items {
		prop := &area.Details.Properties.Items[j]
		if j < criticalProperties {
			if url, ok := r.resolveOne(ctx, prop.Address, places.Options{
				LocationHint: hint,
				TypeHint:     "premise",
				Mode:         places.ModeProperty,
			}); ok {
				prop.ImageURLs = prependUnique(url, prop.ImageURLs)
			}
		}
		ensurePropertyImages(prop, propFallback)
	}
}

// resolveItem tries the place lookup, then the item's own website, then the
// generated URL guarded by EnsurePreferred.
func (r *ImageResolver) resolveItem(ctx context.Context, item *llm.PlaceItem, opts places.Options, fallback string) string {
	if url, ok := r.resolveOne(ctx, item.Name, opts); ok {
		return url
	}
	if item.Website != "" {
		webCtx, cancel := context.WithTimeout(ctx, r.timeout)
		url, ok := r.web.OGImage(webCtx, item.Website)
		cancel()
		if ok {
			return url
		}
	}
	return places.EnsurePreferred(item.ImageURL, fallback)
}

func (r *ImageResolver) resolveOne(ctx context.Context, name string, opts places.Options) (string, bool) {
	itemCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.places.Resolve(itemCtx, name, opts)
}

// ensurePropertyImages guarantees every listing renders with at least three
// direct image URLs.
func ensurePropertyImages(prop *llm.PropertyItem, fallback string) {
	cleaned := make([]string, 0, len(prop.ImageURLs))
	for _, u := range prop.ImageURLs {
		cleaned = append(cleaned, places.EnsurePreferred(u, fallback))
	}
	for len(cleaned) < 3 {
		cleaned = append(cleaned, fallback)
	}
	prop.ImageURLs = cleaned
}

func prependUnique(url string, urls []string) []string {
	out := []string{url}
	for _, u := range urls {
		if u != url {
			out = append(out, u)
		}
	}
	return out
}
