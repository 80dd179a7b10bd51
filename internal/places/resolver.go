package places

import (
	"context"
	"log"
)

// Options tune a single photo resolution.
type Options struct {
	LocationHint string
	TypeHint     string
	PhotoIndex   int
	Mode         Mode
}

// Resolver turns a subject name into a photo URL. It never returns an error:
// any failure, filter rejection or photo-less place reports ok=false and the
// caller falls back to stock imagery.
type Resolver struct {
	api    API
	cache  Cache
	filter *Filter
}

func NewResolver(api API, cache Cache, filter *Filter) *Resolver {
	return &Resolver{api: api, cache: cache, filter: filter}
}

// Resolve finds a photo for the named subject. Cached results are reused for
// an hour; one text search and one details fetch serve every photo index of
// the same place.
func (r *Resolver) Resolve(ctx context.Context, name string, opts Options) (string, bool) {
	if name == "" {
		return "", false
	}
	if opts.Mode == "" {
		opts.Mode = ModePOI
	}

	photoKey := PhotoKey(name+"|"+opts.LocationHint, opts.PhotoIndex)
	if url, ok := r.cache.GetPhoto(ctx, photoKey); ok {
		return url, url != ""
	}

	entry, ok := r.lookupPlace(ctx, name, opts)
	if !ok {
		if entry != nil {
			// A definitive miss: negative entries stop repeated
			// searches for subjects that will never resolve.
			r.cache.SetPhoto(ctx, photoKey, "")
		}
		return "", false
	}

	if len(entry.Photos) == 0 {
		r.cache.SetPhoto(ctx, photoKey, "")
		return "", false
	}
	photoName := entry.Photos[0]
	if opts.PhotoIndex > 0 && opts.PhotoIndex < len(entry.Photos) {
		photoName = entry.Photos[opts.PhotoIndex]
	}

	url, err := r.api.PhotoMedia(ctx, photoName)
	if err != nil {
		log.Printf("[places] ⚠️ Photo media failed for %s: %v", entry.PlaceID, err)
		return "", false
	}
	r.cache.SetPhoto(ctx, photoKey, url)
	return url, url != ""
}

// lookupPlace finds the place entry for a subject, caching the place id and
// photo name list together so later photo indexes skip both the search and
// the details fetch. ok=false with a non-nil entry is a definitive miss;
// ok=false with nil means a transient failure that must not be cached.
func (r *Resolver) lookupPlace(ctx context.Context, name string, opts Options) (*PlaceEntry, bool) {
	placeKey := PlaceKey(NormalizeQuery(name), opts.LocationHint, opts.TypeHint, string(opts.Mode))
	if entry, ok := r.cache.GetPlace(ctx, placeKey); ok {
		return entry, entry.PlaceID != ""
	}

	transient := false
	for _, query := range QueryVariants(name, opts.LocationHint, opts.TypeHint, opts.Mode) {
		candidates, err := r.api.SearchText(ctx, query)
		if err != nil {
			log.Printf("[places] ⚠️ Search failed for %q: %v", query, err)
			transient = true
			continue
		}
		for _, c := range candidates {
			if !r.filter.Accept(opts.Mode, c.DisplayName, c.Types) {
				continue
			}
			details, err := r.api.Details(ctx, c.ID)
			if err != nil {
				log.Printf("[places] ⚠️ Details failed for %s: %v", c.ID, err)
				return nil, false
			}
			if !r.filter.Accept(opts.Mode, details.DisplayName, details.Types) {
				continue
			}
			entry := &PlaceEntry{PlaceID: c.ID, Photos: details.Photos}
			r.cache.SetPlace(ctx, placeKey, entry)
			return entry, true
		}
	}

	if transient {
		// An outage is not a verdict on the place; leave the cache
		// alone so a later pass can retry.
		return nil, false
	}
	entry := &PlaceEntry{}
	r.cache.SetPlace(ctx, placeKey, entry)
	return entry, false
}
