package places

import (
	"regexp"
	"strings"
)

// Mode controls how strictly candidates are filtered before a photo is
// accepted.
type Mode string

const (
	// ModePOI accepts any candidate.
	ModePOI Mode = "poi"
	// ModeArea rejects obviously commercial candidates.
	ModeArea Mode = "area"
	// ModeProperty additionally requires an address-level type hint, so a
	// storefront never ends up illustrating a home listing.
	ModeProperty Mode = "property"
)

// TypeHints maps a lookup category to the place type appended to search
// queries. Categories missing here search by name alone.
var TypeHints = map[string]string{
	"school":     "school",
	"social":     "bar",
	"shopping":   "shopping_mall",
	"greens":     "park",
	"sports":     "stadium",
	"property":   "premise",
	"transport":  "transit_station",
	"restaurant": "restaurant",
	"pet":        "pet_store",
}

var (
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s'&-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeQuery lowercases a subject name and strips punctuation that makes
// text search miss.
func NormalizeQuery(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// QueryVariants returns the search strings to try in order: name with the
// location hint, bare name, name with the type hint, a punctuation-normalized
// form, and for property mode residential-biased phrasings.
func QueryVariants(name, locationHint, typeHint string, mode Mode) []string {
	name = strings.TrimSpace(name)
	locationHint = strings.TrimSpace(locationHint)

	var variants []string
	seen := make(map[string]bool)
	add := func(parts ...string) {
		q := strings.TrimSpace(strings.Join(parts, " "))
		q = whitespaceRe.ReplaceAllString(q, " ")
		if q != "" && !seen[q] {
			seen[q] = true
			variants = append(variants, q)
		}
	}

	add(name, locationHint)
	add(name)
	add(name, typeHint, locationHint)
	add(NormalizeQuery(name), locationHint)
	if mode == ModeProperty {
		add(name, "residence", locationHint)
		add(name, "home", locationHint)
	}
	return variants
}

// Filter decides whether a candidate may supply a photo in a given mode.
type Filter struct {
	commercialTypes    map[string]bool
	commercialKeywords *regexp.Regexp
	residentialHints   map[string]bool
}

func NewFilter(commercialTypes []string, commercialKeywords string, residentialHints []string) (*Filter, error) {
	re, err := regexp.Compile(commercialKeywords)
	if err != nil {
		return nil, err
	}
	f := &Filter{
		commercialTypes:    make(map[string]bool, len(commercialTypes)),
		commercialKeywords: re,
		residentialHints:   make(map[string]bool, len(residentialHints)),
	}
	for _, t := range commercialTypes {
		f.commercialTypes[t] = true
	}
	for _, t := range residentialHints {
		f.residentialHints[t] = true
	}
	return f, nil
}

// Accept reports whether a candidate with the given name and types passes the
// mode's filter.
func (f *Filter) Accept(mode Mode, displayName string, types []string) bool {
	switch mode {
	case ModeProperty:
		if f.looksCommercial(displayName, types) {
			return false
		}
		for _, t := range types {
			if f.residentialHints[t] {
				return true
			}
		}
		return false
	case ModeArea:
		return !f.looksCommercial(displayName, types)
	default:
		return true
	}
}

// CommercialText reports whether free text reads like a business listing.
// Used on generated property blurbs, which carry no place types.
func (f *Filter) CommercialText(text string) bool {
	return f.commercialKeywords.MatchString(text)
}

func (f *Filter) looksCommercial(displayName string, types []string) bool {
	for _, t := range types {
		if f.commercialTypes[t] {
			return true
		}
	}
	return f.commercialKeywords.MatchString(displayName)
}

var (
	imageFileRe   = regexp.MustCompile(`(?i)^https://[^\s]+\.(jpg|jpeg|png|webp)(\?[^\s]*)?$`)
	unsplashRe    = regexp.MustCompile(`(?i)^https://images\.unsplash\.com/[^\s]+fm=(jpg|jpeg|png|webp)`)
	googleusercRe = regexp.MustCompile(`(?i)^https://lh3\.googleusercontent\.com/`)
)

// EnsurePreferred returns the URL when it is a directly renderable image and
// the fallback otherwise. Guards against the generator inventing page links
// instead of image links.
func EnsurePreferred(url, fallback string) string {
	url = strings.TrimSpace(url)
	if imageFileRe.MatchString(url) || unsplashRe.MatchString(url) || googleusercRe.MatchString(url) {
		return url
	}
	return fallback
}
