package recommend

import (
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"relocation-advisor/internal/llm"
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var suffixWords = map[string]bool{
	"district":     true,
	"neighborhood": true,
}

// NormalizeAreaName canonicalizes an area name for joining: diacritics
// stripped, lowercased, generic suffix words removed, whitespace collapsed.
// "Río Grande District" and "rio grande" normalize to the same key.
func NormalizeAreaName(name string) string {
	stripped, _, err := transform.String(diacriticStripper, name)
	if err != nil {
		stripped = name
	}
	fields := strings.Fields(strings.ToLower(stripped))
	out := fields[:0]
	for _, w := range fields {
		if suffixWords[w] {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// Merge joins first-stage areas with their second-stage details by normalized
// name. Each detail record is used at most once; leftover details fall back
// to their positional slot. Areas with no match get an empty details record,
// never nil, so downstream enforcement and persistence always see a property
// block.
func Merge(core *llm.CoreResult, details []*llm.AreaDetails) []Area {
	used := make([]bool, len(details))
	areas := make([]Area, len(core.RecommendedAreas))

	for i := range core.RecommendedAreas {
		areas[i] = Area{CoreArea: core.RecommendedAreas[i], Position: i}
		key := NormalizeAreaName(core.RecommendedAreas[i].Name)
		for j, d := range details {
			if used[j] || d == nil {
				continue
			}
			if NormalizeAreaName(d.Name) == key {
				areas[i].Details = d
				used[j] = true
				break
			}
		}
	}

	// Positional fallback: a detail record whose name drifted still lands
	// on the slot it was generated for.
	for i := range areas {
		if areas[i].Details != nil {
			continue
		}
		if i < len(details) && details[i] != nil && !used[i] {
			log.Printf("[recommend] ⚠️ Detail name %q did not match area %q, joining by position %d",
				details[i].Name, areas[i].Name, i)
			areas[i].Details = details[i]
			used[i] = true
			continue
		}
		log.Printf("[recommend] ⚠️ No detail record for area %q, using empty categories", areas[i].Name)
		areas[i].Details = &llm.AreaDetails{Name: areas[i].Name}
	}

	return areas
}
