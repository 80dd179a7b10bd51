package llm

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ResidentialTypes is the allowed property type enumeration. Anything else
// is dropped by residential enforcement.
var ResidentialTypes = []string{
	"single_family", "condo", "condominium", "townhouse",
	"apartment", "duplex", "triplex", "loft",
	"bungalow", "cottage", "multi_family",
	"manufactured", "mobile_home", "rowhouse",
}

var residentialSet = func() map[string]bool {
	m := make(map[string]bool, len(ResidentialTypes))
	for _, t := range ResidentialTypes {
		m[t] = true
	}
	return m
}()

// NormalizePropertyType lowercases and underscores a declared type so
// "Single Family" and "single_family" compare equal.
func NormalizePropertyType(t string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), " ", "_")
}

// IsResidentialType reports whether t (after normalization) is residential.
func IsResidentialType(t string) bool {
	return residentialSet[NormalizePropertyType(t)]
}

// ===== Generation output types =====

type RaceEthnicity struct {
	White    int `json:"white"`
	Hispanic int `json:"hispanic"`
	Asian    int `json:"asian"`
	Black    int `json:"black"`
	Other    int `json:"other"`
}

type IncomeLevels struct {
	PerCapitaIncome       int `json:"perCapitaIncome"`
	MedianHouseholdIncome int `json:"medianHouseholdIncome"`
}

type CrimeCounts struct {
	Violent  int `json:"violent"`
	Property int `json:"property"`
	Total    int `json:"total"`
}

type CrimeData struct {
	NumberOfCrimes   CrimeCounts `json:"numberOfCrimes"`
	CrimeRatePer1000 CrimeCounts `json:"crimeRatePer1000"`
}

type Demographics struct {
	RaceEthnicity RaceEthnicity `json:"raceEthnicity"`
	IncomeLevels  IncomeLevels  `json:"incomeLevels"`
	CrimeData     CrimeData     `json:"crimeData"`
}

// CoreArea is the first-stage coarse record for one candidate area. Name is
// the join key for the merge, unique within a batch.
type CoreArea struct {
	Name             string       `json:"name" validate:"required"`
	State            string       `json:"state" validate:"required"`
	Reason           string       `json:"reason"`
	FullDescription  string       `json:"fullDescription" validate:"min=20"`
	ImageURL         string       `json:"imageUrl"`
	Demographics     Demographics `json:"demographics"`
	PlacesOfInterest []string     `json:"placesOfInterest" validate:"max=5"`
	LifestyleTags    []string     `json:"lifestyleTags" validate:"max=6"`
}

type Suggestion struct {
	FullDescription string `json:"fullDescription" validate:"min=20"`
	Type            string `json:"type" validate:"residential"`
	IdealFor        string `json:"idealFor"`
	PriceRange      string `json:"priceRange"`
}

type CoreResult struct {
	RecommendedAreas   []CoreArea `json:"recommendedAreas" validate:"min=3,max=10,dive"`
	PropertySuggestion Suggestion `json:"propertySuggestion"`
}

// PlaceItem is one point of interest inside a category.
type PlaceItem struct {
	Name            string   `json:"name" validate:"required"`
	Description     string   `json:"description"`
	FullDescription string   `json:"fullDescription" validate:"min=20"`
	ImageURL        string   `json:"imageUrl"`
	ImageGallery    []string `json:"imageGallery,omitempty" validate:"max=4"`
	Website         string   `json:"website"`
	Direction       string   `json:"direction"`
}

// CategoryDetail is a category's items plus its three-bullet summary.
type CategoryDetail struct {
	Items   []PlaceItem `json:"items" validate:"dive"`
	Summary []string    `json:"summary"`
}

type PropertyDetails struct {
	Type          string `json:"type" validate:"required"`
	BuiltYear     int    `json:"builtYear"`
	LotSizeSqFt   int    `json:"lotSizeSqFt"`
	ParkingSpaces int    `json:"parkingSpaces"`
	InUnitLaundry bool   `json:"inUnitLaundry"`
	District      string `json:"district"`
}

type PropertyItem struct {
	Address         string          `json:"address" validate:"required"`
	Price           string          `json:"price"`
	Description     string          `json:"description"`
	FullDescription string          `json:"fullDescription"`
	ImageURLs       []string        `json:"imageUrls" validate:"max=5"`
	Details         PropertyDetails `json:"details"`
}

type PropertiesDetail struct {
	Items   []PropertyItem `json:"items" validate:"dive"`
	Summary string         `json:"summary"`
}

// AreaDetails is the second-stage category-enriched record for one area.
type AreaDetails struct {
	Name           string           `json:"name"`
	Schools        CategoryDetail   `json:"schools"`
	SocialLife     CategoryDetail   `json:"socialLife"`
	Shopping       CategoryDetail   `json:"shopping"`
	GreenSpaces    CategoryDetail   `json:"greenSpaces"`
	Sports         CategoryDetail   `json:"sports"`
	Transportation CategoryDetail   `json:"transportation"`
	Family         CategoryDetail   `json:"family"`
	Restaurants    CategoryDetail   `json:"restaurants"`
	Pets           CategoryDetail   `json:"pets"`
	Hobbies        CategoryDetail   `json:"hobbies"`
	Properties     PropertiesDetail `json:"properties"`
}

// Categories returns pointers to every place category keyed by name, in a
// stable order. Callers iterate this instead of naming the ten fields.
func (d *AreaDetails) Categories() []struct {
	Key    string
	Detail *CategoryDetail
} {
	return []struct {
		Key    string
		Detail *CategoryDetail
	}{
		{"schools", &d.Schools},
		{"socialLife", &d.SocialLife},
		{"shopping", &d.Shopping},
		{"greenSpaces", &d.GreenSpaces},
		{"sports", &d.Sports},
		{"transportation", &d.Transportation},
		{"family", &d.Family},
		{"restaurants", &d.Restaurants},
		{"pets", &d.Pets},
		{"hobbies", &d.Hobbies},
	}
}

// ===== Validation =====

var validate = func() *validator.Validate {
	v := validator.New()
	// residential: field must normalize into the residential type enum
	_ = v.RegisterValidation("residential", func(fl validator.FieldLevel) bool {
		return IsResidentialType(fl.Field().String())
	})
	return v
}()

// ValidateCore checks the first-stage result after parse/repair.
func ValidateCore(c *CoreResult) error {
	return validate.Struct(c)
}

// ValidateDetails checks the second-stage result after parse/repair and
// normalization.
func ValidateDetails(d *AreaDetails) error {
	return validate.Struct(d)
}

// ===== Post-parse normalization =====

var summaryFiller = []string{
	"Information not available",
	"Please contact local authorities for more details",
	"More research may be needed",
}

const summaryPad = "Additional information not available"

// NormalizeDetails fills collection fields the model dropped under
// truncation so validation does not fail on an omitted summary: each
// category gets a non-nil items slice and an exactly-3-bullet summary, and
// property types are canonicalized.
func NormalizeDetails(d *AreaDetails) {
	for _, cat := range d.Categories() {
		if cat.Detail.Items == nil {
			cat.Detail.Items = []PlaceItem{}
		}
		cat.Detail.Summary = normalizeSummary(cat.Detail.Summary)
	}

	if d.Properties.Items == nil {
		d.Properties.Items = []PropertyItem{}
	}
	for i := range d.Properties.Items {
		d.Properties.Items[i].Details.Type = NormalizePropertyType(d.Properties.Items[i].Details.Type)
	}
}

func normalizeSummary(s []string) []string {
	if len(s) == 0 {
		out := make([]string, len(summaryFiller))
		copy(out, summaryFiller)
		return out
	}
	for len(s) < 3 {
		s = append(s, summaryPad)
	}
	return s[:3]
}

// ===== JSON Schema builders =====

func schemaObj(props map[string]any, required ...string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func schemaArr(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func schemaStr() map[string]any  { return map[string]any{"type": "string"} }
func schemaInt() map[string]any  { return map[string]any{"type": "integer"} }
func schemaBool() map[string]any { return map[string]any{"type": "boolean"} }

func schemaNullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

func crimeCountsSchema() map[string]any {
	return schemaObj(map[string]any{
		"violent":  schemaInt(),
		"property": schemaInt(),
		"total":    schemaInt(),
	}, "violent", "property", "total")
}

// CoreSchema is the json_schema constraint for the first-stage request.
func CoreSchema() map[string]any {
	area := schemaObj(map[string]any{
		"name":            schemaStr(),
		"state":           schemaStr(),
		"reason":          schemaStr(),
		"fullDescription": schemaStr(),
		"imageUrl":        schemaNullable("string"),
		"demographics": schemaObj(map[string]any{
			"raceEthnicity": schemaObj(map[string]any{
				"white":    schemaInt(),
				"hispanic": schemaInt(),
				"asian":    schemaInt(),
				"black":    schemaInt(),
				"other":    schemaInt(),
			}, "white", "hispanic", "asian", "black", "other"),
			"incomeLevels": schemaObj(map[string]any{
				"perCapitaIncome":       schemaInt(),
				"medianHouseholdIncome": schemaInt(),
			}, "perCapitaIncome", "medianHouseholdIncome"),
			"crimeData": schemaObj(map[string]any{
				"numberOfCrimes":   crimeCountsSchema(),
				"crimeRatePer1000": crimeCountsSchema(),
			}, "numberOfCrimes", "crimeRatePer1000"),
		}, "raceEthnicity", "incomeLevels", "crimeData"),
		"placesOfInterest": schemaArr(schemaStr()),
		"lifestyleTags":    schemaArr(schemaStr()),
	}, "name", "state", "reason", "fullDescription", "demographics", "placesOfInterest", "lifestyleTags")

	return schemaObj(map[string]any{
		"recommendedAreas": schemaArr(area),
		"propertySuggestion": schemaObj(map[string]any{
			"fullDescription": schemaStr(),
			"type":            schemaStr(),
			"idealFor":        schemaStr(),
			"priceRange":      schemaStr(),
		}, "fullDescription", "type", "idealFor", "priceRange"),
	}, "recommendedAreas", "propertySuggestion")
}

// AreaDetailsSchema is the json_schema constraint for the per-area request.
func AreaDetailsSchema() map[string]any {
	place := schemaObj(map[string]any{
		"name":            schemaStr(),
		"description":     schemaStr(),
		"fullDescription": schemaStr(),
		"imageUrl":        schemaNullable("string"),
		"website":         schemaNullable("string"),
		"direction":       schemaStr(),
	}, "name", "description", "fullDescription", "direction")

	category := schemaObj(map[string]any{
		"items":   schemaArr(place),
		"summary": schemaArr(schemaStr()),
	}, "items", "summary")

	property := schemaObj(map[string]any{
		"address":         schemaStr(),
		"price":           schemaStr(),
		"description":     schemaStr(),
		"fullDescription": schemaStr(),
		"imageUrls":       schemaArr(schemaStr()),
		"details": schemaObj(map[string]any{
			"type":          schemaStr(),
			"builtYear":     schemaInt(),
			"lotSizeSqFt":   schemaInt(),
			"parkingSpaces": schemaInt(),
			"inUnitLaundry": schemaBool(),
			"district":      schemaStr(),
		}, "type", "builtYear", "lotSizeSqFt", "parkingSpaces", "inUnitLaundry", "district"),
	}, "address", "price", "description", "fullDescription", "imageUrls", "details")

	props := map[string]any{
		"name": schemaStr(),
		"properties": schemaObj(map[string]any{
			"items":   schemaArr(property),
			"summary": schemaStr(),
		}, "items", "summary"),
	}
	required := []string{"name", "properties"}
	for _, key := range []string{
		"schools", "socialLife", "shopping", "greenSpaces", "sports",
		"transportation", "family", "restaurants", "pets", "hobbies",
	} {
		props[key] = category
		required = append(required, key)
	}
	return schemaObj(props, required...)
}
