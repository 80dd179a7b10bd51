package recommend

import "relocation-advisor/internal/llm"

// Area is one fully merged recommendation: the coarse first-stage record
// joined with its category details.
type Area struct {
	llm.CoreArea
	Position int
	Details  *llm.AreaDetails // empty record when the second stage produced nothing
	// PropertyPlaceholders parallels Details.Properties.Items; true marks
	// a synthetic pad entry added by residential enforcement.
	PropertyPlaceholders []bool
}

// CategorySpec describes how one place category maps onto image lookups.
type CategorySpec struct {
	// Key matches the field name in the generated details payload and the
	// category column in storage.
	Key string
	// FallbackKind selects the stock image used when no photo resolves.
	FallbackKind string
	// TypeHint biases the place text search. Empty means search by name.
	TypeHint string
}

// CategorySpecs lists the ten place categories in presentation order.
var CategorySpecs = []CategorySpec{
	{Key: "schools", FallbackKind: "school", TypeHint: "school"},
	{Key: "socialLife", FallbackKind: "social", TypeHint: "bar"},
	{Key: "shopping", FallbackKind: "shopping", TypeHint: "shopping_mall"},
	{Key: "greenSpaces", FallbackKind: "greens", TypeHint: "park"},
	{Key: "sports", FallbackKind: "sports", TypeHint: "stadium"},
	{Key: "transportation", FallbackKind: "transport", TypeHint: "transit_station"},
	{Key: "family", FallbackKind: "family", TypeHint: ""},
	{Key: "restaurants", FallbackKind: "restaurant", TypeHint: "restaurant"},
	{Key: "pets", FallbackKind: "pet", TypeHint: "pet_store"},
	{Key: "hobbies", FallbackKind: "hobby", TypeHint: ""},
}

func specFor(key string) CategorySpec {
	for _, s := range CategorySpecs {
		if s.Key == key {
			return s
		}
	}
	return CategorySpec{Key: key, FallbackKind: "area"}
}
