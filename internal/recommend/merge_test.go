package recommend

import (
	"testing"

	"relocation-advisor/internal/llm"
)

func TestNormalizeAreaName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Río Grande District", "rio grande"},
		{"rio grande", "rio grande"},
		{"  Oakdale   Neighborhood ", "oakdale"},
		{"São Paulo", "sao paulo"},
		{"Downtown", "downtown"},
	}
	for _, c := range cases {
		if got := NormalizeAreaName(c.in); got != c.want {
			t.Errorf("NormalizeAreaName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func coreWith(names ...string) *llm.CoreResult {
	core := &llm.CoreResult{}
	for _, n := range names {
		core.RecommendedAreas = append(core.RecommendedAreas, llm.CoreArea{Name: n, State: "California"})
	}
	return core
}

func detailsNamed(name string) *llm.AreaDetails {
	return &llm.AreaDetails{Name: name}
}

func TestMergeJoinsByNormalizedName(t *testing.T) {
	core := coreWith("Río Grande", "Oakdale", "Maple Hill")
	details := []*llm.AreaDetails{
		detailsNamed("Maple Hill"),
		detailsNamed("Rio Grande District"),
		detailsNamed("Oakdale Neighborhood"),
	}

	areas := Merge(core, details)
	if len(areas) != 3 {
		t.Fatalf("got %d areas, want 3", len(areas))
	}
	if areas[0].Details != details[1] {
		t.Error("Río Grande did not join its detail record")
	}
	if areas[1].Details != details[2] {
		t.Error("Oakdale did not join its detail record")
	}
	if areas[2].Details != details[0] {
		t.Error("Maple Hill did not join its detail record")
	}
	for i, a := range areas {
		if a.Position != i {
			t.Errorf("area %d has position %d", i, a.Position)
		}
	}
}

func TestMergeDuplicateNamesUseEachDetailOnce(t *testing.T) {
	core := coreWith("Riverside", "Oakdale", "Riverside")
	details := []*llm.AreaDetails{
		detailsNamed("Riverside"),
		detailsNamed("Oakdale"),
		detailsNamed("Riverside"),
	}

	areas := Merge(core, details)
	if areas[0].Details != details[0] {
		t.Error("first Riverside should take the first Riverside detail")
	}
	if areas[2].Details != details[2] {
		t.Error("second Riverside should take the remaining Riverside detail")
	}
	if areas[0].Details == areas[2].Details {
		t.Error("a detail record was joined twice")
	}
}

func TestMergePositionalFallback(t *testing.T) {
	core := coreWith("Riverside", "Oakdale", "Maple Hill")
	details := []*llm.AreaDetails{
		detailsNamed("Riverside"),
		detailsNamed("Oak Dale Heights"), // name drifted
		detailsNamed("Maple Hill"),
	}

	areas := Merge(core, details)
	if areas[1].Details != details[1] {
		t.Error("drifted detail should land on its positional slot")
	}
}

func TestMergeMissingDetailGetsEmptyCategories(t *testing.T) {
	core := coreWith("Riverside", "Oakdale", "Maple Hill")
	details := []*llm.AreaDetails{
		detailsNamed("Riverside"),
		nil,
		detailsNamed("Maple Hill"),
	}

	areas := Merge(core, details)
	if areas[1].Details == nil {
		t.Fatal("area without a detail record must get an empty details record")
	}
	if got := areas[1].Details.Name; got != "Oakdale" {
		t.Errorf("synthesized details carry name %q, want the area name", got)
	}
	if n := len(areas[1].Details.Properties.Items); n != 0 {
		t.Errorf("synthesized details have %d properties, want 0", n)
	}
	if areas[0].Details == nil || areas[2].Details == nil {
		t.Error("matched areas lost their details")
	}
}

func TestMergeClaimedPositionalSlotStillGetsDetails(t *testing.T) {
	// The first detail's name drifted onto another area, which claims it by
	// name; the drifted slot must not come out with nil details.
	core := coreWith("Riverside", "Oakdale")
	details := []*llm.AreaDetails{
		detailsNamed("Oakdale"),
		detailsNamed("Oakdale"),
	}

	areas := Merge(core, details)
	if areas[1].Details != details[0] {
		t.Error("Oakdale should claim the first detail carrying its name")
	}
	if areas[0].Details == nil {
		t.Fatal("Riverside must get an empty details record, not nil")
	}
	if len(areas[0].Details.Properties.Items) != 0 {
		t.Error("Riverside's synthesized details should start empty")
	}
}
