package places

import (
	"reflect"
	"testing"
)

func testFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := NewFilter(
		[]string{"bank", "insurance_agency", "store"},
		`(?i)\b(bank|insurance|llc|realty|office\s+space)\b`,
		[]string{"premise", "street_address", "subpremise"},
	)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	return f
}

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"St. Mary's School", "st mary's school"},
		{"  Joe & Co.  ", "joe & co"},
		{"Café—Luna!", "café luna"},
		{"Plain Name", "plain name"},
	}
	for _, c := range cases {
		if got := NormalizeQuery(c.in); got != c.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestQueryVariantsOrder(t *testing.T) {
	got := QueryVariants("St. Mary's School", "Riverside California", "school", ModePOI)
	want := []string{
		"St. Mary's School Riverside California",
		"St. Mary's School",
		"St. Mary's School school Riverside California",
		"st mary's school Riverside California",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("variants = %q, want %q", got, want)
	}
}

func TestQueryVariantsPropertyMode(t *testing.T) {
	got := QueryVariants("12 Elm St", "Riverside California", "premise", ModeProperty)
	if len(got) < 2 {
		t.Fatalf("too few variants: %q", got)
	}
	last2 := got[len(got)-2:]
	want := []string{
		"12 Elm St residence Riverside California",
		"12 Elm St home Riverside California",
	}
	if !reflect.DeepEqual(last2, want) {
		t.Errorf("property variants = %q, want %q", last2, want)
	}
}

func TestQueryVariantsDeduplicate(t *testing.T) {
	// No hints and an already-normalized name collapse to one variant.
	got := QueryVariants("downtown plaza", "", "", ModePOI)
	if len(got) != 1 || got[0] != "downtown plaza" {
		t.Errorf("variants = %q, want single entry", got)
	}
}

func TestAcceptModes(t *testing.T) {
	f := testFilter(t)

	// POI mode takes anything.
	if !f.Accept(ModePOI, "First National Bank", []string{"bank"}) {
		t.Error("poi mode should accept commercial candidates")
	}

	// Area mode drops commercial types and keyword matches.
	if f.Accept(ModeArea, "Riverside", []string{"bank", "locality"}) {
		t.Error("area mode accepted a bank type")
	}
	if f.Accept(ModeArea, "Riverside Realty Group", []string{"locality"}) {
		t.Error("area mode accepted a realty keyword name")
	}
	if !f.Accept(ModeArea, "Riverside", []string{"locality"}) {
		t.Error("area mode rejected a plain locality")
	}

	// Property mode needs an address-level hint on top of that.
	if f.Accept(ModeProperty, "12 Elm St", []string{"point_of_interest"}) {
		t.Error("property mode accepted a candidate without residential hints")
	}
	if !f.Accept(ModeProperty, "12 Elm St", []string{"premise", "point_of_interest"}) {
		t.Error("property mode rejected a premise")
	}
	if f.Accept(ModeProperty, "Elm Insurance Tower", []string{"premise"}) {
		t.Error("property mode accepted a commercial name")
	}
}

func TestCommercialText(t *testing.T) {
	f := testFilter(t)
	if !f.CommercialText("Spacious office space with parking, ideal for an LLC.") {
		t.Error("expected commercial text to match")
	}
	if f.CommercialText("Sunny three bedroom house with a fenced yard.") {
		t.Error("residential blurb flagged as commercial")
	}
}

func TestEnsurePreferred(t *testing.T) {
	const fallback = "https://images.unsplash.com/photo-1?fm=jpg"
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/house.jpg", "https://example.com/house.jpg"},
		{"https://example.com/house.PNG?w=800", "https://example.com/house.PNG?w=800"},
		{"https://images.unsplash.com/photo-2?auto=format&fm=jpg&q=80", "https://images.unsplash.com/photo-2?auto=format&fm=jpg&q=80"},
		{"https://lh3.googleusercontent.com/p/abc=w800", "https://lh3.googleusercontent.com/p/abc=w800"},
		{"https://example.com/listing/12-elm-st", fallback},
		{"http://example.com/insecure.jpg", fallback},
		{"", fallback},
	}
	for _, c := range cases {
		if got := EnsurePreferred(c.url, fallback); got != c.want {
			t.Errorf("EnsurePreferred(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
