package recommend

import (
	"reflect"
	"testing"

	"relocation-advisor/internal/models"
)

func TestMergeProfileJourneySelectionWins(t *testing.T) {
	user := &models.User{
		Name:  "Pat",
		Email: "pat@example.com",
		State: "Oregon",
		City:  models.StringList{"Portland"},
	}
	base := &models.UserProfile{
		State:       "Washington",
		City:        []string{"Seattle"},
		Environment: "suburban",
	}
	journey := &models.Journey{
		SelectedState:  "California",
		SelectedCities: models.StringList{"Riverside", "Irvine"},
	}

	profile, err := MergeProfileForJourney(user, base, journey)
	if err != nil {
		t.Fatalf("MergeProfileForJourney: %v", err)
	}
	if profile.State != "California" {
		t.Errorf("state = %q, want California", profile.State)
	}
	if !reflect.DeepEqual(profile.City, []string{"Riverside", "Irvine"}) {
		t.Errorf("cities = %v", profile.City)
	}
	if profile.Email != "pat@example.com" || profile.Name != "Pat" {
		t.Errorf("identity fields not overlaid: %+v", profile)
	}
	if profile.Environment != "suburban" {
		t.Errorf("base field lost: %q", profile.Environment)
	}
}

func TestMergeProfileDefaultsFromUser(t *testing.T) {
	user := &models.User{
		Email: "pat@example.com",
		State: "Oregon",
		City:  models.StringList{"Portland"},
	}

	profile, err := MergeProfileForJourney(user, nil, &models.Journey{})
	if err != nil {
		t.Fatalf("MergeProfileForJourney: %v", err)
	}
	if profile.State != "Oregon" {
		t.Errorf("state = %q, want user's state", profile.State)
	}
	if !reflect.DeepEqual(profile.City, []string{"Portland"}) {
		t.Errorf("cities = %v, want user's cities", profile.City)
	}
}

func TestMergeProfileParsesJourneyInputs(t *testing.T) {
	user := &models.User{Email: "pat@example.com"}
	journey := &models.Journey{
		Inputs: `{"environment":"urban","hobbies":["cycling","pottery"],"priceRange":"$400k-$600k"}`,
	}

	profile, err := MergeProfileForJourney(user, nil, journey)
	if err != nil {
		t.Fatalf("MergeProfileForJourney: %v", err)
	}
	if profile.Environment != "urban" {
		t.Errorf("environment = %q", profile.Environment)
	}
	if !reflect.DeepEqual(profile.Hobbies, []string{"cycling", "pottery"}) {
		t.Errorf("hobbies = %v", profile.Hobbies)
	}
	if profile.PriceRange != "$400k-$600k" {
		t.Errorf("priceRange = %q", profile.PriceRange)
	}
}

func TestMergeProfileRejectsUnknownInputKeys(t *testing.T) {
	user := &models.User{Email: "pat@example.com"}
	journey := &models.Journey{Inputs: `{"environmnt":"urban"}`}

	if _, err := MergeProfileForJourney(user, nil, journey); err == nil {
		t.Fatal("expected error for misspelled input key")
	}
}

func TestMergeProfileRejectsMalformedInputs(t *testing.T) {
	user := &models.User{Email: "pat@example.com"}
	journey := &models.Journey{Inputs: `{"environment":`}

	if _, err := MergeProfileForJourney(user, nil, journey); err == nil {
		t.Fatal("expected error for malformed inputs")
	}
}
