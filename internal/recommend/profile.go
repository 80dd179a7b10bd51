package recommend

import (
	"encoding/json"
	"fmt"
	"strings"

	"relocation-advisor/internal/models"
)

// MergeProfileForJourney builds the profile a run generates against: the
// user's base record overlaid with the journey's selected state, cities and
// submitted inputs. Journey values win over the stored profile.
func MergeProfileForJourney(user *models.User, base *models.UserProfile, journey *models.Journey) (*models.UserProfile, error) {
	profile := models.UserProfile{}
	if base != nil {
		profile = *base
	}

	profile.Name = user.Name
	profile.Email = user.Email
	profile.Phone = user.Phone
	profile.CountryCode = user.CountryCode
	if profile.State == "" {
		profile.State = user.State
	}
	if len(profile.City) == 0 {
		profile.City = user.City
	}

	if journey.SelectedState != "" {
		profile.State = journey.SelectedState
	}
	if len(journey.SelectedCities) > 0 {
		profile.City = journey.SelectedCities
	}

	if journey.Inputs != "" {
		// Inputs are stored exactly as submitted; a malformed journey
		// fails here, before any external call is made.
		dec := json.NewDecoder(strings.NewReader(journey.Inputs))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&profile); err != nil {
			return nil, fmt.Errorf("parse journey inputs: %w", err)
		}
	}

	return &profile, nil
}
