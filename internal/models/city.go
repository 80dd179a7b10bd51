package models

// City is one US city/state pair used by the autocomplete index.
type City struct {
	ID      string `json:"id"`
	City    string `json:"city"`
	StateID string `json:"state_id"`
}
