package recommend

import "errors"

var (
	// ErrConflict signals another run is already active for the user.
	ErrConflict = errors.New("another recommendation run is already in progress")
	// ErrJourneyState signals the journey is not in a runnable state.
	ErrJourneyState = errors.New("journey is not in a runnable state")
)
