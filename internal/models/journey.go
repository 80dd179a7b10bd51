package models

import "time"

// Journey is one recommendation run requested by a user. At most one journey
// per user may be RUNNING at any time; the orchestrator enforces this.
type Journey struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64      `gorm:"not null;index:idx_journey_user" json:"user_id"`
	Label          string     `gorm:"type:varchar(255)" json:"label,omitempty"`
	SelectedState  string     `gorm:"type:varchar(100)" json:"selected_state,omitempty"`
	SelectedCities StringList `gorm:"type:json" json:"selected_cities"`
	Inputs         string     `gorm:"type:text" json:"inputs,omitempty"` // raw profile overrides as submitted
	Status         string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_journey_status" json:"status"`
	LastError      string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

func (Journey) TableName() string {
	return "journeys"
}

// Journey status constants
const (
	JourneyStatusPending   = "PENDING"
	JourneyStatusRunning   = "RUNNING"
	JourneyStatusCompleted = "COMPLETED"
	JourneyStatusCancelled = "CANCELLED"
)

// IsTerminal reports whether the journey reached a final state.
func (j *Journey) IsTerminal() bool {
	return j.Status == JourneyStatusCompleted || j.Status == JourneyStatusCancelled
}
