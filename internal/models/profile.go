package models

import "time"

// UserProfile is the merged, typed profile a journey runs against: the user's
// base record overlaid with the journey's selected state/cities and inputs.
// Optional fields stay empty rather than nil-bagged; it is serialized as-is
// into the generation prompts.
type UserProfile struct {
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	CountryCode string   `json:"countryCode,omitempty"`
	State       string   `json:"state,omitempty"`
	City        []string `json:"city,omitempty"`

	Environment    string   `json:"environment,omitempty"`
	Education1     []string `json:"education1,omitempty"`
	Education2     []string `json:"education2,omitempty"`
	Family         []string `json:"family,omitempty"`
	Employment1    []string `json:"employment1,omitempty"`
	Employment2    []string `json:"employment2,omitempty"`
	SocialLife     []string `json:"socialLife,omitempty"`
	Hobbies        []string `json:"hobbies,omitempty"`
	Transportation []string `json:"transportation,omitempty"`
	Pets           []string `json:"pets,omitempty"`
	GreenSpace     []string `json:"greenSpace,omitempty"`
	Shopping       []string `json:"shopping,omitempty"`
	Restaurants    []string `json:"restaurants,omitempty"`

	Occupancy        string `json:"occupancy,omitempty"`
	Property         string `json:"property,omitempty"`
	Timeframe        string `json:"timeframe,omitempty"`
	PriceRange       string `json:"priceRange,omitempty"`
	DownPayment      string `json:"downPayment,omitempty"`
	EmploymentStatus string `json:"employmentStatus,omitempty"`
	GrossAnnual      *int   `json:"grossAnnual,omitempty"`
	Credit           string `json:"credit,omitempty"`
}

// UserProfileSnapshot is the profile exactly as it entered a journey run,
// upserted by journey id before any external call is made.
type UserProfileSnapshot struct {
	ID        int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64 `gorm:"not null;index:idx_snapshot_user" json:"user_id"`
	JourneyID int64 `gorm:"not null;uniqueIndex:idx_snapshot_journey" json:"journey_id"`

	Name        string     `gorm:"type:varchar(255)" json:"name,omitempty"`
	Email       string     `gorm:"type:varchar(255)" json:"email,omitempty"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone,omitempty"`
	CountryCode string     `gorm:"type:varchar(10)" json:"country_code,omitempty"`
	State       string     `gorm:"type:varchar(100)" json:"state,omitempty"`
	City        StringList `gorm:"type:json" json:"city"`

	Environment    string     `gorm:"type:varchar(100)" json:"environment,omitempty"`
	Education1     StringList `gorm:"type:json" json:"education1"`
	Education2     StringList `gorm:"type:json" json:"education2"`
	Family         StringList `gorm:"type:json" json:"family"`
	Employment1    StringList `gorm:"type:json" json:"employment1"`
	Employment2    StringList `gorm:"type:json" json:"employment2"`
	SocialLife     StringList `gorm:"type:json" json:"social_life"`
	Hobbies        StringList `gorm:"type:json" json:"hobbies"`
	Transportation StringList `gorm:"type:json" json:"transportation"`
	Pets           StringList `gorm:"type:json" json:"pets"`
	GreenSpace     StringList `gorm:"type:json" json:"green_space"`
	Shopping       StringList `gorm:"type:json" json:"shopping"`
	Restaurants    StringList `gorm:"type:json" json:"restaurants"`

	Occupancy        string `gorm:"type:varchar(100)" json:"occupancy,omitempty"`
	Property         string `gorm:"type:varchar(100)" json:"property,omitempty"`
	Timeframe        string `gorm:"type:varchar(100)" json:"timeframe,omitempty"`
	PriceRange       string `gorm:"type:varchar(100)" json:"price_range,omitempty"`
	DownPayment      string `gorm:"type:varchar(100)" json:"down_payment,omitempty"`
	EmploymentStatus string `gorm:"type:varchar(100)" json:"employment_status,omitempty"`
	GrossAnnual      *int   `json:"gross_annual,omitempty"`
	Credit           string `gorm:"type:varchar(50)" json:"credit,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProfileSnapshot) TableName() string {
	return "user_profile_snapshots"
}

// ProfileChange records one field that differed from the user's previous
// journey snapshot. Written by the snapshot service during change detection.
type ProfileChange struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SnapshotID int64     `gorm:"not null;index:idx_change_snapshot" json:"snapshot_id"`
	UserID     int64     `gorm:"not null;index:idx_change_user" json:"user_id"`
	Field      string    `gorm:"type:varchar(50);not null" json:"field"`
	OldValue   string    `gorm:"type:text" json:"old_value"`
	NewValue   string    `gorm:"type:text" json:"new_value"`
	DetectedAt time.Time `gorm:"not null" json:"detected_at"`
}

func (ProfileChange) TableName() string {
	return "profile_changes"
}
