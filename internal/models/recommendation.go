package models

import "time"

type Recommendation struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;index:idx_reco_user" json:"user_id"`
	JourneyID int64     `gorm:"not null;index:idx_reco_journey" json:"journey_id"`
	RunID     string    `gorm:"type:varchar(36);not null" json:"run_id"` // correlates orchestrator and enrichment logs
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_reco_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// PropertySuggestion is the single purchase suggestion produced with the core
// generation pass.
type PropertySuggestion struct {
	ID               int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	RecommendationID int64  `gorm:"not null;uniqueIndex:idx_suggestion_reco" json:"recommendation_id"`
	Type             string `gorm:"type:varchar(50);not null" json:"type"`
	IdealFor         string `gorm:"type:varchar(255)" json:"ideal_for"`
	PriceRange       string `gorm:"type:varchar(100)" json:"price_range"`
	FullDescription  string `gorm:"type:text" json:"full_description"`
}

func (PropertySuggestion) TableName() string {
	return "property_suggestions"
}

type RecommendedArea struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecommendationID int64      `gorm:"not null;index:idx_area_reco" json:"recommendation_id"`
	Position         int        `gorm:"not null" json:"position"` // original generation order
	Name             string     `gorm:"type:varchar(255);not null" json:"name"`
	State            string     `gorm:"type:varchar(100)" json:"state"`
	Reason           string     `gorm:"type:text" json:"reason"`
	FullDescription  string     `gorm:"type:text" json:"full_description"`
	ImageURL         string     `gorm:"type:text" json:"image_url"`
	PlacesOfInterest StringList `gorm:"type:json" json:"places_of_interest"`
	LifestyleTags    StringList `gorm:"type:json" json:"lifestyle_tags"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (RecommendedArea) TableName() string {
	return "recommended_areas"
}

// AreaDemographics holds the integer demographic block for one area.
type AreaDemographics struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	AreaID int64 `gorm:"not null;uniqueIndex:idx_demo_area" json:"area_id"`

	White    int `json:"white"`
	Hispanic int `json:"hispanic"`
	Asian    int `json:"asian"`
	Black    int `json:"black"`
	Other    int `json:"other"`

	PerCapitaIncome       int `json:"per_capita_income"`
	MedianHouseholdIncome int `json:"median_household_income"`

	ViolentCrimes     int `json:"violent_crimes"`
	PropertyCrimes    int `json:"property_crimes"`
	TotalCrimes       int `json:"total_crimes"`
	ViolentRatePer1k  int `json:"violent_rate_per_1k"`
	PropertyRatePer1k int `json:"property_rate_per_1k"`
	TotalRatePer1k    int `json:"total_rate_per_1k"`
}

func (AreaDemographics) TableName() string {
	return "area_demographics"
}
