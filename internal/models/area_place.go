package models

import "time"

// AreaPlace is one point of interest inside an area, stored per category
// (schools, shopping, restaurants, ...). ImageURL and ImageGallery are the
// only fields mutated after creation: the enrichment worker upgrades them
// in place as photo lookups complete.
type AreaPlace struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AreaID          int64      `gorm:"not null;index:idx_place_area_cat,priority:1" json:"area_id"`
	Category        string     `gorm:"type:varchar(30);not null;index:idx_place_area_cat,priority:2" json:"category"`
	Position        int        `gorm:"not null" json:"position"`
	Name            string     `gorm:"type:varchar(255);not null" json:"name"`
	Description     string     `gorm:"type:text" json:"description"`
	FullDescription string     `gorm:"type:text" json:"full_description"`
	ImageURL        string     `gorm:"type:text" json:"image_url"`
	ImageGallery    StringList `gorm:"type:json" json:"image_gallery"`
	Website         string     `gorm:"type:text" json:"website,omitempty"`
	Direction       string     `gorm:"type:text" json:"direction"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AreaPlace) TableName() string {
	return "area_places"
}

// AreaCategorySummary stores the three-bullet summary for one category of one
// area. Properties use a single summary string instead (see ListingProperty).
type AreaCategorySummary struct {
	ID       int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AreaID   int64      `gorm:"not null;index:idx_summary_area" json:"area_id"`
	Category string     `gorm:"type:varchar(30);not null" json:"category"`
	Bullets  StringList `gorm:"type:json" json:"bullets"`
}

func (AreaCategorySummary) TableName() string {
	return "area_category_summaries"
}
