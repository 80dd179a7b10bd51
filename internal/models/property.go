package models

import "time"

// ListingProperty is one residential listing inside a recommended area.
// Type is always a member of the residential enumeration: non-residential
// listings are dropped before save and the list is padded with placeholders.
type ListingProperty struct {
	ID              int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AreaID          int64      `gorm:"not null;index:idx_property_area" json:"area_id"`
	Position        int        `gorm:"not null" json:"position"`
	Address         string     `gorm:"type:varchar(500);not null" json:"address"`
	Price           string     `gorm:"type:varchar(100)" json:"price"`
	Description     string     `gorm:"type:text" json:"description"`
	FullDescription string     `gorm:"type:text" json:"full_description"`
	ImageURLs       StringList `gorm:"type:json" json:"image_urls"`

	Type          string `gorm:"type:varchar(50);not null" json:"type"`
	BuiltYear     int    `json:"built_year"`
	LotSizeSqFt   int    `json:"lot_size_sq_ft"`
	ParkingSpaces int    `json:"parking_spaces"`
	InUnitLaundry bool   `json:"in_unit_laundry"`
	District      string `gorm:"type:varchar(255)" json:"district"`

	Placeholder bool `gorm:"not null;default:false" json:"placeholder"` // synthetic pad entry, not model output

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ListingProperty) TableName() string {
	return "listing_properties"
}

// PropertiesSummary is the free-text summary for an area's property list.
type PropertiesSummary struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	AreaID  int64  `gorm:"not null;uniqueIndex:idx_prop_summary_area" json:"area_id"`
	Summary string `gorm:"type:text" json:"summary"`
}

func (PropertiesSummary) TableName() string {
	return "area_properties_summaries"
}
