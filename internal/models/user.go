package models

import "time"

type User struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email       string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Name        string     `gorm:"type:varchar(255)" json:"name,omitempty"`
	Phone       string     `gorm:"type:varchar(50)" json:"phone,omitempty"`
	CountryCode string     `gorm:"type:varchar(10)" json:"country_code,omitempty"`
	State       string     `gorm:"type:varchar(100)" json:"state,omitempty"`
	City        StringList `gorm:"type:json" json:"city,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
