package models

import "time"

// MaintenanceLog records one cleanup/maintenance run for the admin API.
type MaintenanceLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind           string    `gorm:"type:varchar(50);not null" json:"kind"` // stale_journeys, stale_jobs, job_purge, cache_sweep
	AffectedCount  int       `gorm:"not null" json:"affected_count"`
	Note           string    `gorm:"type:text" json:"note,omitempty"`
	ExecutedAt     time.Time `gorm:"not null;index:idx_maintenance_at,sort:desc" json:"executed_at"`
	DurationMillis int64     `json:"duration_millis"`
}

func (MaintenanceLog) TableName() string {
	return "maintenance_logs"
}
