package models

import "time"

// OperationStat accumulates how often each studio operation has run.
// Increments are buffered in Redis and flushed here in batches.
type OperationStat struct {
	Operation string    `gorm:"type:varchar(32);primaryKey" json:"operation"`
	TotalRuns int64     `gorm:"not null;default:0" json:"total_runs"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
