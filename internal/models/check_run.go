package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TriggerTimer  = "timer"
	TriggerManual = "manual"
)

// CheckRun records the outcome of one completed detection cycle
type CheckRun struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Timestamp  time.Time      `gorm:"not null;index" json:"timestamp"`
	Trigger    string         `gorm:"not null" json:"trigger"` // "timer" or "manual"
	Backend    string         `gorm:"not null" json:"backend"`
	Devices    int            `gorm:"not null;default:0" json:"devices"`
	Deviations int            `gorm:"not null;default:0" json:"deviations"`
	Errors     int            `gorm:"not null;default:0" json:"errors"`
	DurationMs int64          `gorm:"not null;default:0" json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// HistoryPeriod bounds a history report
type HistoryPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

// History summarises the check runs of a period
type History struct {
	Period          HistoryPeriod `json:"period"`
	Runs            []*CheckRun   `json:"runs"`
	TotalRuns       int64         `json:"total_runs"`
	RunsWithAlerts  int64         `json:"runs_with_alerts"`
	TotalDeviations int64         `json:"total_deviations"`
	Errors          []*ErrorLog   `json:"errors,omitempty"` // newest first, only when requested
	GeneratedAt     time.Time     `json:"generated_at"`
}
