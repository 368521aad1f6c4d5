package models

import "time"

const (
	DefaultAlertThreshold = 60
	DefaultAlertSound     = true
)

// GlobalSettings holds the alert settings that apply to every device
type GlobalSettings struct {
	AlertThreshold int  `json:"alert_threshold"` // Preferred rate for devices without an entry
	AlertSound     bool `json:"alert_sound"`
}

// DefaultGlobalSettings returns the settings used when storage is absent or corrupt
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		AlertThreshold: DefaultAlertThreshold,
		AlertSound:     DefaultAlertSound,
	}
}

// DeviationEvent is one device found running at a rate other than its preferred one
type DeviationEvent struct {
	DeviceID     string    `json:"device_id"`
	Label        string    `json:"label,omitempty"`
	CurrentRate  int       `json:"current_rate"`
	ExpectedRate int       `json:"expected_rate"`
	Timestamp    time.Time `json:"timestamp"`
}
