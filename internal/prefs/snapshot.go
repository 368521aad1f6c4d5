package prefs

import (
	"github.com/refreshmon/refreshmon/internal/models"
)

// Snapshot is an immutable copy of the store contents
type Snapshot struct {
	Preferences map[string]int        `json:"preferences"`
	Settings    models.GlobalSettings `json:"settings"`
}

// PreferredRate returns the device's entry, or the global alert threshold
// when the device has none.
func (s Snapshot) PreferredRate(deviceID string) int {
	if rate, ok := s.Preferences[deviceID]; ok {
		return rate
	}
	return s.Settings.AlertThreshold
}

// HasPreference reports whether the device has an explicit entry
func (s Snapshot) HasPreference(deviceID string) bool {
	_, ok := s.Preferences[deviceID]
	return ok
}

func copyPreferences(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
