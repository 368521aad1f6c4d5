package monitor

import (
	"time"

	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/pkg/display"
)

// PreferenceSource resolves the preferred rate of a device
type PreferenceSource interface {
	PreferredRate(deviceID string) int
}

// Detect compares each sampled device against its preferred rate and returns
// one event per mismatch, in sample order. Devices whose current rate is
// unknown are not evaluated. Detect keeps no state between calls.
func Detect(samples []display.Device, prefs PreferenceSource, now time.Time) []models.DeviationEvent {
	var events []models.DeviationEvent
	for _, dev := range samples {
		if dev.CurrentRate <= 0 {
			continue
		}
		expected := prefs.PreferredRate(dev.ID)
		if dev.CurrentRate == expected {
			continue
		}
		events = append(events, models.DeviationEvent{
			DeviceID:     dev.ID,
			Label:        dev.Label,
			CurrentRate:  dev.CurrentRate,
			ExpectedRate: expected,
			Timestamp:    now,
		})
	}
	return events
}
