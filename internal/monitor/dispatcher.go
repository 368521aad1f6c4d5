package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/models"
)

// NotificationSink surfaces an alert to the operator
type NotificationSink interface {
	// Warn shows a visual warning for one deviating device. label is the
	// operator-facing name and is never empty.
	Warn(deviceID, label string, currentRate, expectedRate int) error

	// Beep plays the alert sound once
	Beep() error
}

// DispatchResult counts what a Dispatch call did
type DispatchResult struct {
	Warned     int
	Beeped     int
	Suppressed int
	Errors     []error
}

type alertKey struct {
	current  int
	expected int
	at       time.Time
}

// Dispatcher turns deviation events into sink calls: one warning per event
// and, when sound is enabled, one beep per event. By default every cycle
// re-alerts; a positive suppression window silences repeats of the same
// current/expected pair for a device until the window elapses or the device
// stops deviating.
type Dispatcher struct {
	sink           NotificationSink
	logger         zerolog.Logger
	suppressWindow time.Duration

	mu        sync.Mutex
	lastAlert map[string]alertKey
}

// NewDispatcher creates a dispatcher. suppressWindow <= 0 disables suppression.
func NewDispatcher(sink NotificationSink, logger zerolog.Logger, suppressWindow time.Duration) *Dispatcher {
	return &Dispatcher{
		sink:           sink,
		logger:         logger.With().Str("component", "dispatcher").Logger(),
		suppressWindow: suppressWindow,
		lastAlert:      make(map[string]alertKey),
	}
}

// Dispatch notifies the sink about every event. Sink failures are logged and
// returned in the result; they never stop the remaining events.
func (d *Dispatcher) Dispatch(events []models.DeviationEvent, settings models.GlobalSettings) DispatchResult {
	var result DispatchResult

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.suppressWindow > 0 {
		d.forgetResolved(events)
	}

	for _, ev := range events {
		if d.suppressed(ev) {
			result.Suppressed++
			alertsSuppressedTotal.Inc()
			d.logger.Debug().Str("device", ev.DeviceID).Msg("alert suppressed")
			continue
		}

		d.logger.Warn().
			Str("device", ev.DeviceID).
			Int("current_hz", ev.CurrentRate).
			Int("expected_hz", ev.ExpectedRate).
			Msg("refresh rate deviation")

		if err := d.sink.Warn(ev.DeviceID, displayName(ev), ev.CurrentRate, ev.ExpectedRate); err != nil {
			d.logger.Error().Err(err).Str("device", ev.DeviceID).Msg("failed to show warning")
			notifyErrorsTotal.Inc()
			result.Errors = append(result.Errors, err)
		} else {
			result.Warned++
		}

		if settings.AlertSound {
			if err := d.sink.Beep(); err != nil {
				d.logger.Error().Err(err).Str("device", ev.DeviceID).Msg("failed to play alert sound")
				notifyErrorsTotal.Inc()
				result.Errors = append(result.Errors, err)
			} else {
				result.Beeped++
			}
		}

		if d.suppressWindow > 0 {
			d.lastAlert[ev.DeviceID] = alertKey{current: ev.CurrentRate, expected: ev.ExpectedRate, at: ev.Timestamp}
		}
	}

	return result
}

// displayName is the event's label, or its device ID when it has none
func displayName(ev models.DeviationEvent) string {
	if ev.Label != "" {
		return ev.Label
	}
	return ev.DeviceID
}

func (d *Dispatcher) suppressed(ev models.DeviationEvent) bool {
	if d.suppressWindow <= 0 {
		return false
	}
	last, ok := d.lastAlert[ev.DeviceID]
	if !ok || last.current != ev.CurrentRate || last.expected != ev.ExpectedRate {
		return false
	}
	return ev.Timestamp.Sub(last.at) < d.suppressWindow
}

// forgetResolved drops suppression state of devices that no longer deviate
func (d *Dispatcher) forgetResolved(events []models.DeviationEvent) {
	active := make(map[string]struct{}, len(events))
	for _, ev := range events {
		active[ev.DeviceID] = struct{}{}
	}
	for id := range d.lastAlert {
		if _, ok := active[id]; !ok {
			delete(d.lastAlert, id)
		}
	}
}
