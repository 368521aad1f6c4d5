package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/prefs"
	"github.com/refreshmon/refreshmon/pkg/display"
)

const DefaultInterval = 60 * time.Second

// Recorder keeps a history of completed cycles and their errors
type Recorder interface {
	CreateCheckRun(run *models.CheckRun) error
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// Options tunes a Monitor
type Options struct {
	Interval       time.Duration
	SuppressWindow time.Duration
	Recorder       Recorder         // optional
	Now            func() time.Time // defaults to time.Now
}

// CheckResult is the outcome of one detection cycle
type CheckResult struct {
	Trigger   string                  `json:"trigger"`
	Backend   string                  `json:"backend"`
	Timestamp time.Time               `json:"timestamp"`
	Devices   []display.Device        `json:"devices"`
	Events    []models.DeviationEvent `json:"events"`
	Errors    []string                `json:"errors,omitempty"`
	Duration  time.Duration           `json:"duration"`
}

// DeviceStatus is the state of one active device
type DeviceStatus struct {
	ID             string `json:"id"`
	Label          string `json:"label,omitempty"`
	CurrentRate    int    `json:"current_rate"`
	PreferredRate  int    `json:"preferred_rate"`
	Explicit       bool   `json:"explicit"`
	SupportedRates []int  `json:"supported_rates"`
	Deviating      bool   `json:"deviating"`
}

// Status describes the monitor and the devices it last sampled
type Status struct {
	Backend   string                `json:"backend"`
	State     string                `json:"state"`
	Interval  time.Duration         `json:"interval"`
	LastCheck time.Time             `json:"last_check"`
	Settings  models.GlobalSettings `json:"settings"`
	Devices   []DeviceStatus        `json:"devices"`
}

// Monitor wires the enumerator, preference store, dispatcher, scheduler and
// reconciler together and exposes the operator operations.
type Monitor struct {
	enum       *display.Enumerator
	store      *prefs.Store
	dispatcher *Dispatcher
	scheduler  *Scheduler
	reconciler *Reconciler
	recorder   Recorder
	logger     zerolog.Logger
	now        func() time.Time

	mu          sync.RWMutex
	last        *CheckResult // status cache, dropped on settings changes
	latest      *CheckResult
	lastCheck   time.Time
	unavailable bool
}

// New creates a Monitor
func New(enum *display.Enumerator, store *prefs.Store, sink NotificationSink, logger zerolog.Logger, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Monitor{
		enum:     enum,
		store:    store,
		recorder: opts.Recorder,
		logger:   logger.With().Str("component", "monitor").Logger(),
		now:      opts.Now,
	}
	m.dispatcher = NewDispatcher(sink, logger, opts.SuppressWindow)
	m.scheduler = NewScheduler(opts.Interval, m.runCycle, logger)
	m.reconciler = NewReconciler(store, m.invalidate)
	return m
}

// Start runs the periodic checks until Stop is called or ctx ends
func (m *Monitor) Start(ctx context.Context) error {
	return m.scheduler.Run(ctx)
}

// Stop ends the periodic checks after the cycle in flight, if any
func (m *Monitor) Stop() {
	m.scheduler.Stop()
}

// Close stops the scheduler and flushes the preference store
func (m *Monitor) Close() error {
	m.Stop()
	if err := m.store.Flush(); err != nil {
		return errors.Wrap(err, "flush preferences")
	}
	return nil
}

// CheckNow runs a manual check. It returns ErrCycleInProgress when a cycle is
// already running.
func (m *Monitor) CheckNow(ctx context.Context) (*CheckResult, error) {
	return m.scheduler.Trigger(ctx, models.TriggerManual)
}

func (m *Monitor) runCycle(ctx context.Context, trigger string) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := m.now()
	sample, err := m.enum.Sample()
	if err != nil {
		m.backendUnavailable(err)
		return nil, err
	}
	m.backendRecovered()

	result := &CheckResult{
		Trigger:   trigger,
		Backend:   sample.Backend,
		Timestamp: start,
		Devices:   sample.Devices,
	}

	for _, sampleErr := range sample.Errors {
		enumerationErrorsTotal.Inc()
		result.Errors = append(result.Errors, sampleErr.Error())
		m.recordError("enumeration", deviceOf(sampleErr), sampleErr)
	}

	snap := m.store.Snapshot()
	result.Events = Detect(sample.Devices, snap, start)

	dispatched := m.dispatcher.Dispatch(result.Events, snap.Settings)
	for _, notifyErr := range dispatched.Errors {
		result.Errors = append(result.Errors, notifyErr.Error())
		m.recordError("notify", "", notifyErr)
	}

	for _, dev := range sample.Devices {
		if dev.CurrentRate > 0 {
			displayRefreshRate.WithLabelValues(dev.ID).Set(float64(dev.CurrentRate))
		}
		displayPreferredRate.WithLabelValues(dev.ID).Set(float64(snap.PreferredRate(dev.ID)))
	}
	for _, ev := range result.Events {
		deviationsTotal.WithLabelValues(ev.DeviceID).Inc()
	}

	result.Duration = m.now().Sub(start)
	checkCyclesTotal.WithLabelValues(trigger).Inc()
	checkDurationSeconds.Observe(result.Duration.Seconds())

	m.mu.Lock()
	m.last = result
	m.latest = result
	m.lastCheck = start
	m.mu.Unlock()

	m.logger.Info().
		Str("trigger", trigger).
		Int("devices", len(result.Devices)).
		Int("deviations", len(result.Events)).
		Msg("check complete")

	if m.recorder != nil {
		run := &models.CheckRun{
			Timestamp:  start,
			Trigger:    trigger,
			Backend:    sample.Backend,
			Devices:    len(result.Devices),
			Deviations: len(result.Events),
			Errors:     len(result.Errors),
			DurationMs: result.Duration.Milliseconds(),
		}
		if err := m.recorder.CreateCheckRun(run); err != nil {
			m.logger.Error().Err(err).Msg("failed to record check")
		}
	}

	return result, nil
}

// backendUnavailable logs the first failure of an outage only
func (m *Monitor) backendUnavailable(err error) {
	backendUnavailableTotal.Inc()

	m.mu.Lock()
	first := !m.unavailable
	m.unavailable = true
	m.mu.Unlock()

	if first {
		m.logger.Error().Err(err).Msg("no active display devices, will retry next period")
		m.recordError("backend", "", err)
	}
}

func (m *Monitor) backendRecovered() {
	m.mu.Lock()
	was := m.unavailable
	m.unavailable = false
	m.mu.Unlock()

	if was {
		m.logger.Info().Msg("display devices available again")
	}
}

func (m *Monitor) recordError(kind, deviceID string, err error) {
	if m.recorder == nil {
		return
	}
	entry := &models.ErrorLog{
		Timestamp: m.now(),
		Kind:      kind,
		DeviceID:  deviceID,
		ErrorMsg:  err.Error(),
	}
	if dbErr := m.recorder.CreateErrorLog(entry); dbErr != nil {
		m.logger.Error().Err(dbErr).AnErr("original", err).Msg("failed to store error")
	}
}

func deviceOf(err error) string {
	var enumErr *display.EnumerationError
	if errors.As(err, &enumErr) {
		return enumErr.DeviceID
	}
	return ""
}

// invalidate drops the cached sample so the next status reads fresh data
func (m *Monitor) invalidate() {
	m.mu.Lock()
	m.last = nil
	m.mu.Unlock()
}

// LastResult returns the most recent cycle result, or nil before the first
// cycle completes
func (m *Monitor) LastResult() *CheckResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Status reports every active device with its current and preferred rate.
// It uses the last cycle's sample when still valid and enumerates otherwise;
// it never raises alerts.
func (m *Monitor) Status() (*Status, error) {
	m.mu.RLock()
	last := m.last
	lastCheck := m.lastCheck
	m.mu.RUnlock()

	var devices []display.Device
	if last != nil {
		devices = last.Devices
	} else {
		sample, err := m.enum.Sample()
		if err != nil {
			return nil, err
		}
		devices = sample.Devices
	}

	snap := m.store.Snapshot()
	status := &Status{
		Backend:   m.enum.BackendName(),
		State:     m.scheduler.State(),
		Interval:  m.scheduler.Interval(),
		LastCheck: lastCheck,
		Settings:  snap.Settings,
	}
	for _, dev := range devices {
		preferred := snap.PreferredRate(dev.ID)
		status.Devices = append(status.Devices, DeviceStatus{
			ID:             dev.ID,
			Label:          dev.Label,
			CurrentRate:    dev.CurrentRate,
			PreferredRate:  preferred,
			Explicit:       snap.HasPreference(dev.ID),
			SupportedRates: dev.SupportedRates,
			Deviating:      dev.CurrentRate > 0 && dev.CurrentRate != preferred,
		})
	}
	return status, nil
}

// OpenSettings enumerates the devices and snapshots their supported rates
// for a settings session.
func (m *Monitor) OpenSettings() (*SettingsView, error) {
	sample, err := m.enum.Sample()
	if err != nil {
		return nil, err
	}

	snap := m.store.Snapshot()
	view := &SettingsView{Settings: snap.Settings, OpenedAt: m.now()}
	for _, dev := range sample.Devices {
		view.Devices = append(view.Devices, SettingsDevice{
			Device:        dev,
			PreferredRate: snap.PreferredRate(dev.ID),
			Explicit:      snap.HasPreference(dev.ID),
		})
	}
	return view, nil
}

// ApplySettings validates edits against view and saves them all or none
func (m *Monitor) ApplySettings(view *SettingsView, edits map[string]int) error {
	if err := m.reconciler.Apply(view, edits); err != nil {
		return err
	}
	m.logger.Info().Interface("edits", edits).Msg("preferred rates updated")
	return nil
}

// SetPreferred opens a fresh settings snapshot and applies edits against it
func (m *Monitor) SetPreferred(edits map[string]int) error {
	view, err := m.OpenSettings()
	if err != nil {
		return err
	}
	return m.ApplySettings(view, edits)
}

// UpdateGlobal replaces the global alert settings
func (m *Monitor) UpdateGlobal(settings models.GlobalSettings) error {
	if err := m.store.SetGlobal(settings); err != nil {
		return err
	}
	m.invalidate()
	m.logger.Info().
		Int("threshold", settings.AlertThreshold).
		Bool("sound", settings.AlertSound).
		Msg("alert settings updated")
	return nil
}

// Preferences returns a snapshot of the preference store
func (m *Monitor) Preferences() prefs.Snapshot {
	return m.store.Snapshot()
}
