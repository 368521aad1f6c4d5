package display

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Sample is the result of one enumeration pass
type Sample struct {
	Backend string
	Devices []Device
	Errors  []error // per-device *EnumerationError values, devices concerned are skipped
}

// Enumerator turns backend outputs and modes into Device values. It holds no
// state across calls.
type Enumerator struct {
	backend Backend
	logger  zerolog.Logger
}

// NewEnumerator creates an enumerator over the given backend
func NewEnumerator(backend Backend, logger zerolog.Logger) *Enumerator {
	return &Enumerator{
		backend: backend,
		logger:  logger.With().Str("component", "enumerator").Str("backend", backend.Name()).Logger(),
	}
}

// BackendName returns the name of the underlying display backend
func (e *Enumerator) BackendName() string {
	return e.backend.Name()
}

// Sample queries every active output. Failures on individual outputs are
// collected in Sample.Errors; a BackendUnavailableError is returned only when
// no device could be reported at all.
func (e *Enumerator) Sample() (*Sample, error) {
	outputs, err := e.backend.Outputs()
	if err != nil {
		return nil, &BackendUnavailableError{Backend: e.backend.Name(), Err: err}
	}

	sample := &Sample{Backend: e.backend.Name()}
	for _, out := range outputs {
		dev, devErr := e.describe(out)
		if devErr != nil {
			e.logger.Warn().Err(devErr).Str("device", out.ID).Msg("skipping display device")
			sample.Errors = append(sample.Errors, devErr)
			if dev == nil {
				continue
			}
		}
		sample.Devices = append(sample.Devices, *dev)
	}

	if len(sample.Devices) == 0 {
		var last error
		if len(sample.Errors) > 0 {
			last = sample.Errors[len(sample.Errors)-1]
		}
		return sample, &BackendUnavailableError{Backend: e.backend.Name(), Err: last}
	}

	return sample, nil
}

// describe builds a Device for out. A non-nil device may come back together
// with an error when only the current mode could not be read.
func (e *Enumerator) describe(out Output) (*Device, error) {
	modes, err := e.backend.Modes(out.ID)
	if err != nil {
		return nil, &EnumerationError{DeviceID: out.ID, Err: errors.Wrap(err, "query modes")}
	}

	dev := &Device{
		ID:             out.ID,
		Label:          out.Label,
		SupportedRates: UniqueRates(modes),
	}

	current, curErr := e.backend.CurrentMode(out.ID)
	if curErr == nil && current.RefreshHz > 0 {
		dev.CurrentRate = current.RefreshHz
	}

	if len(dev.SupportedRates) == 0 {
		if dev.CurrentRate == 0 {
			return nil, &EnumerationError{DeviceID: out.ID, Err: errors.New("no usable display modes")}
		}
		dev.SupportedRates = []int{dev.CurrentRate}
	}

	if curErr != nil {
		return dev, &EnumerationError{DeviceID: out.ID, Err: errors.Wrap(curErr, "query current mode")}
	}

	return dev, nil
}

// ListActiveDevices returns a fresh slice of the active devices in backend order
func (e *Enumerator) ListActiveDevices() ([]Device, error) {
	sample, err := e.Sample()
	if err != nil {
		return nil, err
	}
	return sample.Devices, nil
}

// CurrentRate returns the current refresh rate of a single device
func (e *Enumerator) CurrentRate(id string) (int, error) {
	if err := e.ensureActive(id); err != nil {
		return 0, err
	}

	mode, err := e.backend.CurrentMode(id)
	if err != nil {
		return 0, &EnumerationError{DeviceID: id, Err: err}
	}
	if mode.RefreshHz <= 0 {
		return 0, ErrNotFound
	}
	return mode.RefreshHz, nil
}

// SupportedRates returns the ascending, deduplicated refresh rates of a device
func (e *Enumerator) SupportedRates(id string) ([]int, error) {
	if err := e.ensureActive(id); err != nil {
		return nil, err
	}

	modes, err := e.backend.Modes(id)
	if err != nil {
		return nil, &EnumerationError{DeviceID: id, Err: err}
	}
	return UniqueRates(modes), nil
}

func (e *Enumerator) ensureActive(id string) error {
	outputs, err := e.backend.Outputs()
	if err != nil {
		return &BackendUnavailableError{Backend: e.backend.Name(), Err: err}
	}
	for _, out := range outputs {
		if out.ID == id {
			return nil
		}
	}
	return errors.Wrapf(ErrNotFound, "device %q", id)
}
