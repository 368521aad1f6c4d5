package display

import (
	"sync"

	"github.com/pkg/errors"
)

// StaticBackend is an in-memory Backend. It backs the "fake" display server
// used for headless runs and is the fixture for package tests.
type StaticBackend struct {
	mu      sync.Mutex
	outputs []Output
	current map[string]Mode
	modes   map[string][]Mode
	failing map[string]error
}

// NewStaticBackend creates an empty StaticBackend
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{
		current: make(map[string]Mode),
		modes:   make(map[string][]Mode),
		failing: make(map[string]error),
	}
}

// AddOutput registers an output with its supported rates and current rate.
// A current rate of 0 leaves the current mode unreadable.
func (b *StaticBackend) AddOutput(id, label string, current int, rates ...int) *StaticBackend {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.outputs = append(b.outputs, Output{ID: id, Label: label})
	modes := make([]Mode, 0, len(rates))
	for _, r := range rates {
		modes = append(modes, Mode{Width: 1920, Height: 1080, RefreshHz: r})
	}
	b.modes[id] = modes
	if current > 0 {
		b.current[id] = Mode{Width: 1920, Height: 1080, RefreshHz: current}
	}
	return b
}

// SetCurrent changes the current refresh rate of an output
func (b *StaticBackend) SetCurrent(id string, rate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current[id] = Mode{Width: 1920, Height: 1080, RefreshHz: rate}
}

// Fail makes every mode query for id return err; a nil err clears it
func (b *StaticBackend) Fail(id string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.failing, id)
		return
	}
	b.failing[id] = err
}

// Name returns "fake"
func (b *StaticBackend) Name() string {
	return "fake"
}

// IsAvailable always returns true
func (b *StaticBackend) IsAvailable() bool {
	return true
}

// Outputs returns the registered outputs
func (b *StaticBackend) Outputs() ([]Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Output, len(b.outputs))
	copy(out, b.outputs)
	return out, nil
}

// CurrentMode returns the current mode of id
func (b *StaticBackend) CurrentMode(id string) (Mode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.failing[id]; ok {
		return Mode{}, err
	}
	m, ok := b.current[id]
	if !ok {
		return Mode{}, errors.Errorf("no current mode for %s", id)
	}
	return m, nil
}

// Modes returns the modes of id
func (b *StaticBackend) Modes(id string) ([]Mode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.failing[id]; ok {
		return nil, err
	}
	m, ok := b.modes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]Mode, len(m))
	copy(out, m)
	return out, nil
}

// Close is a no-op
func (b *StaticBackend) Close() error {
	return nil
}
