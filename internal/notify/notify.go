// Package notify provides the alert sinks used by the monitor.
package notify

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const bellPercent = 100

// Message formats the visual warning for a deviating device
func Message(label string, currentRate, expectedRate int) string {
	return fmt.Sprintf("%s is running at %dHz, expected %dHz", label, currentRate, expectedRate)
}

// Log writes alerts to a zerolog logger
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a sink logging at warn level
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *Log) Warn(deviceID, label string, currentRate, expectedRate int) error {
	l.logger.Warn().
		Str("device", deviceID).
		Int("current_hz", currentRate).
		Int("expected_hz", expectedRate).
		Msg(Message(label, currentRate, expectedRate))
	return nil
}

func (l *Log) Beep() error {
	l.logger.Info().Msg("alert sound")
	return nil
}

// Runner runs an external command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s: %s", name, string(out))
	}
	return nil
}

// Beller rings the display bell
type Beller interface {
	Bell(percent int8) error
}

// Desktop shows warnings as desktop notifications and beeps through the
// display bell, falling back to a terminal BEL.
type Desktop struct {
	run       Runner
	bell      Beller // optional
	terminal  io.Writer
	hasNotify bool
}

// DesktopOption customizes a Desktop sink
type DesktopOption func(*Desktop)

// WithRunner replaces the command runner
func WithRunner(run Runner) DesktopOption {
	return func(d *Desktop) {
		d.run = run
		d.hasNotify = true
	}
}

// WithBell sets the bell used for Beep
func WithBell(b Beller) DesktopOption {
	return func(d *Desktop) { d.bell = b }
}

// WithTerminal sets where the fallback BEL is written
func WithTerminal(w io.Writer) DesktopOption {
	return func(d *Desktop) { d.terminal = w }
}

// NewDesktop creates a desktop sink
func NewDesktop(opts ...DesktopOption) *Desktop {
	_, err := exec.LookPath("notify-send")
	d := &Desktop{
		run:       execRunner,
		terminal:  os.Stdout,
		hasNotify: err == nil,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Desktop) Warn(_, label string, currentRate, expectedRate int) error {
	if !d.hasNotify {
		return errors.New("notify-send not found")
	}
	return d.run("notify-send",
		"--urgency=critical",
		"--app-name=refreshmon",
		"Refresh rate warning",
		Message(label, currentRate, expectedRate),
	)
}

func (d *Desktop) Beep() error {
	if d.bell != nil {
		if err := d.bell.Bell(bellPercent); err == nil {
			return nil
		}
	}
	if d.terminal == nil {
		return errors.New("no bell available")
	}
	if _, err := d.terminal.Write([]byte{'\a'}); err != nil {
		return errors.Wrap(err, "write terminal bell")
	}
	return nil
}

// Multi fans every call out to all sinks. All sinks are called; the first
// error is returned.
type Multi []Sink

// Sink matches monitor.NotificationSink
type Sink interface {
	Warn(deviceID, label string, currentRate, expectedRate int) error
	Beep() error
}

func (m Multi) Warn(deviceID, label string, currentRate, expectedRate int) error {
	var first error
	for _, s := range m {
		if err := s.Warn(deviceID, label, currentRate, expectedRate); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Beep() error {
	var first error
	for _, s := range m {
		if err := s.Beep(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
