package wayland

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/refreshmon/refreshmon/pkg/display"
)

// commandRunner executes a command and returns its stdout
type commandRunner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// outputState is one enabled output as reported by the compositor
type outputState struct {
	name    string
	label   string
	current display.Mode
	modes   []display.Mode
}

// Backend implements display.Backend for wlroots based compositors
type Backend struct {
	compositor  string
	hasSwaymsg  bool
	hasHyprctl  bool
	hasWlrRandr bool
	run         commandRunner
}

// NewBackend creates a new Wayland backend
func NewBackend() *Backend {
	b := &Backend{run: execRunner}
	b.hasSwaymsg = commandExists("swaymsg")
	b.hasHyprctl = commandExists("hyprctl")
	b.hasWlrRandr = commandExists("wlr-randr")
	b.compositor = detectCompositor()
	return b
}

// commandExists checks if a command is available in PATH
func commandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// detectCompositor identifies the running compositor from its session variables
func detectCompositor() string {
	switch {
	case os.Getenv("SWAYSOCK") != "":
		return "sway"
	case os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		return "hyprland"
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "sway"):
		return "sway"
	case strings.Contains(desktop, "hyprland"):
		return "hyprland"
	case desktop != "":
		return desktop
	}
	return "unknown"
}

// Name returns "wayland"
func (b *Backend) Name() string {
	return "wayland"
}

// IsAvailable checks if an output query tool for the compositor is installed
func (b *Backend) IsAvailable() bool {
	switch b.compositor {
	case "sway":
		return b.hasSwaymsg || b.hasWlrRandr
	case "hyprland":
		return b.hasHyprctl || b.hasWlrRandr
	default:
		return b.hasWlrRandr
	}
}

// Outputs returns the enabled outputs
func (b *Backend) Outputs() ([]display.Output, error) {
	states, err := b.query()
	if err != nil {
		return nil, err
	}
	outputs := make([]display.Output, 0, len(states))
	for _, st := range states {
		outputs = append(outputs, display.Output{ID: st.name, Label: st.label})
	}
	return outputs, nil
}

// CurrentMode returns the mode an output is currently driven at
func (b *Backend) CurrentMode(id string) (display.Mode, error) {
	st, err := b.find(id)
	if err != nil {
		return display.Mode{}, err
	}
	if st.current.RefreshHz <= 0 {
		return display.Mode{}, fmt.Errorf("compositor reported no current mode for %s", id)
	}
	return st.current, nil
}

// Modes returns the modes an output advertises
func (b *Backend) Modes(id string) ([]display.Mode, error) {
	st, err := b.find(id)
	if err != nil {
		return nil, err
	}
	return st.modes, nil
}

// Close is a no-op, every query runs a short lived process
func (b *Backend) Close() error {
	return nil
}

func (b *Backend) find(id string) (*outputState, error) {
	states, err := b.query()
	if err != nil {
		return nil, err
	}
	for i := range states {
		if states[i].name == id {
			return &states[i], nil
		}
	}
	return nil, display.ErrNotFound
}

func (b *Backend) query() ([]outputState, error) {
	switch {
	case b.compositor == "sway" && b.hasSwaymsg:
		out, err := b.run("swaymsg", "-t", "get_outputs", "-r")
		if err != nil {
			return nil, errors.Wrap(err, "failed to execute swaymsg")
		}
		return parseSwayOutputs(out)
	case b.compositor == "hyprland" && b.hasHyprctl:
		out, err := b.run("hyprctl", "monitors", "-j")
		if err != nil {
			return nil, errors.Wrap(err, "failed to execute hyprctl")
		}
		return parseHyprlandMonitors(out)
	case b.hasWlrRandr:
		out, err := b.run("wlr-randr", "--json")
		if err != nil {
			return nil, errors.Wrap(err, "failed to execute wlr-randr")
		}
		return parseWlrRandr(out)
	default:
		return nil, fmt.Errorf("unsupported wayland compositor: %s", b.compositor)
	}
}

type swayMode struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Refresh int `json:"refresh"` // mHz
}

type swayOutput struct {
	Name        string     `json:"name"`
	Make        string     `json:"make"`
	Model       string     `json:"model"`
	Active      bool       `json:"active"`
	CurrentMode *swayMode  `json:"current_mode"`
	Modes       []swayMode `json:"modes"`
}

// parseSwayOutputs decodes `swaymsg -t get_outputs -r`
func parseSwayOutputs(data []byte) ([]outputState, error) {
	var outputs []swayOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, errors.Wrap(err, "decode sway outputs")
	}

	var states []outputState
	for _, o := range outputs {
		if !o.Active {
			continue
		}
		st := outputState{name: o.Name, label: joinLabel(o.Make, o.Model)}
		if o.CurrentMode != nil {
			st.current = display.Mode{
				Width:     o.CurrentMode.Width,
				Height:    o.CurrentMode.Height,
				RefreshHz: display.RateFromMilliHz(o.CurrentMode.Refresh),
			}
		}
		for _, m := range o.Modes {
			st.modes = append(st.modes, display.Mode{
				Width:     m.Width,
				Height:    m.Height,
				RefreshHz: display.RateFromMilliHz(m.Refresh),
			})
		}
		states = append(states, st)
	}
	return states, nil
}

type hyprMonitor struct {
	Name           string   `json:"name"`
	Make           string   `json:"make"`
	Model          string   `json:"model"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	RefreshRate    float64  `json:"refreshRate"`
	Disabled       bool     `json:"disabled"`
	AvailableModes []string `json:"availableModes"`
}

// parseHyprlandMonitors decodes `hyprctl monitors -j`
func parseHyprlandMonitors(data []byte) ([]outputState, error) {
	var monitors []hyprMonitor
	if err := json.Unmarshal(data, &monitors); err != nil {
		return nil, errors.Wrap(err, "decode hyprland monitors")
	}

	var states []outputState
	for _, m := range monitors {
		if m.Disabled {
			continue
		}
		st := outputState{
			name:  m.Name,
			label: joinLabel(m.Make, m.Model),
			current: display.Mode{
				Width:     m.Width,
				Height:    m.Height,
				RefreshHz: display.RateFromHz(m.RefreshRate),
			},
		}
		for _, spec := range m.AvailableModes {
			if mode, ok := parseModeString(spec); ok {
				st.modes = append(st.modes, mode)
			}
		}
		states = append(states, st)
	}
	return states, nil
}

// parseModeString parses "1920x1080@59.94Hz"
func parseModeString(spec string) (display.Mode, bool) {
	res, rate, ok := strings.Cut(strings.TrimSuffix(strings.TrimSpace(spec), "Hz"), "@")
	if !ok {
		return display.Mode{}, false
	}
	w, h, ok := strings.Cut(res, "x")
	if !ok {
		return display.Mode{}, false
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return display.Mode{}, false
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return display.Mode{}, false
	}
	hz, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return display.Mode{}, false
	}
	return display.Mode{Width: width, Height: height, RefreshHz: display.RateFromHz(hz)}, true
}

type wlrMode struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Refresh float64 `json:"refresh"` // Hz
	Current bool    `json:"current"`
}

type wlrOutput struct {
	Name    string    `json:"name"`
	Make    string    `json:"make"`
	Model   string    `json:"model"`
	Enabled bool      `json:"enabled"`
	Modes   []wlrMode `json:"modes"`
}

// parseWlrRandr decodes `wlr-randr --json`
func parseWlrRandr(data []byte) ([]outputState, error) {
	var outputs []wlrOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, errors.Wrap(err, "decode wlr-randr outputs")
	}

	var states []outputState
	for _, o := range outputs {
		if !o.Enabled {
			continue
		}
		st := outputState{name: o.Name, label: joinLabel(o.Make, o.Model)}
		for _, m := range o.Modes {
			mode := display.Mode{Width: m.Width, Height: m.Height, RefreshHz: display.RateFromHz(m.Refresh)}
			st.modes = append(st.modes, mode)
			if m.Current {
				st.current = mode
			}
		}
		states = append(states, st)
	}
	return states, nil
}

func joinLabel(manufacturer, model string) string {
	return strings.TrimSpace(strings.TrimSpace(manufacturer) + " " + strings.TrimSpace(model))
}
