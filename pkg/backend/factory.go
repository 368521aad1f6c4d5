package backend

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/refreshmon/refreshmon/pkg/display"
	"github.com/refreshmon/refreshmon/pkg/integrations/wayland"
	"github.com/refreshmon/refreshmon/pkg/integrations/x11"
)

// FakeOutputsEnv holds the outputs of the "fake" backend, e.g.
// "DP-1=60@60,75,120;HDMI-1=144@60,144"
const FakeOutputsEnv = "REFRESHMON_FAKE_OUTPUTS"

// New returns the backend named by kind. An empty kind or "auto" picks the
// backend matching the current session.
func New(kind string) (display.Backend, error) {
	switch kind {
	case "", "auto":
		return detect()
	case "x11":
		b := x11.NewBackend()
		if !b.IsAvailable() {
			_, err := b.Outputs()
			return nil, fmt.Errorf("x11 backend unavailable: %w", err)
		}
		return b, nil
	case "wayland":
		b := wayland.NewBackend()
		if !b.IsAvailable() {
			return nil, fmt.Errorf("wayland backend unavailable (swaymsg, hyprctl or wlr-randr required)")
		}
		return b, nil
	case "fake":
		return NewStatic(os.Getenv(FakeOutputsEnv))
	default:
		return nil, fmt.Errorf("unknown display backend: %s (valid: auto, x11, wayland, fake)", kind)
	}
}

func detect() (display.Backend, error) {
	if DetectDisplayServer() == "wayland" {
		if b := wayland.NewBackend(); b.IsAvailable() {
			return b, nil
		}
	}

	// XWayland exposes RandR too, so X11 is the fallback for wayland sessions
	if os.Getenv("DISPLAY") != "" {
		b := x11.NewBackend()
		if b.IsAvailable() {
			return b, nil
		}
		_, err := b.Outputs()
		return nil, fmt.Errorf("no display backend available: %w", err)
	}

	return nil, fmt.Errorf("no display backend available: neither WAYLAND_DISPLAY nor DISPLAY is usable")
}

// DetectDisplayServer returns "wayland", "x11" or "unknown" from the session environment
func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}

// NewStatic builds a StaticBackend from a "ID=current@r1,r2;ID2=..." description
func NewStatic(spec string) (*display.StaticBackend, error) {
	b := display.NewStaticBackend()
	for _, entry := range strings.Split(spec, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, rest, ok := strings.Cut(entry, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid fake output %q: expected ID=current@rates", entry)
		}
		cur, list, ok := strings.Cut(rest, "@")
		if !ok {
			return nil, fmt.Errorf("invalid fake output %q: missing @rates", entry)
		}

		current, err := strconv.Atoi(cur)
		if err != nil || current < 0 {
			return nil, fmt.Errorf("invalid current rate in %q", entry)
		}

		var rates []int
		for _, r := range strings.Split(list, ",") {
			rate, err := strconv.Atoi(strings.TrimSpace(r))
			if err != nil || rate <= 0 {
				return nil, fmt.Errorf("invalid rate %q in %q", r, entry)
			}
			rates = append(rates, rate)
		}

		b.AddOutput(strings.TrimSpace(id), "", current, rates...)
	}
	return b, nil
}
