package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{name: "Wayland session", sessionType: "wayland", waylandDisplay: "wayland-0", expected: "wayland"},
		{name: "X11 session", sessionType: "x11", x11Display: ":0", expected: "x11"},
		{name: "Unknown session", expected: "unknown"},
		{name: "Wayland display set", waylandDisplay: "wayland-1", expected: "wayland"},
		{name: "X11 display set", x11Display: ":1", expected: "x11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			t.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			t.Setenv("DISPLAY", tt.x11Display)

			assert.Equal(t, tt.expected, DetectDisplayServer())
		})
	}
}

func TestNewStatic(t *testing.T) {
	b, err := NewStatic("DISPLAY1=75@60,75,120; HDMI-1=0@60")
	require.NoError(t, err)

	outputs, err := b.Outputs()
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "DISPLAY1", outputs[0].ID)

	mode, err := b.CurrentMode("DISPLAY1")
	require.NoError(t, err)
	assert.Equal(t, 75, mode.RefreshHz)

	_, err = b.CurrentMode("HDMI-1")
	assert.Error(t, err)
}

func TestNewStaticInvalid(t *testing.T) {
	for _, spec := range []string{"DP-1", "DP-1=60", "DP-1=x@60", "DP-1=60@0", "=60@60"} {
		t.Run(spec, func(t *testing.T) {
			_, err := NewStatic(spec)
			assert.Error(t, err)
		})
	}
}

func TestNewFake(t *testing.T) {
	t.Setenv(FakeOutputsEnv, "DP-1=60@60")

	b, err := New("fake")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "fake", b.Name())
}

func TestNewUnknown(t *testing.T) {
	_, err := New("quartz")
	assert.Error(t, err)
}

func TestNewWithUnsupportedSystem(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "")
	t.Setenv("WAYLAND_DISPLAY", "")
	t.Setenv("DISPLAY", "")

	b, err := New("auto")
	if err != nil {
		t.Logf("New() correctly returned error when no display server detected: %v", err)
		return
	}
	b.Close()
}
