package notify

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBell struct {
	rung int
	err  error
}

func (b *fakeBell) Bell(percent int8) error {
	if b.err != nil {
		return b.err
	}
	b.rung++
	return nil
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "DISPLAY1 is running at 75Hz, expected 60Hz", Message("DISPLAY1", 75, 60))
}

func TestDesktopWarnRunsNotifySend(t *testing.T) {
	var gotName string
	var gotArgs []string
	d := NewDesktop(WithRunner(func(name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}))

	require.NoError(t, d.Warn("DP-1", "LG 27GL850", 75, 60))
	assert.Equal(t, "notify-send", gotName)
	assert.Equal(t, "LG 27GL850 is running at 75Hz, expected 60Hz", gotArgs[len(gotArgs)-1])
}

func TestDesktopBeep(t *testing.T) {
	tests := []struct {
		name         string
		bell         *fakeBell
		wantRung     int
		wantTerminal string
	}{
		{"display bell", &fakeBell{}, 1, ""},
		{"falls back to terminal", &fakeBell{err: errors.New("no X")}, 0, "\a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var term bytes.Buffer
			d := NewDesktop(WithBell(tt.bell), WithTerminal(&term))

			require.NoError(t, d.Beep())
			assert.Equal(t, tt.wantRung, tt.bell.rung)
			assert.Equal(t, tt.wantTerminal, term.String())
		})
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(zerolog.New(&buf))

	require.NoError(t, l.Warn("HDMI-1", "Dell U2720Q", 30, 60))
	require.NoError(t, l.Beep())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"device":"HDMI-1"`)
	assert.Contains(t, lines[0], "Dell U2720Q is running at 30Hz, expected 60Hz")
}

func TestMultiCallsEverySink(t *testing.T) {
	failing := NewDesktop(WithRunner(func(string, ...string) error { return errors.New("boom") }))
	var buf bytes.Buffer
	logSink := NewLog(zerolog.New(&buf))

	err := Multi{failing, logSink}.Warn("DP-1", "DP-1", 75, 60)
	assert.EqualError(t, err, "boom")
	assert.Contains(t, buf.String(), "DP-1")
}
