package reporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refreshmon/refreshmon/internal/models"
)

type stubRuns struct {
	runs        []*models.CheckRun
	errors      []*models.ErrorLog
	since       time.Time
	errorsLimit int
}

func (s *stubRuns) GetRunsSince(since time.Time) ([]*models.CheckRun, error) {
	s.since = since
	return s.runs, nil
}

func (s *stubRuns) GetErrorsSince(since time.Time, limit int) ([]*models.ErrorLog, error) {
	s.errorsLimit = limit
	return s.errors, nil
}

func TestGenerateHistory(t *testing.T) {
	now := time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC) // Wednesday
	src := &stubRuns{runs: []*models.CheckRun{
		{Timestamp: now.Add(-3 * time.Minute), Trigger: models.TriggerTimer, Deviations: 0},
		{Timestamp: now.Add(-2 * time.Minute), Trigger: models.TriggerTimer, Deviations: 2},
		{Timestamp: now.Add(-1 * time.Minute), Trigger: models.TriggerManual, Deviations: 1},
	}}
	r := New(src)
	r.now = func() time.Time { return now }

	history, err := r.GenerateHistory("day", 2, false)
	require.NoError(t, err)
	assert.Nil(t, history.Errors)

	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), src.since)
	assert.EqualValues(t, 3, history.TotalRuns)
	assert.EqualValues(t, 2, history.RunsWithAlerts)
	assert.EqualValues(t, 3, history.TotalDeviations)
	require.Len(t, history.Runs, 2)
	assert.Equal(t, models.TriggerManual, history.Runs[1].Trigger)
}

func TestGenerateHistoryWithErrors(t *testing.T) {
	now := time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		name   string
		errors []*models.ErrorLog
		want   int
	}{
		{"none logged", nil, 0},
		{"two logged", []*models.ErrorLog{
			{Timestamp: now.Add(-time.Minute), Kind: "enumeration", DeviceID: "DP-1", ErrorMsg: "no modes"},
			{Timestamp: now.Add(-2 * time.Minute), Kind: "backend", ErrorMsg: "X connection closed"},
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubRuns{errors: tt.errors}
			r := New(src)
			r.now = func() time.Time { return now }

			history, err := r.GenerateHistory("day", 5, true)
			require.NoError(t, err)
			require.NotNil(t, history.Errors)
			assert.Len(t, history.Errors, tt.want)
			assert.Equal(t, 5, src.errorsLimit)
		})
	}
}

func TestGetPeriod(t *testing.T) {
	now := time.Date(2024, 6, 16, 10, 0, 0, 0, time.UTC) // Sunday
	r := New(&stubRuns{})
	r.now = func() time.Time { return now }

	tests := []struct {
		period    string
		wantStart time.Time
		wantErr   bool
	}{
		{"day", time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), false},
		{"week", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), false},
		{"month", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"year", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			p, err := r.getPeriod(tt.period)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, p.Start)
		})
	}
}

func TestFormatHistoryText(t *testing.T) {
	empty := &models.History{Period: models.HistoryPeriod{Type: "day"}}
	assert.Contains(t, FormatHistoryText(empty), "No checks recorded")

	history := &models.History{
		Period:    models.HistoryPeriod{Type: "day"},
		TotalRuns: 1,
		Runs: []*models.CheckRun{
			{Timestamp: time.Now(), Trigger: models.TriggerManual, Backend: "wayland-sway", Devices: 2, Deviations: 1},
		},
	}
	text := FormatHistoryText(history)
	assert.Contains(t, text, "manual")
	assert.Contains(t, text, "wayland...")

	assert.NotContains(t, text, "Kind")

	js, err := FormatHistoryJSON(history)
	require.NoError(t, err)
	assert.Contains(t, js, `"total_runs": 1`)
	assert.NotContains(t, js, `"errors"`)

	history.Errors = []*models.ErrorLog{}
	assert.Contains(t, FormatHistoryText(history), "No errors recorded")

	history.Errors = []*models.ErrorLog{
		{Timestamp: time.Now(), Kind: "enumeration", DeviceID: "HDMI-1", ErrorMsg: "get output info 66: BadRROutput"},
	}
	text = FormatHistoryText(history)
	assert.Contains(t, text, "HDMI-1")
	assert.Contains(t, text, "BadRROutput")
}
