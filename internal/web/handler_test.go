package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refreshmon/refreshmon/internal/database"
	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/internal/notify"
	"github.com/refreshmon/refreshmon/internal/prefs"
	"github.com/refreshmon/refreshmon/internal/reporter"
	"github.com/refreshmon/refreshmon/pkg/display"
)

type testEnv struct {
	server  *httptest.Server
	client  *Client
	store   *prefs.Store
	backend *display.StaticBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	store, err := prefs.Open(filepath.Join(dir, "preferences.json"), zerolog.Nop())
	require.NoError(t, err)

	db, err := database.Connect(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { _ = db.Close() })
	repo := database.NewRepository(db)

	backend := display.NewStaticBackend().AddOutput("DISPLAY1", "", 75, 60, 75, 120)
	enum := display.NewEnumerator(backend, zerolog.Nop())
	mon := monitor.New(enum, store, notify.NewLog(zerolog.Nop()), zerolog.Nop(), monitor.Options{Recorder: repo})

	mux := http.NewServeMux()
	NewHandler(mon, reporter.New(repo), zerolog.Nop()).SetupRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testEnv{
		server:  srv,
		client:  NewClient(strings.TrimPrefix(srv.URL, "http://")),
		store:   store,
		backend: backend,
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.True(t, env.client.Ping(context.Background()))
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, err := env.client.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Devices, 1)
	assert.Equal(t, "DISPLAY1", status.Devices[0].ID)
	assert.True(t, status.Devices[0].Deviating)
	assert.Equal(t, time.Minute, status.Interval)
}

func TestCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.client.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, 75, result.Events[0].CurrentRate)
	assert.Equal(t, 60, result.Events[0].ExpectedRate)

	history, err := env.client.History(context.Background(), "day", 10, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, history.TotalRuns)
	assert.EqualValues(t, 1, history.RunsWithAlerts)
	assert.Nil(t, history.Errors)
}

func TestLastCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.client.LastCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no check has completed yet")

	ran, err := env.client.Check(ctx)
	require.NoError(t, err)

	last, err := env.client.LastCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, ran.Trigger, last.Trigger)
	require.Len(t, last.Events, 1)
	assert.Equal(t, "DISPLAY1", last.Events[0].DeviceID)
}

func TestHistoryEndpointWithErrors(t *testing.T) {
	env := newTestEnv(t)
	env.backend.AddOutput("DISPLAY2", "", 60, 60)
	env.backend.Fail("DISPLAY2", assert.AnError)

	result, err := env.client.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Devices, 1)
	require.Len(t, result.Errors, 1)

	history, err := env.client.History(context.Background(), "day", 10, true)
	require.NoError(t, err)
	require.Len(t, history.Errors, 1)
	assert.Equal(t, "enumeration", history.Errors[0].Kind)
	assert.Equal(t, "DISPLAY2", history.Errors[0].DeviceID)
	assert.EqualValues(t, 1, history.TotalRuns)
}

func TestCheckEndpointBackendUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Fail("DISPLAY1", assert.AnError)

	resp, err := http.Post(env.server.URL+"/api/check", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.client.Settings(ctx)
	require.NoError(t, err)
	require.Len(t, view.Devices, 1)
	assert.Equal(t, []int{60, 75, 120}, view.Devices[0].SupportedRates)

	sound := false
	require.NoError(t, env.client.UpdateSettings(ctx, SettingsUpdate{
		Preferences: map[string]int{"DISPLAY1": 75},
		AlertSound:  &sound,
	}))

	snap := env.store.Snapshot()
	assert.Equal(t, 75, snap.PreferredRate("DISPLAY1"))
	assert.False(t, snap.Settings.AlertSound)

	result, err := env.client.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Events)
}

func TestSettingsRejectsUnsupportedRate(t *testing.T) {
	env := newTestEnv(t)
	before := env.store.Snapshot()

	err := env.client.UpdateSettings(context.Background(), SettingsUpdate{
		Preferences: map[string]int{"DISPLAY1": 144},
	})
	require.Error(t, err)

	var invalid *monitor.InvalidRateError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "DISPLAY1", invalid.DeviceID)
	assert.Equal(t, 144, invalid.Rate)
	assert.Equal(t, []int{60, 75, 120}, invalid.Supported)

	assert.Equal(t, before, env.store.Snapshot())
}

func TestSettingsBadBody(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"unknown field", `{"rates":{}}`},
		{"zero threshold", `{"alert_threshold":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/settings", strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var er ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
			assert.NotEmpty(t, er.Error)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/check", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.client.Check(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
