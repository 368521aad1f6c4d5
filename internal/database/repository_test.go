package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refreshmon/refreshmon/internal/models"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := Connect(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { _ = db.Close() })

	return NewRepository(db)
}

func TestCheckRunHistory(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateCheckRun(&models.CheckRun{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Trigger:    models.TriggerTimer,
			Backend:    "fake",
			Devices:    2,
			Deviations: i,
		}))
	}

	runs, err := repo.GetRunsSince(base.Add(30 * time.Second))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 1, runs[0].Deviations)
	assert.Equal(t, 2, runs[1].Deviations)

	latest, err := repo.GetLatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Deviations)
}

func TestGetLatestRunEmpty(t *testing.T) {
	repo := newTestRepo(t)

	latest, err := repo.GetLatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestErrorLogAndClear(t *testing.T) {
	repo := newTestRepo(t)
	now := time.Now()

	require.NoError(t, repo.CreateErrorLog(&models.ErrorLog{
		Timestamp: now,
		Kind:      "enumeration",
		DeviceID:  "HDMI-1",
		ErrorMsg:  "mode query failed",
	}))
	require.NoError(t, repo.CreateCheckRun(&models.CheckRun{Timestamp: now, Trigger: models.TriggerManual, Backend: "fake"}))

	logs, err := repo.GetErrorsSince(now.Add(-time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "HDMI-1", logs[0].DeviceID)

	require.NoError(t, repo.Clear())

	logs, err = repo.GetErrorsSince(now.Add(-time.Minute), 0)
	require.NoError(t, err)
	assert.Empty(t, logs)

	runs, err := repo.GetRunsSince(now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRunsBefore(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateCheckRun(&models.CheckRun{Timestamp: base, Trigger: models.TriggerTimer, Backend: "fake"}))
	require.NoError(t, repo.CreateCheckRun(&models.CheckRun{Timestamp: base.Add(48 * time.Hour), Trigger: models.TriggerTimer, Backend: "fake"}))

	n, err := repo.DeleteRunsBefore(base.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	runs, err := repo.GetRunsSince(base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
