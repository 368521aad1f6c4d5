package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refreshmon/refreshmon/internal/models"
)

func TestConnectCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "share", "history.db")

	db, err := Connect(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize())

	assert.FileExists(t, path)
	assert.Equal(t, path, db.Path())

	var mode string
	require.NoError(t, db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", mode)
}

func TestConnectMemory(t *testing.T) {
	db, err := Connect(MemoryPath)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Initialize())

	repo := NewRepository(db)
	require.NoError(t, repo.CreateCheckRun(&models.CheckRun{Timestamp: time.Now(), Trigger: models.TriggerManual, Backend: "fake"}))

	latest, err := repo.GetLatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, models.TriggerManual, latest.Trigger)
}

func TestTwoConnectionsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	writer, err := Connect(path)
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Initialize())

	reader, err := Connect(path)
	require.NoError(t, err)
	defer reader.Close()
	require.NoError(t, reader.Initialize())

	require.NoError(t, NewRepository(writer).CreateErrorLog(&models.ErrorLog{
		Timestamp: time.Now(), Kind: "enumeration", DeviceID: "DP-1", ErrorMsg: "no modes",
	}))

	logs, err := NewRepository(reader).GetErrorsSince(time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "DP-1", logs[0].DeviceID)
}
