package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFileLifecycle(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "run", "refreshmon.pid"))

	pid, err := d.ReadPID()
	require.NoError(t, err)
	assert.Zero(t, pid)

	require.NoError(t, d.WritePID())

	running, pid, err := d.IsRunning()
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, d.RemovePID())
	require.NoError(t, d.RemovePID())

	running, _, err = d.IsRunning()
	require.NoError(t, err)
	assert.False(t, running)
}

func TestInvalidPIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refreshmon.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	_, err := New(path).ReadPID()
	assert.Error(t, err)
}

func TestStopWithoutDaemon(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "refreshmon.pid"))
	assert.ErrorIs(t, d.Stop(0), ErrNotRunning)
}
