package autostart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autostart")
	e, err := New(dir, "/usr/local/bin/refreshmon")
	require.NoError(t, err)
	assert.False(t, e.IsInstalled())

	changed, err := e.Install()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, e.IsInstalled())

	data, err := os.ReadFile(filepath.Join(dir, "refreshmon.desktop"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exec=/usr/local/bin/refreshmon start\n")

	changed, err = e.Install()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, e.Remove())
	require.NoError(t, e.Remove())
	assert.False(t, e.IsInstalled())
}

func TestDefaultDirUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/autostart", dir)
}

func TestQuoteExec(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/usr/bin/refreshmon", "/usr/bin/refreshmon"},
		{"/home/a b/refreshmon", `"/home/a b/refreshmon"`},
		{`/opt/$x/refreshmon`, `"/opt/\$x/refreshmon"`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteExec(tt.in))
	}
}
