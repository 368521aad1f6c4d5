package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsystemLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	require.True(t, SetLevel("debug"))
	defer SetLevel("info")

	logger := GetSubsystemLogger("scheduler")
	logger.Info().Int("interval", 60).Msg("started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduler", entry["component"])
	assert.Equal(t, "started", entry["message"])
	assert.EqualValues(t, 60, entry["interval"])
}

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	assert.True(t, SetLevel("warn"))
	assert.Equal(t, zerolog.WarnLevel, GetDefaultLogger().GetLevel())

	assert.False(t, SetLevel("loud"))
	assert.False(t, SetLevel(""))
	assert.Equal(t, zerolog.WarnLevel, GetDefaultLogger().GetLevel())
}
