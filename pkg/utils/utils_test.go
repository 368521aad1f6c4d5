package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{-30 * time.Second, "30s"},
		{90 * time.Second, "1m"},
		{time.Hour, "1h"},
		{150 * time.Minute, "2h"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRoundedUnit(tt.in), tt.in.String())
	}
}

func TestFormatAgo(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "never", FormatAgo(time.Time{}, now))
	assert.Equal(t, "2m ago", FormatAgo(now.Add(-2*time.Minute), now))
}
