package utils

import (
	"fmt"
	"time"
)

// FormatRoundedUnit renders a duration in its largest whole unit: 45s, 3m, 2h
func FormatRoundedUnit(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = -seconds
	}
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds >= 3600 {
		return fmt.Sprintf("%dh", seconds/3600)
	}
	return fmt.Sprintf("%dm", seconds/60)
}

// FormatAgo renders how long ago t was, relative to now
func FormatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return FormatRoundedUnit(now.Sub(t)) + " ago"
}
