package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrCycleInProgress is returned when a check is requested while one is running.
// The request is dropped, not queued.
var ErrCycleInProgress = errors.New("a refresh rate check is already running")

// InvalidRateError rejects a settings edit whose rate the device does not support
type InvalidRateError struct {
	DeviceID  string
	Rate      int
	Supported []int // nil when the device was not part of the settings snapshot
}

func (e *InvalidRateError) Error() string {
	if e.Supported == nil {
		return fmt.Sprintf("device %s is not an active display, cannot set %dHz", e.DeviceID, e.Rate)
	}
	rates := make([]string, len(e.Supported))
	for i, r := range e.Supported {
		rates[i] = strconv.Itoa(r)
	}
	return fmt.Sprintf("device %s does not support %dHz (supported: %s)", e.DeviceID, e.Rate, strings.Join(rates, ", "))
}

// IsInvalidRate reports whether err is, or wraps, an InvalidRateError
func IsInvalidRate(err error) bool {
	var target *InvalidRateError
	return errors.As(err, &target)
}
