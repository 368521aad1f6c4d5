package display

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a device ID is not among the active outputs
var ErrNotFound = errors.New("display device not found")

// EnumerationError reports a failed query for a single device. The device is
// skipped and the remaining devices are still reported.
type EnumerationError struct {
	DeviceID string
	Err      error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate %s: %v", e.DeviceID, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}

// BackendUnavailableError is returned when no active device could be found at all
type BackendUnavailableError struct {
	Backend string
	Err     error
}

func (e *BackendUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend unavailable: %v", e.Backend, e.Err)
	}
	return fmt.Sprintf("%s backend reported no active display devices", e.Backend)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// IsBackendUnavailable reports whether err is, or wraps, a BackendUnavailableError
func IsBackendUnavailable(err error) bool {
	var target *BackendUnavailableError
	return errors.As(err, &target)
}
