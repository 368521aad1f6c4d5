package display

// Output is an active display output as reported by a backend
type Output struct {
	ID    string // Stable output name, e.g. "DP-1" or "HDMI-A-1"
	Label string // Human readable name supplied by the display server, may be empty
}

// Mode is a single display mode of an output
type Mode struct {
	Width     int
	Height    int
	RefreshHz int // Vertical refresh rounded to whole Hz
}

// Device is one sampled display output. A fresh slice of devices is built
// on every enumeration and is owned by the caller.
type Device struct {
	ID             string `json:"id"`
	Label          string `json:"label,omitempty"`
	CurrentRate    int    `json:"current_rate"` // 0 when the current mode could not be read
	SupportedRates []int  `json:"supported_rates"`
}

// Name returns the label when present, otherwise the device ID
func (d Device) Name() string {
	if d.Label != "" {
		return d.Label
	}
	return d.ID
}

// Supports reports whether rate is one of the device's supported rates
func (d Device) Supports(rate int) bool {
	for _, r := range d.SupportedRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Backend is the interface every display server integration must satisfy.
// Implementations convert their wire structures into Output and Mode values
// and never leak them past this boundary.
type Backend interface {
	// Name returns the display server type ("x11" or "wayland")
	Name() string

	// IsAvailable checks if this backend can run on the current system
	IsAvailable() bool

	// Outputs returns the active outputs in display server order
	Outputs() ([]Output, error)

	// CurrentMode returns the mode the output is currently driven at
	CurrentMode(id string) (Mode, error)

	// Modes returns every mode the output advertises
	Modes(id string) ([]Mode, error)

	// Close cleans up any resources used by the backend
	Close() error
}
