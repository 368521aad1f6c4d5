package monitor

import (
	"sort"
	"time"

	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/prefs"
	"github.com/refreshmon/refreshmon/pkg/display"
)

// SettingsDevice is one device as shown on the settings surface
type SettingsDevice struct {
	display.Device
	PreferredRate int  `json:"preferred_rate"`
	Explicit      bool `json:"explicit"` // PreferredRate comes from an entry, not the threshold
}

// SettingsView is the snapshot taken when the settings surface is opened.
// Edits are validated against it, not against later enumerations.
type SettingsView struct {
	Devices  []SettingsDevice      `json:"devices"`
	Settings models.GlobalSettings `json:"settings"`
	OpenedAt time.Time             `json:"opened_at"`
}

// Device returns the snapshot entry for id
func (v *SettingsView) Device(id string) (SettingsDevice, bool) {
	for _, d := range v.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return SettingsDevice{}, false
}

// DefaultSelection is the rate preselected for a device: its saved preference,
// or the lowest supported rate when it has none.
func (d SettingsDevice) DefaultSelection() int {
	if d.Explicit || len(d.SupportedRates) == 0 {
		return d.PreferredRate
	}
	return d.SupportedRates[0]
}

// Reconciler validates operator edits and applies them to the store
type Reconciler struct {
	store     *prefs.Store
	onApplied func()
}

// NewReconciler creates a reconciler. onApplied runs after every successful apply.
func NewReconciler(store *prefs.Store, onApplied func()) *Reconciler {
	return &Reconciler{store: store, onApplied: onApplied}
}

// Apply validates every edit against the view and, only if all are valid,
// merges them into the store and persists. On error nothing is applied.
func (r *Reconciler) Apply(view *SettingsView, edits map[string]int) error {
	ids := make([]string, 0, len(edits))
	for id := range edits {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rate := edits[id]
		dev, ok := view.Device(id)
		if !ok {
			return &InvalidRateError{DeviceID: id, Rate: rate}
		}
		if !dev.Supports(rate) {
			return &InvalidRateError{DeviceID: id, Rate: rate, Supported: append([]int(nil), dev.SupportedRates...)}
		}
	}

	if len(edits) == 0 {
		return nil
	}

	if err := r.store.Merge(edits); err != nil {
		return err
	}

	if r.onApplied != nil {
		r.onApplied()
	}
	return nil
}
