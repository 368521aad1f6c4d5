package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/monitor"
)

// SettingsForm edits the preferred rate of every device in a settings view
// plus the global alert settings.
type SettingsForm struct {
	view       *monitor.SettingsView
	selections map[string]*int
	threshold  string
	sound      bool
}

// NewSettingsForm preselects each device's saved preference, or its lowest
// supported rate when it has none.
func NewSettingsForm(view *monitor.SettingsView) *SettingsForm {
	f := &SettingsForm{
		view:       view,
		selections: make(map[string]*int, len(view.Devices)),
		threshold:  strconv.Itoa(view.Settings.AlertThreshold),
		sound:      view.Settings.AlertSound,
	}
	for _, dev := range view.Devices {
		rate := dev.DefaultSelection()
		f.selections[dev.ID] = &rate
	}
	return f
}

// Form builds the interactive huh form bound to f
func (f *SettingsForm) Form() *huh.Form {
	var deviceFields []huh.Field
	for _, dev := range f.view.Devices {
		options := make([]huh.Option[int], 0, len(dev.SupportedRates))
		for _, rate := range dev.SupportedRates {
			options = append(options, huh.NewOption(fmt.Sprintf("%d Hz", rate), rate))
		}
		deviceFields = append(deviceFields,
			huh.NewSelect[int]().
				Title(deviceTitle(dev)).
				Description(fmt.Sprintf("Currently running at %d Hz", dev.CurrentRate)).
				Key("device_"+dev.ID).
				Options(options...).
				Value(f.selections[dev.ID]),
		)
	}

	alertGroup := huh.NewGroup(
		huh.NewInput().
			Title("Default refresh rate").
			Description("Expected rate for devices without a saved preference.").
			Key("alert_threshold").
			Value(&f.threshold).
			Validate(validateThreshold),
		huh.NewConfirm().
			Title("Alert sound").
			Description("Beep when a display runs at an unexpected rate.").
			Key("alert_sound").
			Affirmative("On").
			Negative("Off").
			Value(&f.sound),
	)

	groups := []*huh.Group{}
	if len(deviceFields) > 0 {
		groups = append(groups, huh.NewGroup(deviceFields...).
			Title("Preferred refresh rates"))
	}
	groups = append(groups, alertGroup)

	return huh.NewForm(groups...)
}

// Edits returns the selected rate of every device
func (f *SettingsForm) Edits() map[string]int {
	edits := make(map[string]int, len(f.selections))
	for id, rate := range f.selections {
		edits[id] = *rate
	}
	return edits
}

// Select sets the selection of a device, as the form would
func (f *SettingsForm) Select(deviceID string, rate int) bool {
	sel, ok := f.selections[deviceID]
	if !ok {
		return false
	}
	*sel = rate
	return true
}

// Global returns the alert settings entered in the form
func (f *SettingsForm) Global() (models.GlobalSettings, error) {
	if err := validateThreshold(f.threshold); err != nil {
		return models.GlobalSettings{}, err
	}
	threshold, _ := strconv.Atoi(strings.TrimSpace(f.threshold))
	return models.GlobalSettings{AlertThreshold: threshold, AlertSound: f.sound}, nil
}

// GlobalChanged reports whether the alert settings differ from the view's
func (f *SettingsForm) GlobalChanged() bool {
	g, err := f.Global()
	return err == nil && g != f.view.Settings
}

func validateThreshold(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number of Hz")
	}
	return nil
}

func deviceTitle(dev monitor.SettingsDevice) string {
	if dev.Label != "" && dev.Label != dev.ID {
		return fmt.Sprintf("%s (%s)", dev.ID, dev.Label)
	}
	return dev.ID
}
