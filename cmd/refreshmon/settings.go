package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refreshmon/refreshmon/internal/config"
	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/internal/ui"
	"github.com/refreshmon/refreshmon/internal/web"
)

// settingsTarget is either the running daemon or an in-process monitor
type settingsTarget interface {
	OpenSettings() (*monitor.SettingsView, error)
	ApplySettings(view *monitor.SettingsView, edits map[string]int) error
	UpdateGlobal(settings models.GlobalSettings) error
}

// remoteSettings applies edits through the daemon, which validates them
// against its own fresh enumeration.
type remoteSettings struct {
	client *web.Client
}

func (r remoteSettings) OpenSettings() (*monitor.SettingsView, error) {
	return r.client.Settings(context.Background())
}

func (r remoteSettings) ApplySettings(_ *monitor.SettingsView, edits map[string]int) error {
	return r.client.UpdateSettings(context.Background(), web.SettingsUpdate{Preferences: edits})
}

func (r remoteSettings) UpdateGlobal(settings models.GlobalSettings) error {
	return r.client.UpdateSettings(context.Background(), web.SettingsUpdate{
		AlertThreshold: &settings.AlertThreshold,
		AlertSound:     &settings.AlertSound,
	})
}

// openSettingsTarget returns the target and a cleanup func
func openSettingsTarget(cfg *config.Config) (settingsTarget, func(), error) {
	client, err := daemonClient(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		return remoteSettings{client: client}, func() {}, nil
	}
	a, err := newApp(cfg, false)
	if err != nil {
		return nil, nil, err
	}
	return a.monitor, a.Close, nil
}

func newSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Choose the preferred refresh rate of each display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			target, cleanup, err := openSettingsTarget(cfg)
			if err != nil {
				return explainError(err)
			}
			defer cleanup()

			view, err := target.OpenSettings()
			if err != nil {
				return explainError(err)
			}

			form := ui.NewSettingsForm(view)
			if err := form.Form().Run(); err != nil {
				return err
			}

			if err := target.ApplySettings(view, form.Edits()); err != nil {
				return explainError(err)
			}
			if form.GlobalChanged() {
				global, err := form.Global()
				if err != nil {
					return err
				}
				if err := target.UpdateGlobal(global); err != nil {
					return err
				}
			}

			fmt.Println("Settings saved.")
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "set DEVICE=RATE...",
		Short:   "Set the preferred refresh rate of one or more displays",
		Example: "  refreshmon set DP-1=144 HDMI-1=60",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseEdits(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			target, cleanup, err := openSettingsTarget(cfg)
			if err != nil {
				return explainError(err)
			}
			defer cleanup()

			view, err := target.OpenSettings()
			if err != nil {
				return explainError(err)
			}
			if err := target.ApplySettings(view, edits); err != nil {
				return explainError(err)
			}

			ids := make([]string, 0, len(edits))
			for id := range edits {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("%s: %d Hz\n", id, edits[id])
			}
			return nil
		},
	}
}

// parseEdits parses DEVICE=RATE arguments
func parseEdits(args []string) (map[string]int, error) {
	edits := make(map[string]int, len(args))
	for _, arg := range args {
		id, rateStr, ok := strings.Cut(arg, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid argument %q, expected DEVICE=RATE", arg)
		}
		rate, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(rateStr), "Hz"))
		if err != nil || rate <= 0 {
			return nil, fmt.Errorf("invalid rate in %q", arg)
		}
		if _, dup := edits[id]; dup {
			return nil, fmt.Errorf("device %s given more than once", id)
		}
		edits[id] = rate
	}
	return edits, nil
}

func newAlertsCmd() *cobra.Command {
	var sound bool
	var threshold int

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Show or change the global alert settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			target, cleanup, err := openSettingsTarget(cfg)
			if err != nil {
				return explainError(err)
			}
			defer cleanup()

			view, err := target.OpenSettings()
			if err != nil {
				return explainError(err)
			}
			settings := view.Settings

			changed := false
			if cmd.Flags().Changed("sound") {
				settings.AlertSound = sound
				changed = true
			}
			if cmd.Flags().Changed("threshold") {
				if threshold <= 0 {
					return fmt.Errorf("threshold must be positive, got %d", threshold)
				}
				settings.AlertThreshold = threshold
				changed = true
			}

			if changed {
				if err := target.UpdateGlobal(settings); err != nil {
					return err
				}
			}

			state := "off"
			if settings.AlertSound {
				state = "on"
			}
			fmt.Printf("Default rate: %d Hz\nAlert sound:  %s\n", settings.AlertThreshold, state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sound, "sound", true, "Beep on deviation (--sound=false to mute)")
	cmd.Flags().IntVar(&threshold, "threshold", 0, "Expected rate for displays without a preference")
	return cmd
}
