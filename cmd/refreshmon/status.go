package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refreshmon/refreshmon/internal/logging"
	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show every display with its current and expected refresh rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, clientErr := daemonClient(cmd.Context(), cfg)
			if clientErr != nil {
				// read only, so a local sample is still accurate
				logging.GetDefaultLogger().Warn().Err(clientErr).Msg("showing local status")
			}

			var status *monitor.Status
			daemonRunning := client != nil
			if client != nil {
				status, err = client.Status(cmd.Context())
			} else {
				a, appErr := newApp(cfg, true)
				if appErr != nil {
					return explainError(appErr)
				}
				defer a.Close()
				status, err = a.monitor.Status()
				if err == nil && status.LastCheck.IsZero() {
					status.LastCheck = a.lastRecordedCheck()
				}
			}
			if err != nil {
				return explainError(err)
			}

			if asJSON {
				return printJSON(status)
			}
			fmt.Println(ui.RenderStatus(status, daemonRunning))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var asJSON, last bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all displays now and alert on deviations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client, err := daemonClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			var result *monitor.CheckResult
			if last {
				if client == nil {
					return fmt.Errorf("--last needs a running daemon")
				}
				result, err = client.LastCheck(cmd.Context())
			} else if client != nil {
				result, err = client.Check(cmd.Context())
			} else {
				a, appErr := newApp(cfg, true)
				if appErr != nil {
					return explainError(appErr)
				}
				defer a.Close()
				result, err = a.monitor.CheckNow(cmd.Context())
			}
			if err != nil {
				return explainError(err)
			}

			if asJSON {
				return printJSON(result)
			}
			fmt.Println(ui.RenderCheck(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&last, "last", false, "Show the daemon's latest check instead of running one")
	return cmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
