package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refreshmon/refreshmon/internal/database"
	"github.com/refreshmon/refreshmon/internal/models"
	"github.com/refreshmon/refreshmon/internal/reporter"
)

func newHistoryCmd() *cobra.Command {
	var (
		period   string
		limit    int
		asJSON     bool
		clearAll   bool
		withErrors bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled {
				return fmt.Errorf("check history is disabled")
			}

			client, clientErr := daemonClient(cmd.Context(), cfg)
			if clientErr != nil && clearAll {
				return clientErr
			}

			var history *models.History
			if client != nil && !clearAll {
				history, err = client.History(cmd.Context(), period, limit, withErrors)
			} else {
				db, dbErr := database.Connect(cfg.Database.Path)
				if dbErr != nil {
					return dbErr
				}
				defer db.Close()
				if err := db.Initialize(); err != nil {
					return err
				}
				repo := database.NewRepository(db)

				if clearAll {
					if err := repo.Clear(); err != nil {
						return err
					}
					fmt.Println("History cleared.")
					return nil
				}
				history, err = reporter.New(repo).GenerateHistory(period, limit, withErrors)
			}
			if err != nil {
				return err
			}

			if asJSON {
				out, err := reporter.FormatHistoryJSON(history)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}
			fmt.Print(reporter.FormatHistoryText(history))
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "day", "Period: day, week or month")
	cmd.Flags().IntVar(&limit, "limit", 20, "Most recent checks to list (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete the recorded history")
	cmd.Flags().BoolVar(&withErrors, "errors", false, "Also list enumeration and alert errors")
	return cmd
}
