package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/refreshmon/refreshmon/internal/autostart"
)

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting the monitor at login",
	}

	entry := func() (*autostart.Entry, error) {
		executable, err := os.Executable()
		if err != nil {
			return nil, err
		}
		return autostart.New("", executable)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Start the monitor at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			if _, err := e.Install(); err != nil {
				return err
			}
			fmt.Printf("Installed %s\n", e.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "Stop starting the monitor at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			if err := e.Remove(); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", e.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether the monitor starts at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			if e.IsInstalled() {
				fmt.Printf("Enabled (%s)\n", e.Path())
			} else {
				fmt.Println("Disabled")
			}
			return nil
		},
	})

	return cmd
}
