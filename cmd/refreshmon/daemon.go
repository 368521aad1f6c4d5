package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/refreshmon/refreshmon/internal/autostart"
	"github.com/refreshmon/refreshmon/internal/config"
	"github.com/refreshmon/refreshmon/internal/daemon"
	"github.com/refreshmon/refreshmon/internal/logging"
	"github.com/refreshmon/refreshmon/internal/web"
)

const daemonChildEnv = "REFRESHMON_DAEMON_CHILD"

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the monitor in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return errors.Wrap(err, "failed to check daemon status")
			}
			if running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}

			if os.Getenv(daemonChildEnv) != "1" {
				if cfg.Daemon.Autostart {
					registerAutostart()
				}
				return daemonize(cfg)
			}

			logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				logging.SetOutput(logFile)
				defer logFile.Close()
			}
			return runForeground(cfg, dm)
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			if running, pid, _ := dm.IsRunning(); running {
				return fmt.Errorf("daemon is already running (PID: %d)", pid)
			}
			return runForeground(cfg, dm)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.Daemon.PIDFile)
			running, pid, err := dm.IsRunning()
			if err != nil {
				return errors.Wrap(err, "failed to check daemon status")
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(10 * time.Second); err != nil {
				return errors.Wrap(err, "failed to stop daemon")
			}
			fmt.Println("Daemon stopped successfully")
			return nil
		},
	}
}

// runForeground runs the monitor and the web API until SIGINT or SIGTERM
func runForeground(cfg *config.Config, dm *daemon.Daemon) error {
	logger := logging.GetSubsystemLogger("daemon")

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	a.pruneHistory()

	logger.Info().Str("backend", a.backend.Name()).Msg("display backend initialized")

	if err := dm.WritePID(); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	defer dm.RemovePID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(cfg.WebAddr(), a.monitor, a.reporter, *logging.GetDefaultLogger())
		go func() {
			if err := webServer.Start(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("web server error")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info().Msg("received shutdown signal")
		a.monitor.Stop()
	}()

	logger.Info().Msgf("starting %s %s", appName, version)
	logger.Debug().Msg(cfg.String())

	if err := a.monitor.Start(ctx); err != nil && err != context.Canceled {
		return errors.Wrap(err, "monitor error")
	}

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("web server shutdown error")
		}
	}

	logger.Info().Msg("daemon stopped successfully")
	return nil
}

func daemonize(cfg *config.Config) error {
	env := append(os.Environ(), daemonChildEnv+"=1")

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true,
		},
	}

	executable, err := os.Executable()
	if err != nil {
		executable = os.Args[0]
	}

	process, err := os.StartProcess(executable, os.Args, procAttr)
	if err != nil {
		return errors.Wrap(err, "failed to start daemon process")
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	if cfg.Web.Enabled {
		fmt.Printf("Web API available at: http://%s\n", cfg.WebAddr())
	}
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)

	return process.Release()
}

// registerAutostart installs the login autostart entry. Failures only warn.
func registerAutostart() {
	executable, err := os.Executable()
	if err != nil {
		return
	}
	entry, err := autostart.New("", executable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: autostart: %v\n", err)
		return
	}
	if changed, err := entry.Install(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: autostart: %v\n", err)
	} else if changed {
		fmt.Printf("Registered for autostart: %s\n", entry.Path())
	}
}
