package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/refreshmon/refreshmon/internal/config"
	"github.com/refreshmon/refreshmon/internal/daemon"
	"github.com/refreshmon/refreshmon/internal/database"
	"github.com/refreshmon/refreshmon/internal/logging"
	"github.com/refreshmon/refreshmon/internal/monitor"
	"github.com/refreshmon/refreshmon/internal/notify"
	"github.com/refreshmon/refreshmon/internal/prefs"
	"github.com/refreshmon/refreshmon/internal/reporter"
	"github.com/refreshmon/refreshmon/internal/web"
	"github.com/refreshmon/refreshmon/pkg/backend"
	"github.com/refreshmon/refreshmon/pkg/display"
)

// app holds the wired components of an in-process monitor
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	backend  display.Backend
	db       *database.DB
	repo     *database.Repository
	reporter *reporter.Reporter
	monitor  *monitor.Monitor
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	logging.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// newApp wires the monitor. withHistory opens the check history database.
func newApp(cfg *config.Config, withHistory bool) (*app, error) {
	logger := *logging.GetDefaultLogger()

	be, err := backend.New(cfg.Monitor.Backend)
	if err != nil {
		return nil, err
	}

	store, err := prefs.Open(cfg.Store.Path, logger)
	if err != nil {
		be.Close()
		return nil, errors.Wrap(err, "open preference store")
	}

	a := &app{cfg: cfg, logger: logger, backend: be}

	opts := monitor.Options{
		Interval:       cfg.Monitor.Interval,
		SuppressWindow: cfg.Monitor.SuppressWindow,
	}

	if withHistory && cfg.Database.Enabled {
		if err := a.openHistory(); err != nil {
			logger.Warn().Err(err).Msg("check history unavailable")
		} else {
			opts.Recorder = a.repo
		}
	}

	enum := display.NewEnumerator(be, logger)
	a.monitor = monitor.New(enum, store, newSink(cfg, be, logger), logger, opts)
	return a, nil
}

func (a *app) openHistory() error {
	db, err := database.Connect(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return err
	}
	a.db = db
	a.repo = database.NewRepository(db)
	a.reporter = reporter.New(a.repo)
	return nil
}

// lastRecordedCheck returns the time of the newest recorded check, or the
// zero time when history is off or empty.
func (a *app) lastRecordedCheck() time.Time {
	if a.repo == nil {
		return time.Time{}
	}
	run, err := a.repo.GetLatestRun()
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to read last check")
		return time.Time{}
	}
	if run == nil {
		return time.Time{}
	}
	return run.Timestamp
}

// pruneHistory drops check runs older than the configured retention
func (a *app) pruneHistory() {
	if a.repo == nil || a.cfg.Database.Retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-a.cfg.Database.Retention)
	n, err := a.repo.DeleteRunsBefore(cutoff)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to prune check history")
		return
	}
	if n > 0 {
		a.logger.Info().Int64("runs", n).Time("before", cutoff).Msg("pruned check history")
	}
}

func (a *app) Close() {
	if err := a.monitor.Close(); err != nil {
		a.logger.Error().Err(err).Msg("failed to close monitor")
	}
	if a.db != nil {
		a.db.Close()
	}
	a.backend.Close()
}

// newSink picks the alert sink. Alerts are always logged; the desktop sink
// rings the X bell when the backend can.
func newSink(cfg *config.Config, be display.Backend, logger zerolog.Logger) monitor.NotificationSink {
	logSink := notify.NewLog(logger)
	if !cfg.Notify.Desktop {
		return logSink
	}

	var opts []notify.DesktopOption
	if beller, ok := be.(notify.Beller); ok {
		opts = append(opts, notify.WithBell(beller))
	}
	return notify.Multi{notify.NewDesktop(opts...), logSink}
}

// errDaemonUnreachable means a daemon process is alive but cannot be driven
// over its web API. Editing the preference file behind its back is refused.
var errDaemonUnreachable = errors.New("daemon is running but its web API is unreachable")

// daemonClient returns a client for the running daemon, or nil when no
// daemon is running.
func daemonClient(ctx context.Context, cfg *config.Config) (*web.Client, error) {
	running, pid, err := daemon.New(cfg.Daemon.PIDFile).IsRunning()
	if err != nil || !running {
		return nil, nil
	}
	if !cfg.Web.Enabled {
		return nil, errors.Wrapf(errDaemonUnreachable, "pid %d, web API disabled (set REFRESHMON_WEB=true or stop the daemon)", pid)
	}
	client := web.NewClient(cfg.WebAddr())
	if !client.Ping(ctx) {
		return nil, errors.Wrapf(errDaemonUnreachable, "pid %d, no answer on %s", pid, cfg.WebAddr())
	}
	return client, nil
}

func explainError(err error) error {
	var invalid *monitor.InvalidRateError
	switch {
	case errors.As(err, &invalid):
		return err
	case errors.Is(err, monitor.ErrCycleInProgress):
		return fmt.Errorf("%v, try again in a moment", err)
	case display.IsBackendUnavailable(err):
		return fmt.Errorf("%v (is a graphical session running? DISPLAY=%q WAYLAND_DISPLAY=%q)",
			err, os.Getenv("DISPLAY"), os.Getenv("WAYLAND_DISPLAY"))
	}
	return err
}
