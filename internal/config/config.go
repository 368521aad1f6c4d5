package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Preference store configuration
	Store StoreConfig

	// Check history database configuration
	Database DatabaseConfig

	// Monitor configuration
	Monitor MonitorConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig

	// Alert sink configuration
	Notify NotifyConfig

	// Logging configuration
	Log LogConfig
}

// StoreConfig holds preference store configuration
type StoreConfig struct {
	Path string // Path to preferences.json
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path      string        // Path to SQLite database file
	Enabled   bool          // Record check history
	Retention time.Duration // Runs older than this are pruned on daemon start; 0 keeps all
}

// MonitorConfig holds detection schedule configuration
type MonitorConfig struct {
	Interval       time.Duration // Time between timer triggered checks
	MinInterval    time.Duration
	MaxInterval    time.Duration
	SuppressWindow time.Duration // 0 re-alerts every cycle
	Backend        string        // auto, x11, wayland or fake
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile   string // Path to PID file for daemon management
	LogFile   string
	Autostart bool // Register for login autostart on start
}

// WebConfig holds web server configuration
type WebConfig struct {
	Enabled bool
	Host    string // Host to bind web server to
	Port    int    // Port for web server
}

// NotifyConfig holds alert sink configuration
type NotifyConfig struct {
	Desktop bool // notify-send and display bell; false logs alerts only
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// Default returns a Config with sensible default values
func Default() *Config {
	uid := os.Getuid()
	return &Config{
		Store: StoreConfig{
			Path: "", // Empty means ~/.config/refreshmon/preferences.json
		},
		Database: DatabaseConfig{
			Path:      "", // Empty means ~/.local/share/refreshmon/history.db
			Enabled:   true,
			Retention: 30 * 24 * time.Hour,
		},
		Monitor: MonitorConfig{
			Interval:       60 * time.Second,
			MinInterval:    5 * time.Second,
			MaxInterval:    time.Hour,
			SuppressWindow: 0,
			Backend:        "auto",
		},
		Daemon: DaemonConfig{
			PIDFile:   fmt.Sprintf("/tmp/refreshmon-%d.pid", uid),
			LogFile:   fmt.Sprintf("/tmp/refreshmon-%d.log", uid),
			Autostart: true,
		},
		Web: WebConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    20000 + uid%10000, // Per user port
		},
		Notify: NotifyConfig{
			Desktop: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var validBackends = map[string]bool{"auto": true, "x11": true, "wayland": true, "fake": true}

var validLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.Interval < c.Monitor.MinInterval {
		return fmt.Errorf("check interval (%v) cannot be less than minimum (%v)",
			c.Monitor.Interval, c.Monitor.MinInterval)
	}

	if c.Monitor.Interval > c.Monitor.MaxInterval {
		return fmt.Errorf("check interval (%v) cannot be greater than maximum (%v)",
			c.Monitor.Interval, c.Monitor.MaxInterval)
	}

	if c.Monitor.SuppressWindow < 0 {
		return fmt.Errorf("suppress window cannot be negative")
	}

	if c.Database.Retention < 0 {
		return fmt.Errorf("history retention cannot be negative")
	}

	if !validBackends[c.Monitor.Backend] {
		return fmt.Errorf("unknown display backend %q (valid: auto, x11, wayland, fake)", c.Monitor.Backend)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if !validLevels[c.Log.Level] {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	return nil
}

// SetInterval sets the check interval with validation
func (c *Config) SetInterval(interval time.Duration) error {
	if interval < c.Monitor.MinInterval {
		return fmt.Errorf("check interval cannot be less than %v", c.Monitor.MinInterval)
	}
	if interval > c.Monitor.MaxInterval {
		return fmt.Errorf("check interval cannot be greater than %v", c.Monitor.MaxInterval)
	}
	c.Monitor.Interval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// WebAddr returns host:port of the web server
func (c *Config) WebAddr() string {
	return fmt.Sprintf("%s:%d", c.Web.Host, c.Web.Port)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Store:
    Path: %s
  Database:
    Path: %s
    Enabled: %v
    Retention: %v
  Monitor:
    Interval: %v
    Min Interval: %v
    Max Interval: %v
    Suppress Window: %v
    Backend: %s
  Daemon:
    PID File: %s
    Log File: %s
    Autostart: %v
  Web:
    Enabled: %v
    Host: %s
    Port: %d
  Notify:
    Desktop: %v
  Log:
    Level: %s`,
		c.Store.Path,
		c.Database.Path,
		c.Database.Enabled,
		c.Database.Retention,
		c.Monitor.Interval,
		c.Monitor.MinInterval,
		c.Monitor.MaxInterval,
		c.Monitor.SuppressWindow,
		c.Monitor.Backend,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Daemon.Autostart,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Notify.Desktop,
		c.Log.Level,
	)
}
