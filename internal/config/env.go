package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	if path := os.Getenv("REFRESHMON_PREFS_PATH"); path != "" {
		cfg.Store.Path = path
	}

	if dbPath := os.Getenv("REFRESHMON_DB_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}

	if history := os.Getenv("REFRESHMON_HISTORY"); history != "" {
		if val, err := strconv.ParseBool(history); err == nil {
			cfg.Database.Enabled = val
		}
	}

	if retention, ok := durationEnv("REFRESHMON_HISTORY_RETENTION"); ok && retention >= 0 {
		cfg.Database.Retention = retention
	}

	// Seconds, or a Go duration such as "90s"
	if interval, ok := durationEnv("REFRESHMON_INTERVAL"); ok && interval > 0 {
		if interval >= cfg.Monitor.MinInterval && interval <= cfg.Monitor.MaxInterval {
			cfg.Monitor.Interval = interval
		}
	}

	if window, ok := durationEnv("REFRESHMON_SUPPRESS_WINDOW"); ok && window >= 0 {
		cfg.Monitor.SuppressWindow = window
	}

	if backend := os.Getenv("REFRESHMON_BACKEND"); backend != "" {
		cfg.Monitor.Backend = backend
	}

	if pidFile := os.Getenv("REFRESHMON_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	if logFile := os.Getenv("REFRESHMON_LOG_FILE"); logFile != "" {
		cfg.Daemon.LogFile = logFile
	}

	if autostart := os.Getenv("REFRESHMON_AUTOSTART"); autostart != "" {
		if val, err := strconv.ParseBool(autostart); err == nil {
			cfg.Daemon.Autostart = val
		}
	}

	if web := os.Getenv("REFRESHMON_WEB"); web != "" {
		if val, err := strconv.ParseBool(web); err == nil {
			cfg.Web.Enabled = val
		}
	}

	if webHost := os.Getenv("REFRESHMON_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("REFRESHMON_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}

	if desktop := os.Getenv("REFRESHMON_DESKTOP_NOTIFY"); desktop != "" {
		if val, err := strconv.ParseBool(desktop); err == nil {
			cfg.Notify.Desktop = val
		}
	}

	if level := os.Getenv("REFRESHMON_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

func durationEnv(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

// New creates a Config from defaults, the optional config file and the
// environment, in that order of precedence.
func New() (*Config, error) {
	cfg := Default()
	path := os.Getenv("REFRESHMON_CONFIG")
	if path == "" {
		path = DefaultFilePath()
	}
	if err := LoadFile(cfg, path); err != nil {
		return nil, err
	}
	LoadFromEnv(cfg)
	return cfg, nil
}
