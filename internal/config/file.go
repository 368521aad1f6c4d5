package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file. Unset keys keep their defaults.
type fileConfig struct {
	Store struct {
		Path *string `yaml:"path"`
	} `yaml:"store"`
	Database struct {
		Path      *string `yaml:"path"`
		Enabled   *bool   `yaml:"enabled"`
		Retention *string `yaml:"retention"`
	} `yaml:"database"`
	Monitor struct {
		Interval       *string `yaml:"interval"`
		SuppressWindow *string `yaml:"suppress_window"`
		Backend        *string `yaml:"backend"`
	} `yaml:"monitor"`
	Daemon struct {
		PIDFile   *string `yaml:"pid_file"`
		LogFile   *string `yaml:"log_file"`
		Autostart *bool   `yaml:"autostart"`
	} `yaml:"daemon"`
	Web struct {
		Enabled *bool   `yaml:"enabled"`
		Host    *string `yaml:"host"`
		Port    *int    `yaml:"port"`
	} `yaml:"web"`
	Notify struct {
		Desktop *bool `yaml:"desktop"`
	} `yaml:"notify"`
	Log struct {
		Level *string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultFilePath returns ~/.config/refreshmon/config.yaml, or "" when the
// home directory is unknown
func DefaultFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "refreshmon", "config.yaml")
}

// LoadFile applies the YAML file at path onto cfg. A missing file is not an error.
func LoadFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "read config file")
	}
	return Parse(cfg, data)
}

// Parse applies YAML config data onto cfg
func Parse(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return errors.Wrap(err, "parse config file")
	}

	setString(&cfg.Store.Path, fc.Store.Path)
	setString(&cfg.Database.Path, fc.Database.Path)
	setBool(&cfg.Database.Enabled, fc.Database.Enabled)
	if err := setDuration(&cfg.Database.Retention, fc.Database.Retention); err != nil {
		return errors.Wrap(err, "database.retention")
	}

	if err := setDuration(&cfg.Monitor.Interval, fc.Monitor.Interval); err != nil {
		return errors.Wrap(err, "monitor.interval")
	}
	if err := setDuration(&cfg.Monitor.SuppressWindow, fc.Monitor.SuppressWindow); err != nil {
		return errors.Wrap(err, "monitor.suppress_window")
	}
	setString(&cfg.Monitor.Backend, fc.Monitor.Backend)

	setString(&cfg.Daemon.PIDFile, fc.Daemon.PIDFile)
	setString(&cfg.Daemon.LogFile, fc.Daemon.LogFile)
	setBool(&cfg.Daemon.Autostart, fc.Daemon.Autostart)

	setBool(&cfg.Web.Enabled, fc.Web.Enabled)
	setString(&cfg.Web.Host, fc.Web.Host)
	if fc.Web.Port != nil {
		cfg.Web.Port = *fc.Web.Port
	}

	setBool(&cfg.Notify.Desktop, fc.Notify.Desktop)
	setString(&cfg.Log.Level, fc.Log.Level)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
