// Package autostart registers refreshmon in the XDG autostart directory so
// the monitor starts with the desktop session.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const entryName = "refreshmon.desktop"

// Entry manages one XDG autostart desktop entry
type Entry struct {
	dir  string
	exec string
}

// New creates an entry launching executable with "start". An empty dir selects
// $XDG_CONFIG_HOME/autostart, or ~/.config/autostart.
func New(dir, executable string) (*Entry, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return &Entry{dir: dir, exec: executable}, nil
}

// DefaultDir returns the user's XDG autostart directory
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autostart"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "autostart"), nil
}

// Path returns the desktop entry location
func (e *Entry) Path() string {
	return filepath.Join(e.dir, entryName)
}

// Content renders the desktop entry
func (e *Entry) Content() string {
	return strings.Join([]string{
		"[Desktop Entry]",
		"Type=Application",
		"Name=refreshmon",
		"Comment=Warn when a display runs at an unexpected refresh rate",
		fmt.Sprintf("Exec=%s start", quoteExec(e.exec)),
		"Terminal=false",
		"NoDisplay=true",
		"X-GNOME-Autostart-enabled=true",
		"",
	}, "\n")
}

// Install writes the entry. An identical existing entry is left untouched.
func (e *Entry) Install() (changed bool, err error) {
	want := e.Content()
	if current, err := os.ReadFile(e.Path()); err == nil && string(current) == want {
		return false, nil
	}

	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return false, errors.Wrap(err, "create autostart directory")
	}
	if err := os.WriteFile(e.Path(), []byte(want), 0644); err != nil {
		return false, errors.Wrap(err, "write autostart entry")
	}
	return true, nil
}

// Remove deletes the entry if present
func (e *Entry) Remove() error {
	if err := os.Remove(e.Path()); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove autostart entry")
	}
	return nil
}

// IsInstalled reports whether an entry exists
func (e *Entry) IsInstalled() bool {
	_, err := os.Stat(e.Path())
	return err == nil
}

// quoteExec quotes a path for the Exec key of a desktop entry
func quoteExec(path string) string {
	if !strings.ContainsAny(path, " \t\"'\\$`") {
		return path
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`", `$`, `\$`)
	return `"` + r.Replace(path) + `"`
}
