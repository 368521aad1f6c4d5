package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/refreshmon/refreshmon/internal/models"
)

const (
	keyThreshold = "alert_threshold"
	keySound     = "alert_sound"
	keyDevices   = "devices"
)

// StoreCorruptError reports a preference file that could not be parsed. It is
// logged and the defaults are restored, callers never see it.
type StoreCorruptError struct {
	Path string
	Err  error
}

func (e *StoreCorruptError) Error() string {
	return fmt.Sprintf("preference file %s is corrupt: %v", e.Path, e.Err)
}

func (e *StoreCorruptError) Unwrap() error {
	return e.Err
}

// fileFormat is the on-disk layout of the preference file
type fileFormat struct {
	AlertThreshold int            `json:"alert_threshold"`
	AlertSound     bool           `json:"alert_sound"`
	Devices        map[string]int `json:"devices"`
}

func encode(snap Snapshot) ([]byte, error) {
	devices := snap.Preferences
	if devices == nil {
		devices = map[string]int{}
	}
	data, err := json.MarshalIndent(fileFormat{
		AlertThreshold: snap.Settings.AlertThreshold,
		AlertSound:     snap.Settings.AlertSound,
		Devices:        devices,
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode preferences")
	}
	return append(data, '\n'), nil
}

// decode parses a preference file. It also accepts the legacy flat layout in
// which device entries sit next to the global keys. normalized is false when
// the content differs from what encode would write back.
func decode(data []byte) (snap Snapshot, normalized bool, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, false, err
	}
	if raw == nil {
		return Snapshot{}, false, errors.New("preference file is not an object")
	}

	snap = Snapshot{
		Preferences: make(map[string]int),
		Settings:    models.DefaultGlobalSettings(),
	}
	normalized = true

	if v, ok := raw[keyThreshold]; ok {
		var threshold int
		if err := json.Unmarshal(v, &threshold); err != nil {
			return Snapshot{}, false, errors.Wrapf(err, "field %s", keyThreshold)
		}
		if threshold > 0 {
			snap.Settings.AlertThreshold = threshold
		} else {
			normalized = false
		}
	} else {
		normalized = false
	}

	if v, ok := raw[keySound]; ok {
		if err := json.Unmarshal(v, &snap.Settings.AlertSound); err != nil {
			return Snapshot{}, false, errors.Wrapf(err, "field %s", keySound)
		}
	} else {
		normalized = false
	}

	if v, ok := raw[keyDevices]; ok {
		var devices map[string]int
		if err := json.Unmarshal(v, &devices); err != nil {
			return Snapshot{}, false, errors.Wrapf(err, "field %s", keyDevices)
		}
		for id, rate := range devices {
			if rate <= 0 {
				normalized = false
				continue
			}
			snap.Preferences[id] = rate
		}
	} else {
		normalized = false
	}

	// legacy flat layout: {"alert_threshold": 60, "alert_sound": true, "DISPLAY1": 75}
	for key, v := range raw {
		if key == keyThreshold || key == keySound || key == keyDevices {
			continue
		}
		normalized = false
		var rate int
		if err := json.Unmarshal(v, &rate); err != nil || rate <= 0 {
			continue
		}
		if _, exists := snap.Preferences[key]; !exists {
			snap.Preferences[key] = rate
		}
	}

	return snap, normalized, nil
}

// writeFileAtomic writes data next to path and renames it into place, so a
// reader sees either the previous content or the new one.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create preference directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary preference file")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "failed to write preferences")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync preferences")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close preferences")
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return errors.Wrap(err, "failed to set preference file mode")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "failed to replace preference file")
	}
	return nil
}
