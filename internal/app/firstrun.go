package app

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	markerFileName = "first_run_completed"
	appName        = "pipecost"
)

// ConfigDir returns the application's directory under the user config dir.
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// IsFirstRun reports whether the marker file is absent, creating it as
// a side effect. Any filesystem error is treated as "not first run" so
// the hint is never shown repeatedly on broken setups.
func IsFirstRun() bool {
	dir, err := ConfigDir()
	if err != nil {
		slog.Debug("no user config dir", slog.String("error", err.Error()))
		return false
	}

	marker := filepath.Join(dir, markerFileName)
	if _, err := os.Stat(marker); err == nil {
		return false
	} else if !os.IsNotExist(err) {
		slog.Debug("failed to stat first-run marker", slog.String("path", marker), slog.String("error", err.Error()))
		return false
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Debug("failed to create config dir", slog.String("path", dir), slog.String("error", err.Error()))
		return false
	}
	f, err := os.Create(marker)
	if err != nil {
		slog.Debug("failed to create first-run marker", slog.String("path", marker), slog.String("error", err.Error()))
		return false
	}
	_ = f.Close()
	return true
}
