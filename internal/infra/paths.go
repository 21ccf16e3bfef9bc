package infra

import (
	"fmt"
	"os"
	"path/filepath"
)

// appDirName is the directory under the user config dir holding all
// persisted state (profiles.json, config.json).
const appDirName = "GamingOptimizer"

// DataDir returns the application data directory, creating it if needed.
// Resolves to %APPDATA%\GamingOptimizer on Windows and the XDG config dir
// elsewhere.
func DataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine user config directory: %w", err)
	}

	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}
