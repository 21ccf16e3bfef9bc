package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// configFileName is the runtime state file inside the data directory.
const configFileName = "config.json"

// ConfigStoreImpl implements domain.ConfigStore on a JSON file.
type ConfigStoreImpl struct {
	path string
}

// NewConfigStore creates a config store rooted at the app data directory.
func NewConfigStore() (domain.ConfigStore, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &ConfigStoreImpl{path: filepath.Join(dir, configFileName)}, nil
}

// NewConfigStoreWithPath creates a store at a specific path (for testing).
func NewConfigStoreWithPath(path string) domain.ConfigStore {
	return &ConfigStoreImpl{path: path}
}

// Load returns the stored config. A missing file yields the zero config
// (no active profile, overlay hidden).
func (s *ConfigStoreImpl) Load() (domain.AppConfig, error) {
	var cfg domain.AppConfig

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", configFileName, err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.AppConfig{}, fmt.Errorf("failed to parse %s: %w", configFileName, err)
	}
	return cfg, nil
}

// Save persists the config atomically.
func (s *ConfigStoreImpl) Save(cfg domain.AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return atomicWrite(s.path, data)
}

// ModTime returns the backing file's mtime in unix seconds, 0 when absent.
func (s *ConfigStoreImpl) ModTime() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

// Ensure ConfigStoreImpl implements domain.ConfigStore.
var _ domain.ConfigStore = (*ConfigStoreImpl)(nil)
