package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// TestConfigStore_LoadMissingFile verifies defaults when no config exists
func TestConfigStore_LoadMissingFile(t *testing.T) {
	store := NewConfigStoreWithPath(filepath.Join(t.TempDir(), "config.json"))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.ActiveProfile)
	assert.False(t, cfg.OverlayVisible)
}

// TestConfigStore_SaveAndLoad verifies round-trip persistence
func TestConfigStore_SaveAndLoad(t *testing.T) {
	store := NewConfigStoreWithPath(filepath.Join(t.TempDir(), "config.json"))

	require.NoError(t, store.Save(domain.AppConfig{
		ActiveProfile:  "FPS",
		OverlayVisible: true,
	}))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "FPS", cfg.ActiveProfile)
	assert.True(t, cfg.OverlayVisible)
}

// TestConfigStore_LoadCorruptFile verifies parse errors are surfaced
func TestConfigStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{bad"), 0644))

	store := NewConfigStoreWithPath(path)
	_, err := store.Load()
	assert.Error(t, err)
}
