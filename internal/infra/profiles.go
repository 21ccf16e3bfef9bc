package infra

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tharun-extinct/Gaming-optimizer/internal/domain"
)

// profilesFileName is the on-disk profile list inside the data directory.
const profilesFileName = "profiles.json"

// ProfileStoreImpl implements domain.ProfileStore on a JSON file.
type ProfileStoreImpl struct {
	path string
}

// NewProfileStore creates a profile store rooted at the app data directory.
func NewProfileStore() (domain.ProfileStore, error) {
	dir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &ProfileStoreImpl{path: filepath.Join(dir, profilesFileName)}, nil
}

// NewProfileStoreWithPath creates a store at a specific path (for testing).
func NewProfileStoreWithPath(path string) domain.ProfileStore {
	return &ProfileStoreImpl{path: path}
}

// Load returns all profiles. A missing file is not an error; it yields an
// empty list so a fresh install starts clean.
func (s *ProfileStoreImpl) Load() ([]domain.Profile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Profile{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", profilesFileName, err)
	}

	var profiles []domain.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", profilesFileName, err)
	}
	return profiles, nil
}

// Save persists the full profile list as pretty-printed JSON. Written to a
// temp file and renamed so a crash mid-write never corrupts the list.
func (s *ProfileStoreImpl) Save(profiles []domain.Profile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize profiles: %w", err)
	}
	return atomicWrite(s.path, data)
}

// Find returns the profile with the given name, case-insensitively.
func (s *ProfileStoreImpl) Find(name string) (*domain.Profile, error) {
	profiles, err := s.Load()
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		if strings.EqualFold(profiles[i].Name, name) {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

// ModTime returns the backing file's mtime in unix seconds, 0 when absent.
func (s *ProfileStoreImpl) ModTime() int64 {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0
	}
	return info.ModTime().Unix()
}

// atomicWrite writes data to path via a sibling temp file and rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".gamingopt-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	success = true
	return nil
}

// Ensure ProfileStoreImpl implements domain.ProfileStore.
var _ domain.ProfileStore = (*ProfileStoreImpl)(nil)
