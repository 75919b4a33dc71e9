package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/linkplate/backend/internal/models"
)

// ProfileFile persists the full profile set as one JSON document on disk.
// It backs the credential-free development store; writes go through a temp
// file and rename so a crash never leaves a half-written file.
type ProfileFile struct {
	mu       sync.RWMutex
	filePath string
}

func NewProfileFile(dataDir, filename string) (*ProfileFile, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	return &ProfileFile{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

// Load reads the profile set; a missing file is an empty set, not an error.
func (f *ProfileFile) Load() (map[string]models.Profile, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	profiles := make(map[string]models.Profile)

	file, err := os.Open(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return profiles, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Save writes the full profile set keyed by profile id.
func (f *ProfileFile) Save(profiles map[string]models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tempFile := f.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(profiles); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}

	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, f.filePath)
}
