package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for run artifact files (the amounts
// listing and the histogram image)
type Storage interface {
	// Save writes an artifact and returns the name it was stored under
	Save(name string, data []byte) (string, error)

	// Delete removes an artifact
	Delete(name string) error
}

// LocalStorage implements the Storage interface on a local output
// directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes an artifact into the output directory. Artifact names are
// flat; anything resembling a path is rejected so a run can never write
// outside its directory.
func (l *LocalStorage) Save(name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}

	path := filepath.Join(l.basePath, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return name, nil
}

// Delete removes an artifact from the output directory
func (l *LocalStorage) Delete(name string) error {
	if err := os.Remove(filepath.Join(l.basePath, name)); err != nil {
		return fmt.Errorf("deleting artifact: %w", err)
	}
	return nil
}
