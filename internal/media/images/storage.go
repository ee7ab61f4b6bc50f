package images

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage manages saved product image files on disk.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a Storage rooted at {basePath}/products/.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(basePath, "products")
}

// NewStorageWithSubdir creates a Storage with a custom subdirectory,
// e.g. NewStorageWithSubdir("/data", "slides") -> /data/slides/.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)

	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{basePath: storagePath}, nil
}

// Save stores image bytes under the given file name (id plus extension,
// e.g. "prod-abc123.jpg").
func (s *Storage) Save(name string, imgData []byte) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if len(imgData) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(s.Path(name), imgData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}

// Get retrieves image bytes by file name.
func (s *Storage) Get(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("file name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found for %s: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists checks whether an image file is present.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes an image file. Deleting a missing file is not an error.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Hash computes the SHA256 hash of a stored image.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for a stored image.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, name)
}
