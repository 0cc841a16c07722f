package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// PreviewStore materializes transient local previews for accepted files.
// Every created preview must be released exactly once; the pipeline owns
// that lifecycle.
type PreviewStore interface {
	// Create writes a preview resource and returns its reference plus a
	// release function. Release is idempotent-unsafe by contract: the
	// pipeline guarantees a single call.
	Create(name string, data []byte) (ref string, release func() error, err error)
}

// TempFileStore writes previews as files under dir (or the OS temp
// directory when dir is empty); releasing removes the file.
type TempFileStore struct {
	Dir string
}

func (s *TempFileStore) Create(name string, data []byte) (string, func() error, error) {
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("preview-%s%s", uuid.NewString(), filepath.Ext(name)))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("writing preview: %w", err)
	}
	return path, func() error { return os.Remove(path) }, nil
}
