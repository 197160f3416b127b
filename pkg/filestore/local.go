package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pipewise/maestro/pkg/interfaces"
)

// Local implements interfaces.FileStore over a directory on disk. Paths are
// resolved relative to the root and may not escape it.
type Local struct {
	root string
}

// NewLocal creates a file store rooted at dir
func NewLocal(dir string) (*Local, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	return &Local{root: root}, nil
}

// resolve joins path onto the root and rejects traversal outside it
func (l *Local) resolve(path string) (string, error) {
	full := filepath.Join(l.root, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, l.root+string(os.PathSeparator)) && full != l.root {
		return "", fmt.Errorf("path escapes store root: %s", path)
	}
	return full, nil
}

// Read returns the contents of the file at path
func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full) // #nosec G304 - Path is confined to the store root by resolve()
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, interfaces.ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Write stores data at path, creating parent directories as needed
func (l *Local) Write(_ context.Context, path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

var _ interfaces.FileStore = (*Local)(nil)
