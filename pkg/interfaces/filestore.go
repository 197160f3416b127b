package interfaces

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned by FileStore.Read when the path does not exist
var ErrFileNotFound = errors.New("file not found")

// FileStore abstracts the storage used for workflow inputs and generated
// outputs (requirement documents, generated YAML/JSON, source files)
type FileStore interface {
	// Read returns the contents of the file at path, or ErrFileNotFound
	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores data at path, creating parent directories as needed
	Write(ctx context.Context, path string, data []byte) error
}
