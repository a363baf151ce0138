// internal/storage/archive/interface.go
package archive

import "context"

// Storage defines the interface for object backends holding storage files.
// Paths are slash separated and relative to the backend root.
type Storage interface {
	// Write stores data at the given path, replacing any previous content.
	// Missing parent folders are created.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. A missing object yields an
	// error matching core.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
