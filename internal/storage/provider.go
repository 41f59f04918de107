// Package storage defines the content directory abstraction.
package storage

import (
	"io/fs"
	"os"
)

// Provider reads files below a content root.
type Provider interface {
	// Root returns the absolute content directory.
	Root() string
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Open opens the regular file at path (relative to root) for streaming.
	Open(path string) (*os.File, fs.FileInfo, error)
}
