package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// FS is a Provider over a local directory. Lookups go through an os.Root,
// so symlinks that leave the directory are refused as well as "..".
// The directory handle stays open for the life of the FS.
type FS struct {
	root string
	dir  *os.Root
}

// NewFS opens dir as a content root. dir must exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	r, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open root: %w", err)
	}
	return &FS{root: abs, dir: r}, nil
}

func (f *FS) Root() string { return f.root }

// local turns a slash-separated request path into a root-relative name.
// Anything that is not a plain relative path is a permission error.
func local(name string) (string, error) {
	clean := path.Clean(name)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", fmt.Errorf("storage: %q outside content root: %w", name, fs.ErrPermission)
	}
	return filepath.FromSlash(clean), nil
}

func (f *FS) Read(name string) ([]byte, error) {
	rel, err := local(name)
	if err != nil {
		return nil, err
	}
	data, err := f.dir.ReadFile(rel)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Open returns a regular file and its info. A directory reads as missing.
func (f *FS) Open(name string) (*os.File, fs.FileInfo, error) {
	rel, err := local(name)
	if err != nil {
		return nil, nil, err
	}
	file, err := f.dir.Open(rel)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	info, err := file.Stat()
	switch {
	case err != nil:
		err = fmt.Errorf("storage: stat %s: %w", name, err)
	case !info.Mode().IsRegular():
		err = fmt.Errorf("storage: %s is not a regular file: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return file, info, nil
}
