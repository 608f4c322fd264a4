package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to upload directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// PhysicalName returns the on-disk name for an id/extension pair.
func PhysicalName(id int64, ext string) string {
	return fmt.Sprintf("%d.%s", id, ext)
}

// safeName rejects anything that is not a plain file name and returns
// the absolute path under the upload root.
func (f *FS) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("storage: file name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid file name: %s", name)
	}
	return filepath.Join(f.root, cleaned), nil
}

// Put writes content atomically: tmp file → fsync → rename. A failed
// write never leaves a partial file behind.
func (f *FS) Put(id int64, ext string, r io.Reader) error {
	abs, err := f.safeName(PhysicalName(id, ext))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".memendex-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Get opens the content file for reading.
func (f *FS) Get(id int64, ext string) (io.ReadCloser, error) {
	abs, err := f.safeName(PhysicalName(id, ext))
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", PhysicalName(id, ext), err)
	}
	return file, nil
}

// Move renames a file within the upload root.
func (f *FS) Move(oldName, newName string) error {
	absOld, err := f.safeName(oldName)
	if err != nil {
		return err
	}
	absNew, err := f.safeName(newName)
	if err != nil {
		return err
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	return nil
}

// Delete removes a file from the upload root.
func (f *FS) Delete(name string) error {
	abs, err := f.safeName(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
