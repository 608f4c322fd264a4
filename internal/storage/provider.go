// Package storage defines the upload-directory content store.
package storage

import "io"

// Provider is the interface for physical meme content. Content is
// addressed by meme id and extension; display names never reach this
// layer.
type Provider interface {
	// Put writes the full content for a meme, replacing any previous file.
	Put(id int64, ext string, r io.Reader) error
	// Get opens the content for reading. Absent files return an error
	// wrapping os.ErrNotExist.
	Get(id int64, ext string) (io.ReadCloser, error)
	// Move renames a file within the upload root (both plain file names).
	Move(oldName, newName string) error
	// Delete removes the file with the given plain file name.
	Delete(name string) error
}
