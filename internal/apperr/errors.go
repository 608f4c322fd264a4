// Package apperr defines the error taxonomy shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound marks an id with no matching meme or tag.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput marks a malformed payload (missing field for a
	// kind, unrecognized kind id).
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecodeFailure marks source bytes that cannot be decoded as an
	// image when a thumbnail or preview is generated.
	ErrDecodeFailure = errors.New("image decode failure")
	// ErrKeyGeneration marks a missing generated id after an insert.
	// This is a storage misconfiguration, not a recoverable condition.
	ErrKeyGeneration = errors.New("generated key not returned")
)
