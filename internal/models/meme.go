// Package models defines the domain types for Memendex.
package models

import (
	"fmt"
	"time"

	"github.com/fele-systems/memendex/internal/apperr"
)

// Kind classifies a meme: an uploaded file, a bookmarked link, or a note.
type Kind int

// Kind values match the kind_id column. The mapping is closed: decoding
// any other integer fails with apperr.ErrInvalidInput.
const (
	KindFile Kind = 1
	KindLink Kind = 2
	KindNote Kind = 3
)

// KindFromID maps a persisted kind_id to a Kind.
func KindFromID(id int) (Kind, error) {
	switch Kind(id) {
	case KindFile, KindLink, KindNote:
		return Kind(id), nil
	default:
		return 0, fmt.Errorf("%w: unknown meme kind id %d", apperr.ErrInvalidInput, id)
	}
}

// KindFromName maps the wire name ("file", "link", "note") to a Kind.
func KindFromName(name string) (Kind, error) {
	switch name {
	case "file":
		return KindFile, nil
	case "link":
		return KindLink, nil
	case "note":
		return KindNote, nil
	default:
		return 0, fmt.Errorf("%w: unknown meme kind %q", apperr.ErrInvalidInput, name)
	}
}

// ID returns the persisted kind_id.
func (k Kind) ID() int { return int(k) }

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindLink:
		return "link"
	case KindNote:
		return "note"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler so Kind serializes as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := KindFromName(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Meme is a stored record. FileName is the user-visible display name and
// may collide or contain unsafe characters; the on-disk name for
// KindFile is derived solely from ID and Extension.
type Meme struct {
	ID          int64      `json:"id"`
	Kind        Kind       `json:"type"`
	FileName    string     `json:"fileName"`
	Description string     `json:"description"`
	Extension   *string    `json:"extension,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// PhysicalFileName returns the on-disk file name, "{id}.{extension}".
func (m Meme) PhysicalFileName() string {
	ext := ""
	if m.Extension != nil {
		ext = *m.Extension
	}
	return fmt.Sprintf("%d.%s", m.ID, ext)
}

// MemeDetailed is the read model: a Meme plus its resolved tag labels.
// It is a projection, never persisted.
type MemeDetailed struct {
	Meme
	Tags []string `json:"tags"`
}

// MemePayload carries the fields needed to insert a new meme.
type MemePayload struct {
	Kind        Kind
	FileName    string
	Description string
	Extension   *string
}

// MemePatch is a partial update: only non-nil fields are applied.
type MemePatch struct {
	FileName    *string
	Description *string
	Extension   *string
}

// IsZero reports whether the patch carries no changes.
func (p MemePatch) IsZero() bool {
	return p.FileName == nil && p.Description == nil && p.Extension == nil
}
