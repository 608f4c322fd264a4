package api

import "github.com/fele-systems/memendex/internal/models"

// EditMemeRequest is the request body for PATCH /memes/edit. Only
// non-null fields are applied. Tags is tri-state: absent/null leaves
// links untouched, an empty array removes them all.
type EditMemeRequest struct {
	ID          int64     `json:"id"`
	FileName    *string   `json:"fileName"`
	Description *string   `json:"description"`
	Extension   *string   `json:"extension"`
	Tags        *[]string `json:"tags"`
}

// MemeDetailed is the enriched meme response (aliased from the domain layer).
type MemeDetailed = models.MemeDetailed

// MemePage is the pagination envelope for list and search responses.
type MemePage = models.Page[models.MemeDetailed]
