// Package memeservice coordinates the metadata store, the content
// store, and the thumbnail cache.
package memeservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/mimetype"
	"github.com/fele-systems/memendex/internal/models"
	"github.com/fele-systems/memendex/internal/repo"
	"github.com/fele-systems/memendex/internal/storage"
	"github.com/fele-systems/memendex/internal/thumbnail"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	// minQueryLen is the shortest search query that hits storage;
	// anything shorter returns an empty page.
	minQueryLen = 3
	// fallbackExtension is stored for uploads whose type is unknown and
	// whose display name has no extension of its own.
	fallbackExtension = "dat"
)

// Service is the domain facade over meme metadata, content, and tags.
type Service struct {
	db     *repo.DB
	store  storage.Provider
	thumbs *thumbnail.Cache
	rec    *Reconciler
}

// New creates a meme service.
func New(db *repo.DB, store storage.Provider, thumbs *thumbnail.Cache) *Service {
	return &Service{db: db, store: store, thumbs: thumbs, rec: NewReconciler(db)}
}

// SaveFile stores an uploaded file: metadata row first, then content
// bytes under "{id}.{ext}". If the content write fails the orphan row
// is deleted before the error propagates. Known image types get a
// thumbnail generated opportunistically; a failure there is logged and
// does not fail the upload.
func (s *Service) SaveFile(_ context.Context, displayName, description, contentType string, r io.Reader) (models.Meme, error) {
	if displayName == "" || contentType == "" {
		return models.Meme{}, fmt.Errorf("%w: file name and content type are required", apperr.ErrInvalidInput)
	}

	ext, thumbnailable := mimetype.ExtensionFor(contentType)
	if !thumbnailable {
		ext = strings.TrimPrefix(filepath.Ext(displayName), ".")
		if ext == "" {
			ext = fallbackExtension
		}
	}

	meme, err := s.db.InsertMeme(models.MemePayload{
		Kind:        models.KindFile,
		FileName:    displayName,
		Description: description,
		Extension:   &ext,
	})
	if err != nil {
		return models.Meme{}, err
	}

	if err := s.store.Put(meme.ID, ext, r); err != nil {
		if delErr := s.db.DeleteMeme(meme.ID); delErr != nil {
			slog.Error("orphan row cleanup failed",
				slog.Int64("id", meme.ID),
				slog.String("error", delErr.Error()))
		}
		return models.Meme{}, err
	}

	if thumbnailable {
		if _, err := s.thumbs.GetOrCreate(meme.ID, ext); err != nil {
			slog.Warn("thumbnail generation failed",
				slog.Int64("id", meme.ID),
				slog.String("error", err.Error()))
		}
	}

	return meme, nil
}

// SaveLink stores a bookmarked URL. The URL doubles as the display name.
func (s *Service) SaveLink(_ context.Context, description, url string) (models.Meme, error) {
	if url == "" {
		return models.Meme{}, fmt.Errorf("%w: link is required", apperr.ErrInvalidInput)
	}
	return s.db.InsertMeme(models.MemePayload{
		Kind:        models.KindLink,
		FileName:    url,
		Description: description,
	})
}

// SaveNote stores a note. The title doubles as the display name.
func (s *Service) SaveNote(_ context.Context, description, title string) (models.Meme, error) {
	if title == "" {
		return models.Meme{}, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	return s.db.InsertMeme(models.MemePayload{
		Kind:        models.KindNote,
		FileName:    title,
		Description: description,
	})
}

// Get returns the bare meme record.
func (s *Service) Get(_ context.Context, id int64) (models.Meme, error) {
	return s.db.FindMeme(id)
}

// Detail returns the meme enriched with its tag labels.
func (s *Service) Detail(_ context.Context, id int64) (models.MemeDetailed, error) {
	meme, err := s.db.FindMeme(id)
	if err != nil {
		return models.MemeDetailed{}, err
	}
	return s.enrich(meme)
}

// enrich resolves the meme's tag links into ordered canonical labels.
// Links whose tag row vanished underneath us are skipped.
func (s *Service) enrich(meme models.Meme) (models.MemeDetailed, error) {
	tagIDs, err := s.db.TagIDsForMeme(meme.ID)
	if err != nil {
		return models.MemeDetailed{}, err
	}
	labels := make([]string, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		tag, err := s.db.GetTag(tagID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return models.MemeDetailed{}, err
		}
		labels = append(labels, tag.String())
	}
	return models.MemeDetailed{Meme: meme, Tags: labels}, nil
}

// List returns one page of memes with tags, in stable id order.
func (s *Service) List(ctx context.Context, page, size int) (models.Page[models.MemeDetailed], error) {
	page, size = normalize(page, size)

	memes, err := s.db.ListMemes(page, size)
	if err != nil {
		return models.Page[models.MemeDetailed]{}, err
	}
	total, err := s.db.TotalCount()
	if err != nil {
		return models.Page[models.MemeDetailed]{}, err
	}

	data, err := s.enrichAll(memes)
	if err != nil {
		return models.Page[models.MemeDetailed]{}, err
	}
	return models.Page[models.MemeDetailed]{
		Data:       data,
		Count:      len(data),
		TotalCount: total,
		PageSize:   size,
		Page:       page,
		HasNext:    (page-1)*size+len(data) < total,
	}, nil
}

// Search fuzzy-matches query against display names and descriptions.
// Queries shorter than three characters return an empty page without
// touching storage. The total count is reported as -1: fuzzy search has
// no cheap count query, so one extra row is fetched to detect a next
// page instead.
func (s *Service) Search(ctx context.Context, query string, page, size int) (models.Page[models.MemeDetailed], error) {
	if len([]rune(query)) < minQueryLen {
		return models.EmptyPage[models.MemeDetailed](), nil
	}
	page, size = normalize(page, size)

	memes, err := s.db.SearchMemes(query, page, size)
	if err != nil {
		return models.Page[models.MemeDetailed]{}, err
	}

	hasNext := false
	if len(memes) > size {
		hasNext = true
		memes = memes[:size]
	}

	data, err := s.enrichAll(memes)
	if err != nil {
		return models.Page[models.MemeDetailed]{}, err
	}
	return models.Page[models.MemeDetailed]{
		Data:       data,
		Count:      len(data),
		TotalCount: -1,
		PageSize:   size,
		Page:       page,
		HasNext:    hasNext,
	}, nil
}

// Update applies a partial metadata update and/or replaces the tag set.
// An empty patch only bumps updated_at, which is what tag-only edits
// want. The tags argument is tri-state: nil leaves links untouched, an
// empty slice removes them all.
//
// Changing the extension of a file meme renames "{id}.{old}" to
// "{id}.{new}" before the metadata update; if the update then fails the
// rename is reversed best-effort. Display-name changes never touch the
// filesystem.
func (s *Service) Update(ctx context.Context, id int64, patch models.MemePatch, tags *[]string) (models.MemeDetailed, error) {
	meme, err := s.db.FindMeme(id)
	if err != nil {
		return models.MemeDetailed{}, err
	}

	if patch.IsZero() {
		if err := s.db.TouchMeme(id); err != nil {
			return models.MemeDetailed{}, err
		}
	} else if err := s.applyPatch(meme, patch); err != nil {
		return models.MemeDetailed{}, err
	}

	if tags != nil {
		if err := s.rec.Reconcile(id, *tags); err != nil {
			return models.MemeDetailed{}, err
		}
	}

	return s.Detail(ctx, id)
}

func (s *Service) applyPatch(meme models.Meme, patch models.MemePatch) error {
	renamed := false
	var oldName, newName string
	if patch.Extension != nil && meme.Kind == models.KindFile &&
		meme.Extension != nil && *patch.Extension != *meme.Extension {
		oldName = meme.PhysicalFileName()
		newName = storage.PhysicalName(meme.ID, *patch.Extension)
		if err := s.store.Move(oldName, newName); err != nil {
			return err
		}
		renamed = true
	}

	if err := s.db.UpdateMeme(meme.ID, patch); err != nil {
		if renamed {
			if rbErr := s.store.Move(newName, oldName); rbErr != nil {
				slog.Error("rename rollback failed",
					slog.Int64("id", meme.ID),
					slog.String("error", rbErr.Error()))
			}
		}
		return err
	}
	return nil
}

// Thumbnail returns the cached (or freshly generated) JPEG preview.
// Only file memes of a thumbnail-capable type qualify.
func (s *Service) Thumbnail(_ context.Context, id int64) ([]byte, string, error) {
	ext, err := s.previewableExtension(id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.thumbs.GetOrCreate(id, ext)
	if err != nil {
		return nil, "", err
	}
	// Thumbnails are always JPEG, whatever the source format.
	return data, "image/jpeg", nil
}

// Preview streams the original content with its real content type.
func (s *Service) Preview(_ context.Context, id int64) (io.ReadCloser, string, error) {
	ext, err := s.previewableExtension(id)
	if err != nil {
		return nil, "", err
	}
	mime, _ := mimetype.MimeFor(ext)
	rc, err := s.store.Get(id, ext)
	if err != nil {
		return nil, "", err
	}
	return rc, mime, nil
}

// Download streams the original content as an attachment, returning the
// user-visible display name for the Content-Disposition header.
func (s *Service) Download(_ context.Context, id int64) (io.ReadCloser, string, error) {
	meme, err := s.db.FindMeme(id)
	if err != nil {
		return nil, "", err
	}
	if meme.Kind != models.KindFile || meme.Extension == nil {
		return nil, "", fmt.Errorf("%w: meme %d has no file content", apperr.ErrInvalidInput, id)
	}
	rc, err := s.store.Get(id, *meme.Extension)
	if err != nil {
		return nil, "", err
	}
	return rc, meme.FileName, nil
}

// SearchTags returns catalog tags whose canonical form contains term.
func (s *Service) SearchTags(_ context.Context, term string) ([]models.Tag, error) {
	return s.db.SearchTags(term)
}

// SuggestTags returns usage-ordered tag suggestions; a blank term
// returns the overall top tags.
func (s *Service) SuggestTags(_ context.Context, term string, limit int) ([]models.TagUsage, error) {
	if strings.TrimSpace(term) == "" {
		return s.db.TopTags(limit)
	}
	return s.db.SuggestTags(term, limit)
}

// previewableExtension resolves a meme to its extension, rejecting
// memes whose type cannot be decoded. Unsupported types must never
// reach the thumbnail cache, where decoding would fail anyway.
func (s *Service) previewableExtension(id int64) (string, error) {
	meme, err := s.db.FindMeme(id)
	if err != nil {
		return "", err
	}
	if meme.Kind != models.KindFile || meme.Extension == nil {
		return "", fmt.Errorf("%w: meme %d has no file content", apperr.ErrInvalidInput, id)
	}
	if _, ok := mimetype.MimeFor(*meme.Extension); !ok {
		return "", fmt.Errorf("%w: cannot preview %s files", apperr.ErrInvalidInput, *meme.Extension)
	}
	return *meme.Extension, nil
}

func (s *Service) enrichAll(memes []models.Meme) ([]models.MemeDetailed, error) {
	out := make([]models.MemeDetailed, 0, len(memes))
	for _, m := range memes {
		detailed, err := s.enrich(m)
		if err != nil {
			return nil, err
		}
		out = append(out, detailed)
	}
	return out, nil
}

// normalize clamps paging inputs: page is 1-based with 0 meaning 1, and
// out-of-range sizes fall back to the default.
func normalize(page, size int) (int, int) {
	if page == 0 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
