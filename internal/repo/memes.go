package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/models"
)

// searchThreshold is the minimum token-set partial-ratio score (out of
// 100) a field must exceed to qualify as a fuzzy match.
const searchThreshold = 85

const memeColumns = `id, kind_id, filename, description, extension, created_at, updated_at`

// InsertMeme persists a new meme row and returns it with the generated
// id and creation timestamp. File bytes are the caller's concern.
func (db *DB) InsertMeme(payload models.MemePayload) (models.Meme, error) {
	createdAt := time.Now().UTC()
	res, err := db.conn.Exec(`
		INSERT INTO memes (kind_id, filename, description, extension, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, payload.Kind.ID(), payload.FileName, payload.Description, payload.Extension, createdAt)
	if err != nil {
		return models.Meme{}, fmt.Errorf("repo: insert meme: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Meme{}, fmt.Errorf("%w: %v", apperr.ErrKeyGeneration, err)
	}
	return models.Meme{
		ID:          id,
		Kind:        payload.Kind,
		FileName:    payload.FileName,
		Description: payload.Description,
		Extension:   payload.Extension,
		CreatedAt:   createdAt,
	}, nil
}

// FindMeme returns the meme with the given id, or apperr.ErrNotFound.
func (db *DB) FindMeme(id int64) (models.Meme, error) {
	row := db.conn.QueryRow(`SELECT `+memeColumns+` FROM memes WHERE id = ? LIMIT 1`, id)
	m, err := scanMeme(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Meme{}, fmt.Errorf("%w: meme %d", apperr.ErrNotFound, id)
	}
	return m, err
}

// TotalCount returns the number of meme rows.
func (db *DB) TotalCount() (int, error) {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(id) FROM memes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repo: total count: %w", err)
	}
	return count, nil
}

// ListMemes returns one page of memes in stable id order. Page is
// 1-based; page 0 is normalized to 1.
func (db *DB) ListMemes(page, size int) ([]models.Meme, error) {
	if page == 0 {
		page = 1
	}
	rows, err := db.conn.Query(`
		SELECT `+memeColumns+` FROM memes
		ORDER BY id
		LIMIT ? OFFSET ?
	`, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("repo: list memes: %w", err)
	}
	return collectMemes(rows)
}

// SearchMemes performs a fuzzy search over description and filename.
// size+1 rows are fetched so the caller can cheaply detect whether a
// next page exists: when more than size rows come back, trim to size
// and set hasNext.
func (db *DB) SearchMemes(query string, page, size int) ([]models.Meme, error) {
	if page == 0 {
		page = 1
	}
	rows, err := db.conn.Query(`
		SELECT `+memeColumns+` FROM memes
		WHERE token_set_partial_ratio(description, ?) > ?
		   OR token_set_partial_ratio(filename, ?) > ?
		ORDER BY id
		LIMIT ? OFFSET ?
	`, query, searchThreshold, query, searchThreshold, size+1, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("repo: search memes: %w", err)
	}
	return collectMemes(rows)
}

// UpdateMeme applies the non-nil fields of the patch and stamps
// updated_at. An empty patch is a no-op; callers that only changed tag
// links should use TouchMeme instead.
func (db *DB) UpdateMeme(id int64, patch models.MemePatch) error {
	if patch.IsZero() {
		return nil
	}
	res, err := db.conn.Exec(`
		UPDATE memes SET
			filename    = COALESCE(?, filename),
			description = COALESCE(?, description),
			extension   = COALESCE(?, extension),
			updated_at  = ?
		WHERE id = ?
	`, patch.FileName, patch.Description, patch.Extension, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repo: update meme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: meme %d", apperr.ErrNotFound, id)
	}
	return nil
}

// TouchMeme sets updated_at to now without changing content fields.
func (db *DB) TouchMeme(id int64) error {
	res, err := db.conn.Exec(`UPDATE memes SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("repo: touch meme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: meme %d", apperr.ErrNotFound, id)
	}
	return nil
}

// DeleteMeme removes a meme row. Used to clean up an orphan row when
// the content write fails after a successful insert.
func (db *DB) DeleteMeme(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM memes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("repo: delete meme: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeme(row rowScanner) (models.Meme, error) {
	var (
		m         models.Meme
		kindID    int
		extension sql.NullString
		updatedAt sql.NullTime
	)
	err := row.Scan(&m.ID, &kindID, &m.FileName, &m.Description, &extension, &m.CreatedAt, &updatedAt)
	if err != nil {
		return models.Meme{}, err
	}
	m.Kind, err = models.KindFromID(kindID)
	if err != nil {
		return models.Meme{}, err
	}
	if extension.Valid {
		m.Extension = &extension.String
	}
	if updatedAt.Valid {
		m.UpdatedAt = &updatedAt.Time
	}
	return m, nil
}

func collectMemes(rows *sql.Rows) ([]models.Meme, error) {
	defer rows.Close()
	var out []models.Meme
	for rows.Next() {
		m, err := scanMeme(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
