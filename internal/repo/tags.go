package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/models"
)

// AddOrFindTag returns the tag with the given scope/value, inserting it
// first if absent. Scope and value are lowercased before lookup. A nil
// value matches only rows whose value is NULL.
func (db *DB) AddOrFindTag(scope string, value *string) (models.Tag, error) {
	scope = strings.ToLower(scope)
	if value != nil {
		lowered := strings.ToLower(*value)
		value = &lowered
	}

	existing, err := db.findTag(scope, value)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return models.Tag{}, err
	}

	res, err := db.conn.Exec(`INSERT INTO tags (scope, value) VALUES (?, ?)`, scope, value)
	if err != nil {
		return models.Tag{}, fmt.Errorf("repo: insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Tag{}, fmt.Errorf("%w: %v", apperr.ErrKeyGeneration, err)
	}
	return models.Tag{ID: id, Scope: scope, Value: value}, nil
}

// GetTag returns the tag with the given id, or apperr.ErrNotFound.
func (db *DB) GetTag(id int64) (models.Tag, error) {
	row := db.conn.QueryRow(`SELECT id, scope, value FROM tags WHERE id = ? LIMIT 1`, id)
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("%w: tag %d", apperr.ErrNotFound, id)
	}
	return t, err
}

func (db *DB) findTag(scope string, value *string) (models.Tag, error) {
	var row *sql.Row
	if value == nil {
		row = db.conn.QueryRow(`SELECT id, scope, value FROM tags WHERE scope = ? AND value IS NULL LIMIT 1`, scope)
	} else {
		row = db.conn.QueryRow(`SELECT id, scope, value FROM tags WHERE scope = ? AND value = ? LIMIT 1`, scope, *value)
	}
	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, apperr.ErrNotFound
	}
	return t, err
}

// DeleteTag hard-deletes a tag row. Callers are responsible for making
// sure no tag_links still reference it.
func (db *DB) DeleteTag(id int64) error {
	if _, err := db.conn.Exec(`DELETE FROM tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("repo: delete tag: %w", err)
	}
	return nil
}

// SearchTags returns tags whose canonical "scope/value" form contains
// the search term.
func (db *DB) SearchTags(term string) ([]models.Tag, error) {
	rows, err := db.conn.Query(`
		SELECT id, scope, value FROM tags
		WHERE (scope || '/' || COALESCE(value, '')) LIKE '%' || ? || '%'
		ORDER BY id
	`, strings.ToLower(term))
	if err != nil {
		return nil, fmt.Errorf("repo: search tags: %w", err)
	}
	defer rows.Close()

	var out []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TopTags returns the most-used tags, ordered by descending link count.
func (db *DB) TopTags(limit int) ([]models.TagUsage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT t.scope, t.value, COUNT(*) AS count
		FROM tag_links l
		INNER JOIN tags t ON l.tag_id = t.id
		GROUP BY l.tag_id
		ORDER BY count DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: top tags: %w", err)
	}
	return collectUsages(rows)
}

// SuggestTags returns the most-used tags whose canonical form contains
// the search term.
func (db *DB) SuggestTags(term string, limit int) ([]models.TagUsage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT t.scope, t.value, COUNT(*) AS count
		FROM tag_links l
		INNER JOIN tags t ON l.tag_id = t.id
		WHERE (t.scope || '/' || COALESCE(t.value, '')) LIKE '%' || ? || '%'
		GROUP BY l.tag_id
		ORDER BY count DESC
		LIMIT ?
	`, strings.ToLower(term), limit)
	if err != nil {
		return nil, fmt.Errorf("repo: suggest tags: %w", err)
	}
	return collectUsages(rows)
}

func scanTag(row rowScanner) (models.Tag, error) {
	var (
		t     models.Tag
		value sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Scope, &value); err != nil {
		return models.Tag{}, err
	}
	if value.Valid {
		t.Value = &value.String
	}
	return t, nil
}

func collectUsages(rows *sql.Rows) ([]models.TagUsage, error) {
	defer rows.Close()
	var out []models.TagUsage
	for rows.Next() {
		var (
			scope string
			value sql.NullString
			count int
		)
		if err := rows.Scan(&scope, &value, &count); err != nil {
			return nil, err
		}
		tag := models.Tag{Scope: scope}
		if value.Valid {
			tag.Value = &value.String
		}
		out = append(out, models.TagUsage{Tag: tag.String(), Count: count})
	}
	return out, rows.Err()
}
