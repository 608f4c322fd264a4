package repo

import (
	"fmt"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/models"
)

// LinksForMeme returns every tag link citing the given meme.
func (db *DB) LinksForMeme(memeID int64) ([]models.TagLink, error) {
	rows, err := db.conn.Query(`SELECT id, tag_id, meme_id FROM tag_links WHERE meme_id = ?`, memeID)
	if err != nil {
		return nil, fmt.Errorf("repo: links for meme: %w", err)
	}
	defer rows.Close()

	var out []models.TagLink
	for rows.Next() {
		var l models.TagLink
		if err := rows.Scan(&l.ID, &l.TagID, &l.MemeID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TagIDsForMeme returns the ids of every tag linked to the meme,
// ordered by link id so enrichment produces a stable label order.
func (db *DB) TagIDsForMeme(memeID int64) ([]int64, error) {
	rows, err := db.conn.Query(`SELECT tag_id FROM tag_links WHERE meme_id = ? ORDER BY id`, memeID)
	if err != nil {
		return nil, fmt.Errorf("repo: tag ids for meme: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CreateLink relates a tag to a meme.
func (db *DB) CreateLink(tagID, memeID int64) (models.TagLink, error) {
	res, err := db.conn.Exec(`INSERT INTO tag_links (tag_id, meme_id) VALUES (?, ?)`, tagID, memeID)
	if err != nil {
		return models.TagLink{}, fmt.Errorf("repo: create link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TagLink{}, fmt.Errorf("%w: %v", apperr.ErrKeyGeneration, err)
	}
	return models.TagLink{ID: id, TagID: tagID, MemeID: memeID}, nil
}

// DeleteLink removes a single tag link by its own id.
func (db *DB) DeleteLink(linkID int64) error {
	if _, err := db.conn.Exec(`DELETE FROM tag_links WHERE id = ?`, linkID); err != nil {
		return fmt.Errorf("repo: delete link: %w", err)
	}
	return nil
}

// ReferenceCount returns how many links cite the given tag.
func (db *DB) ReferenceCount(tagID int64) (int, error) {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM tag_links WHERE tag_id = ?`, tagID).Scan(&count); err != nil {
		return 0, fmt.Errorf("repo: reference count: %w", err)
	}
	return count, nil
}
