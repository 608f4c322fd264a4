// Package repo provides the SQLite-backed metadata store: meme records,
// the tag catalog, and the tag-link index.
package repo

import (
	"database/sql"
	"fmt"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS memes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	kind_id     INTEGER NOT NULL,
	filename    TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	extension   TEXT,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME
);

CREATE TABLE IF NOT EXISTS tags (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	scope TEXT NOT NULL,
	value TEXT,
	UNIQUE(scope, value)
);

CREATE TABLE IF NOT EXISTS tag_links (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	tag_id  INTEGER NOT NULL REFERENCES tags(id),
	meme_id INTEGER NOT NULL REFERENCES memes(id),
	UNIQUE(tag_id, meme_id)
);

CREATE INDEX IF NOT EXISTS idx_tag_links_meme ON tag_links(meme_id);
CREATE INDEX IF NOT EXISTS idx_tag_links_tag  ON tag_links(tag_id);
`

// driverName is a sqlite3 driver variant that exposes the fuzzy scoring
// function to SQL, so search keeps the WHERE-clause shape of a plain
// relational query.
const driverName = "sqlite3_memendex"

var registerDriver sync.Once

// DB wraps a sql.DB with repository operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
// The connection registers token_set_partial_ratio(text, query) as a
// pure SQL function returning a 0-100 similarity score.
func Open(dsn string) (*DB, error) {
	registerDriver.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("token_set_partial_ratio",
					func(text, query string) int {
						return fuzzy.PartialTokenSetRatio(text, query)
					}, true)
			},
		})
	})

	conn, err := sql.Open(driverName, dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("repo: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("repo: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("repo: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
