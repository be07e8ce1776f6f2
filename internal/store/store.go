// Package store persists book outlines in SQLite as a flat table of
// parent-pointer rows.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eykd/booktree-go/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS book_outline (
	item_id   TEXT PRIMARY KEY,
	book_id   TEXT NOT NULL,
	parent_id TEXT NOT NULL DEFAULT '',
	weight    INTEGER NOT NULL DEFAULT 0,
	depth     INTEGER NOT NULL DEFAULT 0,
	seq       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_book_outline_book ON book_outline(book_id);
CREATE INDEX IF NOT EXISTS idx_book_outline_parent ON book_outline(parent_id);
`

// Store is the SQLite outline store. It implements both the outline
// manager's Persister and Loader.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Apply writes ch in a single transaction: deletes first, then upserts.
func (s *Store) Apply(ctx context.Context, ch domain.Change) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(ch.Deletes) > 0 {
		del, err := tx.PrepareContext(ctx, `DELETE FROM book_outline WHERE item_id = ?`)
		if err != nil {
			return fmt.Errorf("preparing delete: %w", err)
		}
		defer del.Close()
		for _, id := range ch.Deletes {
			if _, err := del.ExecContext(ctx, id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
		}
	}

	if len(ch.Upserts) > 0 {
		up, err := tx.PrepareContext(ctx, `
			INSERT INTO book_outline (item_id, book_id, parent_id, weight, depth, seq)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(item_id) DO UPDATE SET
				book_id = excluded.book_id,
				parent_id = excluded.parent_id,
				weight = excluded.weight,
				depth = excluded.depth,
				seq = excluded.seq`)
		if err != nil {
			return fmt.Errorf("preparing upsert: %w", err)
		}
		defer up.Close()
		for _, e := range ch.Upserts {
			if _, err := up.ExecContext(ctx, e.ItemID, e.BookID, e.ParentID, e.Weight, e.Depth, e.Seq); err != nil {
				return fmt.Errorf("upserting %s: %w", e.ItemID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing outline change: %w", err)
	}
	return nil
}

// LoadEntries returns every stored entry in creation order.
func (s *Store) LoadEntries(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, book_id, parent_id, weight, depth, seq
		FROM book_outline
		ORDER BY seq, item_id`)
	if err != nil {
		return nil, fmt.Errorf("querying outline: %w", err)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ItemID, &e.BookID, &e.ParentID, &e.Weight, &e.Depth, &e.Seq); err != nil {
			return nil, fmt.Errorf("scanning outline row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading outline rows: %w", err)
	}
	return entries, nil
}
