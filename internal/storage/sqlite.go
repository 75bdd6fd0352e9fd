package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const documentSchema = `
CREATE TABLE IF NOT EXISTS documents (
	kind       TEXT    NOT NULL,
	id         TEXT    NOT NULL,
	load_id    TEXT    NOT NULL DEFAULT '',
	body       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (kind, id)
);
CREATE INDEX IF NOT EXISTS documents_load_id ON documents (kind, load_id);
`

// SQLiteStore persists documents in a single SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) a SQLite document store at path.
// The path ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(documentSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, kind, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, id, load_id, body FROM documents WHERE kind = ? AND id = ?`, kind, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s %q: %w", kind, id, err)
	}
	return doc, nil
}

func (s *SQLiteStore) GetByLoadID(ctx context.Context, kind string, loadID Identifier) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, id, load_id, body FROM documents WHERE kind = ? AND load_id = ? ORDER BY updated_at DESC LIMIT 1`,
		kind, string(loadID))

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s load id %q: %w", kind, loadID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s load id %q: %w", kind, loadID, err)
	}
	return doc, nil
}

func (s *SQLiteStore) Put(ctx context.Context, doc *Document) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO documents (kind, id, load_id, body, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (kind, id) DO UPDATE SET
	load_id = excluded.load_id,
	body = excluded.body,
	updated_at = excluded.updated_at`,
		doc.Kind, doc.ID, string(doc.LoadID), []byte(doc.Body), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing %s %q: %w", doc.Kind, doc.ID, err)
	}
	return nil
}

func scanDocument(row *sql.Row) (*Document, error) {
	var (
		doc    Document
		loadID string
		body   []byte
	)
	if err := row.Scan(&doc.Kind, &doc.ID, &loadID, &body); err != nil {
		return nil, err
	}
	doc.LoadID = Identifier(loadID)
	doc.Body = body
	return &doc, nil
}
