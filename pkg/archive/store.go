package archive

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is a single saved text together with the settings that produced it.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	MinLength int       `json:"min_length"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// SetupSchema initializes the table that records saved texts in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaTexts = `
CREATE TABLE IF NOT EXISTS saved_texts (
    text_id TEXT PRIMARY KEY,
    text_name TEXT NOT NULL,
    file_path TEXT NOT NULL,
    body TEXT NOT NULL,
    chain_order INTEGER NOT NULL,
    min_length INTEGER NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);
`
		indexCreated = `CREATE INDEX IF NOT EXISTS idx_saved_texts_created ON saved_texts (created_at);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaTexts); err != nil {
		return fmt.Errorf("could not create schema: %w", err)
	}

	if _, err = tx.Exec(indexCreated); err != nil {
		return fmt.Errorf("could not create index: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store records saved texts in a SQLite database using prepared statements.
type Store struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtGet    *sql.Stmt
	stmtList   *sql.Stmt
	stmtCount  *sql.Stmt
	logger     *slog.Logger
}

// NewStore creates a Store on a database prepared with SetupSchema. It
// pre-compiles all necessary SQL statements, returning an error if any
// preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtInsert, err := db.Prepare(`INSERT INTO saved_texts (text_id, text_name, file_path, body, chain_order, min_length, source, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtGet, err := db.Prepare(`SELECT text_id, text_name, file_path, body, chain_order, min_length, source, created_at FROM saved_texts WHERE text_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtList, err := db.Prepare(`SELECT text_id, text_name, file_path, body, chain_order, min_length, source, created_at FROM saved_texts ORDER BY created_at DESC, text_id LIMIT ?;`)
	if err != nil {
		return nil, err
	}

	stmtCount, err := db.Prepare(`SELECT COUNT(*) FROM saved_texts;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		stmtInsert: stmtInsert,
		stmtGet:    stmtGet,
		stmtList:   stmtList,
		stmtCount:  stmtCount,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store. The database
// itself is left open.
func (s *Store) Close() {
	_ = s.stmtInsert.Close()
	_ = s.stmtGet.Close()
	_ = s.stmtList.Close()
	_ = s.stmtCount.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Insert records entry. A missing ID is filled with a new UUID and a zero
// CreatedAt with the current time; both are written back to entry.
func (s *Store) Insert(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.stmtInsert.ExecContext(ctx,
		entry.ID, entry.Name, entry.Path, entry.Text,
		entry.Order, entry.MinLength, entry.Source, entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("could not insert saved text '%s': %w", entry.Name, err)
	}

	s.logger.DebugContext(ctx, "Saved text recorded",
		slog.String("text_id", entry.ID),
		slog.String("text_name", entry.Name),
	)
	return nil
}

// Get retrieves a single saved text by ID. It returns sql.ErrNoRows if the
// ID is unknown.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	return scanEntry(s.stmtGet.QueryRowContext(ctx, id))
}

// List returns up to limit saved texts, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.stmtList.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of saved texts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.stmtCount.QueryRowContext(ctx).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var entry Entry
	var createdAt int64
	err := row.Scan(&entry.ID, &entry.Name, &entry.Path, &entry.Text,
		&entry.Order, &entry.MinLength, &entry.Source, &createdAt)
	if err != nil {
		return nil, err
	}
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return &entry, nil
}
