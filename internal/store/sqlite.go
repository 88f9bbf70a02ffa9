package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rgehrsitz/satax/internal/saga"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	tax_year   INTEGER NOT NULL,
	state      TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_updated_at ON submissions (updated_at);
`

// SQLiteStore implements saga.Store on a SQLite database. The whole
// snapshot is kept as JSON; state and tax year are copied into columns
// for listing.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at dsn and ensures the
// schema exists. Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// withPragmas appends the connection options, keeping any query the caller
// already put on a file: URI.
func withPragmas(dsn string) string {
	const pragmas = "_foreign_keys=on&_busy_timeout=5000"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + pragmas
	}
	return dsn + "?" + pragmas
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, snap saga.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot has no id")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode submission %s: %w", snap.ID, err)
	}
	createdAt, updatedAt := snap.CreatedAt, snap.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submissions (id, tax_year, state, payload, created_at, updated_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			tax_year=excluded.tax_year,
			state=excluded.state,
			payload=excluded.payload,
			updated_at=excluded.updated_at`,
		snap.ID, snap.TaxYear.StartYear, snap.State.String(), string(payload), createdAt, updatedAt,
	)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (saga.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM submissions WHERE id=?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return saga.Snapshot{}, fmt.Errorf("%w: %s", saga.ErrNotFound, id)
	}
	if err != nil {
		return saga.Snapshot{}, err
	}
	return decodeSnapshot([]byte(payload))
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM submissions WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", saga.ErrNotFound, id)
	}
	return nil
}

// List returns every snapshot, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]saga.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM submissions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []saga.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// ListByState returns the snapshots in one state, most recent first.
func (s *SQLiteStore) ListByState(ctx context.Context, state saga.State) ([]saga.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM submissions WHERE state=? ORDER BY updated_at DESC, id`, state.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []saga.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		snap, err := decodeSnapshot([]byte(payload))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

var (
	_ saga.Store = (*MemoryStore)(nil)
	_ saga.Store = (*SQLiteStore)(nil)
)
