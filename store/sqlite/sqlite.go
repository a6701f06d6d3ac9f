/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists program configurations and assumption tables across restarts.
  Grower inputs are never written.

KEY TABLES:
  programs:          One row per program; params_json holds the rule table
  assumption_tables: One row per named table; table_json holds the full table

VERSIONING:
  Both tables carry a version column bumped on every replace, so an
  operator can tell an edited program from a seeded one.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql's pool.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the single writer.

USAGE:
  st, err := sqlite.New("./data/rebates.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS programs (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		params_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_programs_position
		ON programs(position, id);

	CREATE TABLE IF NOT EXISTS assumption_tables (
		name TEXT PRIMARY KEY,
		table_json TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROGRAM STORE
// =============================================================================

// SaveProgram inserts or replaces a program record.
func (s *Store) SaveProgram(ctx context.Context, p store.ProgramRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO programs (id, company, kind, position, params_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company = excluded.company,
			kind = excluded.kind,
			position = excluded.position,
			params_json = excluded.params_json,
			version = programs.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Company, p.Kind, p.Position, p.ParamsJSON, now, now,
	)
	return err
}

// GetProgram retrieves a program by ID.
func (s *Store) GetProgram(ctx context.Context, id string) (*store.ProgramRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, company, kind, position, params_json, version, created_at, updated_at FROM programs WHERE id = ?",
		id,
	)
	p, err := scanProgram(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrograms returns all programs in evaluation order.
func (s *Store) ListPrograms(ctx context.Context) ([]store.ProgramRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, company, kind, position, params_json, version, created_at, updated_at FROM programs ORDER BY position, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ProgramRecord
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProgram removes a program.
func (s *Store) DeleteProgram(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM programs WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", engine.ErrProgramNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProgram(sc scanner) (store.ProgramRecord, error) {
	var p store.ProgramRecord
	var createdAt, updatedAt string
	if err := sc.Scan(&p.ID, &p.Company, &p.Kind, &p.Position, &p.ParamsJSON, &p.Version, &createdAt, &updatedAt); err != nil {
		return store.ProgramRecord{}, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}

// =============================================================================
// ASSUMPTION STORE
// =============================================================================

// SaveAssumptions inserts or replaces a named assumption table.
func (s *Store) SaveAssumptions(ctx context.Context, name, tableJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO assumption_tables (name, table_json, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(name) DO UPDATE SET
			table_json = excluded.table_json,
			version = assumption_tables.version + 1,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, name, tableJSON, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetAssumptions retrieves a named assumption table.
func (s *Store) GetAssumptions(ctx context.Context, name string) (*store.AssumptionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec store.AssumptionRecord
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, table_json, version, updated_at FROM assumption_tables WHERE name = ?",
		name,
	).Scan(&rec.Name, &rec.TableJSON, &rec.Version, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"programs", "assumption_tables"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
