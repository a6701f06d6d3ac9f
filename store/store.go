/*
Package store persists rebate configuration: program rule tables and named
assumption tables.

PURPOSE:
  Configuration survives restarts; grower inputs and evaluation results
  never touch storage. The server seeds an empty store with the default
  programs and table, and restores them on reset.

IMPLEMENTATIONS:
  Memory:        map-backed, for tests and ephemeral runs
  sqlite.Store:  SQLite-backed, see store/sqlite

RECORDS:
  Records hold serialized JSON rather than typed programs so the store has
  no opinion about rule families. factory/ owns the encoding.

SEE ALSO:
  - factory/program.go: ProgramJSON <-> programs.Program
  - assumptions/: Table loading and validation
*/
package store

import (
	"context"
	"time"
)

// DefaultAssumptions is the name of the assumption table the server evaluates with.
const DefaultAssumptions = "default"

// ProgramRecord is one persisted program configuration.
type ProgramRecord struct {
	ID         string
	Company    string
	Kind       string
	Position   int
	ParamsJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AssumptionRecord is one persisted assumption table.
type AssumptionRecord struct {
	Name      string
	TableJSON string
	Version   int
	UpdatedAt time.Time
}

// Store is the configuration persistence contract.
type Store interface {
	// SaveProgram inserts or replaces a program, bumping its version on replace.
	SaveProgram(ctx context.Context, p ProgramRecord) error

	// GetProgram returns nil, nil when the program does not exist.
	GetProgram(ctx context.Context, id string) (*ProgramRecord, error)

	// ListPrograms returns every program ordered by position, then ID.
	ListPrograms(ctx context.Context) ([]ProgramRecord, error)

	// DeleteProgram returns engine.ErrProgramNotFound when nothing was deleted.
	DeleteProgram(ctx context.Context, id string) error

	// SaveAssumptions inserts or replaces a named table.
	SaveAssumptions(ctx context.Context, name, tableJSON string) error

	// GetAssumptions returns nil, nil when the table does not exist.
	GetAssumptions(ctx context.Context, name string) (*AssumptionRecord, error)

	// Reset removes every program and table.
	Reset(ctx context.Context) error

	Close() error
}
