// Package rowkit maps typed records to table rows over PostgreSQL: it
// generates SQL text from composable filter/sort/limit descriptions,
// marshals declared fields through a closed set of value kinds, and drives
// the create/update/delete lifecycle of individual records.
package rowkit

import (
	"database/sql"
	"log/slog"
)

// Config defines the main configuration options for rowkit.
type Config struct {
	DuplicateKeyLabels map[string]string // constraint name -> user-facing field label
	Verbose            bool              // retain recent statements on the wrapped DB
	Logger             *slog.Logger      // defaults to slog.Default()
}

// Store is the main entry point: lifecycle operations and queries run
// against its executor.
type Store struct {
	exec Executor
	cfg  Config
	log  *slog.Logger
}

// New creates a Store on an executor with sensible defaults.
func New(exec Executor, cfg Config) *Store {
	if cfg.DuplicateKeyLabels == nil {
		cfg.DuplicateKeyLabels = map[string]string{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{exec: exec, cfg: cfg, log: cfg.Logger}
}

// WrapDB attaches rowkit to a *sql.DB connection.
func WrapDB(db *sql.DB, cfg Config) *Store {
	return New(NewDB(db, cfg.Logger, cfg.Verbose), cfg)
}

// Executor exposes the store's executor, mainly so callers holding a Store
// built by WrapDB can reach the statement trace.
func (s *Store) Executor() Executor {
	return s.exec
}
