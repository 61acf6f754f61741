package rowkit

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/rowkit/rowkit/internal/ring"
	"github.com/rowkit/rowkit/internal/stmt"
)

// Executor is the statement-execution contract the store depends on. One
// method covers every statement: data-changing statements return an empty
// row set and aggregate selects return a single row holding the scalar.
type Executor interface {
	Query(ctx context.Context, query string) ([]Row, error)
}

// traceDepth is how many recent statements a verbose DB retains.
const traceDepth = 64

// DB implements Executor over *sql.DB, routing data-changing statements
// through Exec and everything else through Query.
type DB struct {
	*sql.DB
	log   *slog.Logger
	trace *ring.Ring[string]
}

// NewDB wraps a *sql.DB for use as an Executor. A nil logger falls back to
// slog.Default; verbose enables statement retention via Trace.
func NewDB(db *sql.DB, logger *slog.Logger, verbose bool) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	depth := 0
	if verbose {
		depth = traceDepth
	}
	return &DB{DB: db, log: logger, trace: ring.New[string](depth)}
}

// Query executes one statement and returns its rows.
func (db *DB) Query(ctx context.Context, q string) ([]Row, error) {
	start := time.Now()
	parsed, recognized := stmt.Parse(q)
	var rows []Row
	var err error
	if recognized && parsed.IsDML() {
		_, err = db.DB.ExecContext(ctx, q)
	} else {
		rows, err = db.queryRows(ctx, q)
	}
	db.trace.Add(q)

	attrs := []any{
		slog.String("op", parsed.Op),
		slog.String("table", parsed.Table),
		slog.Int("rows", len(rows)),
		slog.Duration("elapsed", time.Since(start)),
	}
	if id := traceID(ctx); id != "" {
		attrs = append(attrs, slog.String("trace_id", id))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	db.log.DebugContext(ctx, "rowkit: statement", attrs...)

	if err != nil {
		return nil, err
	}
	return rows, nil
}

// queryRows scans every result row into a Row map.
func (db *DB) queryRows(ctx context.Context, q string) ([]Row, error) {
	rows, err := db.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, rowFromScan(cols, vals))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// rowFromScan converts scanned driver values to a Row. Byte slices become
// strings; every textual payload, hex included, arrives that way from the
// driver.
func rowFromScan(cols []string, vals []any) Row {
	m := make(Row, len(cols))
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			m[c] = string(b)
			continue
		}
		m[c] = v
	}
	return m
}

// Trace returns the most recently executed statements, oldest first; empty
// unless the DB was built verbose.
func (db *DB) Trace() []string {
	return db.trace.Snapshot()
}

// ResetTrace drops the retained statements.
func (db *DB) ResetTrace() {
	db.trace.Reset()
}
