package rowkit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowkit/rowkit/internal/ident"
)

// Model is the contract every mapped record type satisfies, usually by
// embedding Record and declaring its columns with Fields.
type Model interface {
	// Fields returns the declared columns in order, with refs into the
	// instance.
	Fields() []Field

	record() *Record

	// Lifecycle notifications. No-ops unless the concrete type shadows them;
	// a returned error propagates out of the triggering operation.
	OnCreated(ctx context.Context) error
	OnUpdated(ctx context.Context) error
	OnDeleted(ctx context.Context) error
	OnEncoded(ctx context.Context) error
	OnDecoded(ctx context.Context) error

	// Override hooks for auxiliary values not representable as a Field: the
	// encoding form may rewrite the assembled row, the decoding form reads
	// additional columns back out of it.
	OverrideEncoding(row Row) (Row, error)
	OverrideDecoding(row Row) error
}

// Record is the embeddable base carrying identity and timestamps. An empty
// ID means the record is detached; Create assigns the ID and only Delete
// clears it.
type Record struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) record() *Record { return r }

func (r *Record) OnCreated(context.Context) error { return nil }
func (r *Record) OnUpdated(context.Context) error { return nil }
func (r *Record) OnDeleted(context.Context) error { return nil }
func (r *Record) OnEncoded(context.Context) error { return nil }
func (r *Record) OnDecoded(context.Context) error { return nil }

func (r *Record) OverrideEncoding(row Row) (Row, error) { return row, nil }
func (r *Record) OverrideDecoding(Row) error            { return nil }

// maxCreateAttempts bounds the id-collision retry loop in Create. Random ids
// make a collision vanishingly rare; hitting the bound means something is
// broken, not unlucky.
const maxCreateAttempts = 100

// Create inserts a detached record: it stamps both timestamps, encodes the
// record once, then draws a random id and retries with a fresh id for as
// long as the insert collides on the primary key.
func (s *Store) Create(ctx context.Context, m Model) error {
	rec := m.record()
	if rec.ID != "" {
		return newError(CodeInvalidRequest, "create: record already has id %q", rec.ID)
	}
	table, err := resolveTable(m)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	row, err := Encode(ctx, m)
	if err != nil {
		return err
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		id := uuid.NewString()
		row[ColumnID] = id
		if _, err := s.exec.Query(ctx, insertSQL(table, row)); err != nil {
			cerr := s.classify(err, table)
			if errors.Is(cerr, errIDCollision) {
				s.log.WarnContext(ctx, "rowkit: id collision, retrying",
					"table", table, "attempt", attempt)
				continue
			}
			return cerr
		}
		rec.ID = id
		return m.OnCreated(ctx)
	}
	return newError(CodeRetryExhausted, "create: gave up after %d id collisions on %s", maxCreateAttempts, table)
}

// Update rewrites every column of a persisted record, stamping the update
// timestamp first.
func (s *Store) Update(ctx context.Context, m Model) error {
	rec := m.record()
	if rec.ID == "" {
		return newError(CodeInvalidRequest, "update: record has no id")
	}
	table, err := resolveTable(m)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	row, err := Encode(ctx, m)
	if err != nil {
		return err
	}
	delete(row, ColumnID)
	if _, err := s.exec.Query(ctx, updateSQL(table, rec.ID, row)); err != nil {
		return s.storageError(err, table)
	}
	return m.OnUpdated(ctx)
}

// UpdateColumns rewrites only the named columns of a persisted record,
// always including the update timestamp. A column that is neither declared
// nor produced by the encoding override is rejected; a declared column whose
// value is unset writes NULL.
func (s *Store) UpdateColumns(ctx context.Context, m Model, cols ...string) error {
	rec := m.record()
	if rec.ID == "" {
		return newError(CodeInvalidRequest, "update: record has no id")
	}
	table, err := resolveTable(m)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now().UTC()
	row, err := Encode(ctx, m)
	if err != nil {
		return err
	}
	delete(row, ColumnID)

	valid := make(map[string]bool, len(row))
	for name := range row {
		valid[name] = true
	}
	for _, f := range m.Fields() {
		valid[f.Name] = true
	}
	keep := Row{ColumnUpdatedAt: row[ColumnUpdatedAt]}
	for _, c := range cols {
		if !valid[c] {
			return newError(CodeParameterFormat, "update: unknown column %q", c)
		}
		keep[c] = row[c]
	}
	if _, err := s.exec.Query(ctx, updateSQL(table, rec.ID, keep)); err != nil {
		return s.storageError(err, table)
	}
	return m.OnUpdated(ctx)
}

// Delete removes a persisted record and detaches the instance; the cleared
// id makes any further Update or Delete an invalid request.
func (s *Store) Delete(ctx context.Context, m Model) error {
	rec := m.record()
	if rec.ID == "" {
		return newError(CodeInvalidRequest, "delete: record has no id")
	}
	table, err := resolveTable(m)
	if err != nil {
		return err
	}
	if _, err := s.exec.Query(ctx, deleteSQL(table, rec.ID)); err != nil {
		return s.storageError(err, table)
	}
	rec.ID = ""
	return m.OnDeleted(ctx)
}

// Save dispatches to Create for a detached record and to Update otherwise.
func (s *Store) Save(ctx context.Context, m Model) error {
	if m.record().ID == "" {
		return s.Create(ctx, m)
	}
	return s.Update(ctx, m)
}

func insertSQL(table string, row Row) string {
	cols := sortedColumns(row)
	vals := make([]string, len(cols))
	for i, c := range cols {
		vals[i] = literal(row[c])
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		table, strings.Join(cols, ", "), strings.Join(vals, ", "))
}

func updateSQL(table, id string, row Row) string {
	cols := sortedColumns(row)
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + "=" + literal(row[c])
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE (id=%s);",
		table, strings.Join(sets, ", "), ident.Literal(id))
}

func deleteSQL(table, id string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE (id=%s);", table, ident.Literal(id))
}

// sortedColumns fixes the column order so generated statements are stable.
func sortedColumns(row Row) []string {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}
