package rowkit

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SortDir orders a result ascending or descending.
type SortDir string

const (
	Asc  SortDir = "ASC"
	Desc SortDir = "DESC"
)

// Sort is a single-key ordering.
type Sort struct {
	Field string
	Dir   SortDir
}

// SQL compiles the ordering fragment.
func (s Sort) SQL() string {
	dir := s.Dir
	if dir == "" {
		dir = Asc
	}
	return fmt.Sprintf("ORDER BY %s %s", s.Field, dir)
}

// Query describes a filtered, ordered, bounded SELECT over the table of T.
type Query[T Model] struct {
	store  *Store
	table  string
	err    error
	filter *Filter
	sort   *Sort
	limit  int
}

// NewQuery starts a query over T's table.
func NewQuery[T Model](s *Store) *Query[T] {
	table, err := tableOf[T]()
	return &Query[T]{store: s, table: table, err: err}
}

// Where sets the filter root.
func (q *Query[T]) Where(f *Filter) *Query[T] {
	q.filter = f
	return q
}

// OrderBy sets the single sort key.
func (q *Query[T]) OrderBy(field string, dir SortDir) *Query[T] {
	q.sort = &Sort{Field: field, Dir: dir}
	return q
}

// Limit bounds the row count; zero means no limit.
func (q *Query[T]) Limit(n int) *Query[T] {
	q.limit = n
	return q
}

// All executes the SELECT form and decodes every row into a fresh T,
// preserving result order.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	sel, err := q.selectSQL()
	if err != nil {
		return nil, err
	}
	rows, err := q.store.exec.Query(ctx, sel)
	if err != nil {
		return nil, q.store.storageError(err, q.table)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		m := newInstance[T]()
		if err := Decode(ctx, m, row); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// First executes with limit 1 and fails with a not-found error on an empty
// result.
func (q *Query[T]) First(ctx context.Context) (T, error) {
	var zero T
	ms, err := q.Limit(1).All(ctx)
	if err != nil {
		return zero, err
	}
	if len(ms) == 0 {
		return zero, newError(CodeNotFound, "no row in %s matched", q.table)
	}
	return ms[0], nil
}

// FirstOrNil is First with absence allowed: it returns the zero T and no
// error when nothing matched.
func (q *Query[T]) FirstOrNil(ctx context.Context) (T, error) {
	var zero T
	ms, err := q.Limit(1).All(ctx)
	if err != nil {
		return zero, err
	}
	if len(ms) == 0 {
		return zero, nil
	}
	return ms[0], nil
}

// Count executes the COUNT form and returns the scalar.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	cnt, err := q.countSQL()
	if err != nil {
		return 0, err
	}
	rows, err := q.store.exec.Query(ctx, cnt)
	if err != nil {
		return 0, q.store.storageError(err, q.table)
	}
	return scalarCount(rows)
}

// Exists reports whether any row matches.
func (q *Query[T]) Exists(ctx context.Context) (bool, error) {
	n, err := q.Count(ctx)
	return n > 0, err
}

func (q *Query[T]) selectSQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(q.table)
	if q.filter != nil {
		w, err := q.filter.SQL()
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE (")
		b.WriteString(w)
		b.WriteString(")")
	}
	if q.sort != nil {
		b.WriteString(" ")
		b.WriteString(q.sort.SQL())
	}
	if q.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.limit))
	}
	b.WriteString(";")
	return b.String(), nil
}

func (q *Query[T]) countSQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) FROM ")
	b.WriteString(q.table)
	if q.filter != nil {
		w, err := q.filter.SQL()
		if err != nil {
			return "", err
		}
		b.WriteString(" WHERE (")
		b.WriteString(w)
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), nil
}

// scalarCount pulls the single aggregate value out of a COUNT result.
func scalarCount(rows []Row) (int64, error) {
	if len(rows) != 1 {
		return 0, newError(CodeStorage, "count returned %d rows", len(rows))
	}
	for _, v := range rows[0] {
		switch t := v.(type) {
		case int64:
			return t, nil
		case int:
			return int64(t), nil
		case float64:
			return int64(t), nil
		case string:
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return 0, wrapError(CodeStorage, err, "parse count")
			}
			return n, nil
		case []byte:
			n, err := strconv.ParseInt(string(t), 10, 64)
			if err != nil {
				return 0, wrapError(CodeStorage, err, "parse count")
			}
			return n, nil
		}
	}
	return 0, newError(CodeStorage, "count returned no scalar")
}

// Get fetches the record with the given id; absence is a not-found error.
func Get[T Model](ctx context.Context, s *Store, id string) (T, error) {
	return NewQuery[T](s).Where(Eq(ColumnID, id)).First(ctx)
}

// Lookup is Get with absence allowed, reported by the second return value.
func Lookup[T Model](ctx context.Context, s *Store, id string) (T, bool, error) {
	var zero T
	ms, err := NewQuery[T](s).Where(Eq(ColumnID, id)).Limit(1).All(ctx)
	if err != nil {
		return zero, false, err
	}
	if len(ms) == 0 {
		return zero, false, nil
	}
	return ms[0], true, nil
}

// GetMany fetches the records whose ids appear in ids, in storage order. An
// empty id list short-circuits to an empty result.
func GetMany[T Model](ctx context.Context, s *Store, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return NewQuery[T](s).Where(In(ColumnID, ids)).All(ctx)
}

// newInstance allocates a fresh T. Model's contract means T is always a
// pointer to a struct embedding Record.
func newInstance[T Model]() T {
	var zero T
	t := reflect.TypeOf(zero)
	return reflect.New(t.Elem()).Interface().(T)
}

// tableOf resolves the table for T from a throwaway instance.
func tableOf[T Model]() (string, error) {
	return resolveTable(newInstance[T]())
}
