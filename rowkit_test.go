package rowkit

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

// user is the primary fixture for lifecycle and query tests.
type user struct {
	Record
	FirstName string
	Age       float64
}

func (u *user) Fields() []Field {
	return []Field{
		{Name: "firstName", Kind: KindText, Ref: &u.FirstName},
		{Name: "age", Kind: KindNumber, Ref: &u.Age},
	}
}

// fakeExec scripts executor responses per call and captures every statement.
type fakeExec struct {
	queries []string
	results [][]Row
	errs    []error
}

func (f *fakeExec) Query(_ context.Context, q string) ([]Row, error) {
	i := len(f.queries)
	f.queries = append(f.queries, q)
	var rows []Row
	if i < len(f.results) {
		rows = f.results[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return rows, err
}

func newTestStore(f *fakeExec) *Store {
	return New(f, Config{
		DuplicateKeyLabels: map[string]string{"user_email_uindex": "email"},
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	s := New(&fakeExec{}, Config{})
	if s.cfg.DuplicateKeyLabels == nil {
		t.Fatal("New() left DuplicateKeyLabels nil")
	}
	if s.log == nil {
		t.Fatal("New() left logger nil")
	}
}

func TestWrapDB(t *testing.T) {
	t.Parallel()

	s := WrapDB(nil, Config{Verbose: true})
	if _, ok := s.Executor().(*DB); !ok {
		t.Fatalf("WrapDB executor = %T, want *DB", s.Executor())
	}
}
