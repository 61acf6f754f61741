package rowkit

import (
	"context"
	"errors"
	"testing"
)

func userRow(id, name string, age float64) Row {
	return Row{
		"id":        id,
		"createdAt": "2024-05-01T12:00:00Z",
		"updatedAt": "2024-05-01T12:00:00Z",
		"firstName": name,
		"age":       age,
	}
}

func TestSelectSQL(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeExec{})

	tcs := []struct {
		name string
		q    *Query[*user]
		want string
	}{
		{
			"plain",
			NewQuery[*user](s),
			"SELECT * FROM users;",
		},
		{
			"where leaf",
			NewQuery[*user](s).Where(Gte("age", 40)),
			"SELECT * FROM users WHERE (age>='40');",
		},
		{
			"where group",
			NewQuery[*user](s).Where(Or(Gte("age", 18), Lte("age", 10))),
			"SELECT * FROM users WHERE (((age>='18') OR (age<='10')));",
		},
		{
			"ordered and bounded",
			NewQuery[*user](s).Where(Gte("age", 40)).OrderBy("age", Asc).Limit(5),
			"SELECT * FROM users WHERE (age>='40') ORDER BY age ASC LIMIT 5;",
		},
		{
			"descending",
			NewQuery[*user](s).OrderBy("createdAt", Desc),
			"SELECT * FROM users ORDER BY createdAt DESC;",
		},
		{
			"default direction",
			NewQuery[*user](s).OrderBy("age", ""),
			"SELECT * FROM users ORDER BY age ASC;",
		},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.q.selectSQL()
			if err != nil {
				t.Fatalf("selectSQL() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("selectSQL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountSQL(t *testing.T) {
	t.Parallel()
	s := newTestStore(&fakeExec{})

	tcs := []struct {
		name string
		q    *Query[*user]
		want string
	}{
		{"plain", NewQuery[*user](s), "SELECT COUNT(*) FROM users;"},
		{
			"filtered",
			NewQuery[*user](s).Where(Gte("age", 40)),
			"SELECT COUNT(*) FROM users WHERE (age>='40');",
		},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := tc.q.countSQL()
			if err != nil {
				t.Fatalf("countSQL() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("countSQL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAllPreservesOrder(t *testing.T) {
	t.Parallel()

	f := &fakeExec{results: [][]Row{{
		userRow("u1", "Jeffrey", 45),
		userRow("u2", "Laura", 60),
	}}}
	s := newTestStore(f)

	got, err := NewQuery[*user](s).Where(Gte("age", 40)).OrderBy("age", Asc).All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("All() returned %d rows, want 2", len(got))
	}
	if got[0].FirstName != "Jeffrey" || got[0].Age != 45 || got[0].ID != "u1" {
		t.Fatalf("All()[0] = %q %v %q, want Jeffrey 45 u1", got[0].FirstName, got[0].Age, got[0].ID)
	}
	if got[1].FirstName != "Laura" || got[1].Age != 60 {
		t.Fatalf("All()[1] = %q %v, want Laura 60", got[1].FirstName, got[1].Age)
	}
	if want := "SELECT * FROM users WHERE (age>='40') ORDER BY age ASC;"; f.queries[0] != want {
		t.Fatalf("executed %q, want %q", f.queries[0], want)
	}
}

func TestAllErrors(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		f    *fakeExec
		want ErrorCode
	}{
		{"storage failure", &fakeExec{errs: []error{errors.New("down")}}, CodeStorage},
		{"decode failure", &fakeExec{results: [][]Row{{Row{"age": true}}}}, CodeEncoding},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewQuery[*user](newTestStore(tc.f)).All(context.Background())
			if got := CodeOf(err); got != tc.want {
				t.Fatalf("All() error = %v, want code %v", err, tc.want)
			}
		})
	}
}

func TestFirst(t *testing.T) {
	t.Parallel()

	f := &fakeExec{results: [][]Row{{userRow("u1", "Jeffrey", 45)}}}
	s := newTestStore(f)

	got, err := NewQuery[*user](s).Where(Gte("age", 40)).First(context.Background())
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if got.FirstName != "Jeffrey" {
		t.Fatalf("First() = %q, want Jeffrey", got.FirstName)
	}
	if want := "SELECT * FROM users WHERE (age>='40') LIMIT 1;"; f.queries[0] != want {
		t.Fatalf("executed %q, want %q", f.queries[0], want)
	}
}

func TestFirstNotFound(t *testing.T) {
	t.Parallel()

	s := newTestStore(&fakeExec{results: [][]Row{nil}})
	_, err := NewQuery[*user](s).First(context.Background())
	if got := CodeOf(err); got != CodeNotFound {
		t.Fatalf("First() error = %v, want code %v", err, CodeNotFound)
	}
}

func TestFirstOrNil(t *testing.T) {
	t.Parallel()

	s := newTestStore(&fakeExec{results: [][]Row{nil}})
	got, err := NewQuery[*user](s).FirstOrNil(context.Background())
	if err != nil {
		t.Fatalf("FirstOrNil() error = %v", err)
	}
	if got != nil {
		t.Fatalf("FirstOrNil() = %v, want nil", got)
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name  string
		value any
		want  int64
	}{
		{"int64", int64(2), 2},
		{"int", 5, 5},
		{"float", float64(3), 3},
		{"string", "7", 7},
		{"bytes", []byte("9"), 9},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeExec{results: [][]Row{{Row{"count": tc.value}}}}
			got, err := NewQuery[*user](newTestStore(f)).Count(context.Background())
			if err != nil {
				t.Fatalf("Count() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Count() = %d, want %d", got, tc.want)
			}
			if want := "SELECT COUNT(*) FROM users;"; f.queries[0] != want {
				t.Fatalf("executed %q, want %q", f.queries[0], want)
			}
		})
	}
}

func TestCountMalformed(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name    string
		results [][]Row
	}{
		{"no rows", [][]Row{nil}},
		{"two rows", [][]Row{{Row{"count": int64(1)}, Row{"count": int64(2)}}}},
		{"bad text", [][]Row{{Row{"count": "abc"}}}},
		{"no scalar", [][]Row{{Row{"count": true}}}},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewQuery[*user](newTestStore(&fakeExec{results: tc.results})).Count(context.Background())
			if got := CodeOf(err); got != CodeStorage {
				t.Fatalf("Count() error = %v, want code %v", err, CodeStorage)
			}
		})
	}
}

func TestExists(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name  string
		count int64
		want  bool
	}{
		{"some", 2, true},
		{"none", 0, false},
	}
	for _, tc := range tcs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeExec{results: [][]Row{{Row{"count": tc.count}}}}
			got, err := NewQuery[*user](newTestStore(f)).Exists(context.Background())
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("Exists() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	f := &fakeExec{results: [][]Row{{userRow("u7", "Elijah", 20)}}}
	s := newTestStore(f)

	got, err := Get[*user](context.Background(), s, "u7")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != "u7" || got.FirstName != "Elijah" || got.Age != 20 {
		t.Fatalf("Get() = %q %q %v, want u7 Elijah 20", got.ID, got.FirstName, got.Age)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("Get() left timestamps unset")
	}
	if want := "SELECT * FROM users WHERE (id='u7') LIMIT 1;"; f.queries[0] != want {
		t.Fatalf("executed %q, want %q", f.queries[0], want)
	}
}

func TestGetMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(&fakeExec{results: [][]Row{nil}})
	_, err := Get[*user](context.Background(), s, "nope")
	if got := CodeOf(err); got != CodeNotFound {
		t.Fatalf("Get() error = %v, want code %v", err, CodeNotFound)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	f := &fakeExec{results: [][]Row{{userRow("u7", "Elijah", 20)}, nil}}
	s := newTestStore(f)
	ctx := context.Background()

	got, ok, err := Lookup[*user](ctx, s, "u7")
	if err != nil || !ok {
		t.Fatalf("Lookup() = %v, %v, want found", ok, err)
	}
	if got.FirstName != "Elijah" {
		t.Fatalf("Lookup() = %q, want Elijah", got.FirstName)
	}

	_, ok, err = Lookup[*user](ctx, s, "nope")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Fatal("Lookup() reported a match for a missing id")
	}
}

func TestGetMany(t *testing.T) {
	t.Parallel()

	f := &fakeExec{results: [][]Row{{
		userRow("a", "Ann", 30),
		userRow("b", "Bob", 31),
	}}}
	s := newTestStore(f)

	got, err := GetMany[*user](context.Background(), s, []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("GetMany() = %v, want rows a and b", got)
	}
	if want := "SELECT * FROM users WHERE (id IN ('a','b'));"; f.queries[0] != want {
		t.Fatalf("executed %q, want %q", f.queries[0], want)
	}
}

func TestGetManyEmpty(t *testing.T) {
	t.Parallel()

	f := &fakeExec{}
	got, err := GetMany[*user](context.Background(), newTestStore(f), nil)
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if got != nil {
		t.Fatalf("GetMany() = %v, want nil", got)
	}
	if len(f.queries) != 0 {
		t.Fatalf("GetMany() executed %d statements for no ids", len(f.queries))
	}
}

func TestQueryBadFilterStopsExecution(t *testing.T) {
	t.Parallel()

	f := &fakeExec{}
	_, err := NewQuery[*user](newTestStore(f)).Where(In("id", 5)).All(context.Background())
	if got := CodeOf(err); got != CodeParameterFormat {
		t.Fatalf("All() error = %v, want code %v", err, CodeParameterFormat)
	}
	if len(f.queries) != 0 {
		t.Fatalf("All() executed %d statements with a bad filter", len(f.queries))
	}
}
