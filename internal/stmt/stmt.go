package stmt

import (
	"regexp"
	"strings"

	"github.com/rowkit/rowkit/internal/ident"
)

// Stmt describes a recognized top-level SQL statement.
type Stmt struct {
	Op    string // SELECT, INSERT, UPDATE, DELETE
	Table string // possibly schema-qualified
}

var (
	reSelect = regexp.MustCompile(`(?is)^\s*select\b.*?\bfrom\s+([^\s(;]+)`)
	reInsert = regexp.MustCompile(`(?is)^\s*insert\s+into\s+([^\s(]+)`)
	reUpdate = regexp.MustCompile(`(?is)^\s*update\s+([^\s]+(?:\s+(?:as\s+)?[^\s]+)?)\s+set\b`)
	reDelete = regexp.MustCompile(`(?is)^\s*delete\s+from\s+([^\s;]+(?:\s+(?:as\s+)?[^\s;]+)?)`)
)

// Parse recognizes a single top-level statement and returns its metadata.
func Parse(q string) (Stmt, bool) {
	qs := strings.TrimSpace(q)
	if m := reInsert.FindStringSubmatch(qs); len(m) == 2 {
		return Stmt{Op: "INSERT", Table: ident.StripAlias(m[1])}, true
	}
	if m := reUpdate.FindStringSubmatch(qs); len(m) == 2 {
		return Stmt{Op: "UPDATE", Table: ident.StripAlias(m[1])}, true
	}
	if m := reDelete.FindStringSubmatch(qs); len(m) == 2 {
		return Stmt{Op: "DELETE", Table: ident.StripAlias(m[1])}, true
	}
	if m := reSelect.FindStringSubmatch(qs); len(m) == 2 {
		return Stmt{Op: "SELECT", Table: ident.StripAlias(m[1])}, true
	}
	return Stmt{}, false
}

// IsDML reports whether the statement changes rows and must run through Exec
// rather than Query.
func (s Stmt) IsDML() bool {
	switch s.Op {
	case "INSERT", "UPDATE", "DELETE":
		return true
	}
	return false
}
