package rowkit

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rowkit/rowkit/internal/ident"
)

// uniqueViolation is the engine's code for a uniqueness-constraint violation.
const uniqueViolation = "23505"

// pkConstraint returns the reserved primary-key constraint name for a table.
func pkConstraint(table string) string {
	return ident.BaseTableName(table) + "_pkey"
}

// classify translates a storage error. A uniqueness violation on the
// primary-key constraint becomes the internal retry signal; any other
// uniqueness violation resolves through the configured label map into a
// value-exists error; a refused connection becomes server-unavailable; the
// rest fall through as internal storage errors carrying the engine's
// code and message.
func (s *Store) classify(err error, table string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			pk := pkConstraint(table)
			if pgErr.ConstraintName == pk || strings.Contains(pgErr.Message, pk) {
				return errIDCollision
			}
			label := pgErr.ConstraintName
			if mapped, ok := s.cfg.DuplicateKeyLabels[label]; ok {
				label = mapped
			}
			e := wrapError(CodeValueExists, err, "value already exists for field %s", label)
			e.Field = label
			return e
		}
		return wrapError(CodeStorage, err, "storage error %s: %s", pgErr.Code, pgErr.Message)
	}
	if errors.Is(err, syscall.ECONNREFUSED) || isDialError(err) {
		return wrapError(CodeUnavailable, err, "server unavailable")
	}
	return wrapError(CodeStorage, err, "storage error")
}

// storageError folds the retry signal into the storage bucket for paths
// that cannot collide on the primary key; only Create consumes the signal.
func (s *Store) storageError(err error, table string) error {
	cerr := s.classify(err, table)
	if errors.Is(cerr, errIDCollision) {
		return wrapError(CodeStorage, err, "unexpected primary key violation on %s", table)
	}
	return cerr
}

// isDialError reports whether err stems from establishing the connection
// rather than from the statement itself.
func isDialError(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}
