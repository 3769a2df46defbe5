// internal/repository/errors.go
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicatePending is returned when the one-open-withdrawal-per-agent
	// unique index rejects an insert.
	ErrDuplicatePending = errors.New("agent already has an open withdrawal request")

	// ErrStateConflict is returned when a conditional update matched zero rows
	// because the row was no longer in the expected state.
	ErrStateConflict = errors.New("row was not in the expected state")

	// ErrDuplicateReference is returned when a wallet transaction replays a
	// reference code with a different payload than the recorded one.
	ErrDuplicateReference = errors.New("reference code already used by a different operation")
)

// InsufficientFundsError carries both figures so callers can report them.
type InsufficientFundsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d", e.Required, e.Available)
}

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
	pqQueryCanceled   = "57014"
)

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally on a specific constraint name.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsTransient reports whether err looks like a store timeout or connectivity
// failure that is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection exceptions; 57014 is statement timeout.
		return pqErr.Code.Class() == "08" || string(pqErr.Code) == pqQueryCanceled
	}
	return false
}

// notFoundAs maps sql.ErrNoRows onto the repository sentinel.
func notFoundAs(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
