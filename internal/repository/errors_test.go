// internal/repository/errors_test.go
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"bad conn", driver.ErrBadConn, true},
		{"connection failure class", &pq.Error{Code: "08006"}, true},
		{"statement timeout", &pq.Error{Code: "57014"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"plain error", errors.New("boom"), false},
		{"no rows", sql.ErrNoRows, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	onIndex := &pq.Error{Code: "23505", Constraint: "idx_withdrawals_one_open_per_agent"}

	if !isUniqueViolation(onIndex, "idx_withdrawals_one_open_per_agent") {
		t.Error("expected match on named constraint")
	}
	if !isUniqueViolation(onIndex, "") {
		t.Error("expected match with no constraint filter")
	}
	if isUniqueViolation(onIndex, "wallet_transactions_reference_code_key") {
		t.Error("must not match a different constraint")
	}
	if isUniqueViolation(&pq.Error{Code: "23514"}, "") {
		t.Error("check violations are not unique violations")
	}
	if isUniqueViolation(errors.New("boom"), "") {
		t.Error("non-pq errors are not unique violations")
	}
}

func TestNotFoundAs(t *testing.T) {
	if !errors.Is(notFoundAs(sql.ErrNoRows), ErrNotFound) {
		t.Error("sql.ErrNoRows must map to ErrNotFound")
	}
	if !errors.Is(notFoundAs(fmt.Errorf("scan: %w", sql.ErrNoRows)), ErrNotFound) {
		t.Error("wrapped sql.ErrNoRows must map to ErrNotFound")
	}
	cause := errors.New("boom")
	if notFoundAs(cause) != cause {
		t.Error("other errors pass through unchanged")
	}
}
