// internal/models/withdrawal.go
package models

import (
	"database/sql"
	"time"
)

type WithdrawalStatus string

const (
	WithdrawalStatusRequested WithdrawalStatus = "requested"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusPaid      WithdrawalStatus = "paid"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusRejected || s == WithdrawalStatusPaid || s == WithdrawalStatusCompleted
}

// CanTransitionTo encodes the withdrawal state machine:
// requested -> approved | rejected, approved -> paid | completed.
func (s WithdrawalStatus) CanTransitionTo(target WithdrawalStatus) bool {
	switch s {
	case WithdrawalStatusRequested:
		return target == WithdrawalStatusApproved || target == WithdrawalStatusRejected
	case WithdrawalStatusApproved:
		return target == WithdrawalStatusPaid || target == WithdrawalStatusCompleted
	default:
		return false
	}
}

// WithdrawalRequest is an agent's request to convert earned commission into a
// mobile-money payout. The covering set of commission items is reserved when
// the request is created and released or settled when it is processed.
type WithdrawalRequest struct {
	ID              string           `json:"id" db:"id"`
	AgentID         string           `json:"agent_id" db:"agent_id"`
	Amount          int64            `json:"amount" db:"amount"`
	ReservedAmount  int64            `json:"reserved_amount" db:"reserved_amount"`
	MomoNumber      string           `json:"momo_number" db:"momo_number"`
	Status          WithdrawalStatus `json:"status" db:"status"`
	AdminID         sql.NullString   `json:"admin_id,omitempty" db:"admin_id"`
	AdminNotes      string           `json:"admin_notes,omitempty" db:"admin_notes"`
	RejectionReason string           `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RequestedAt     time.Time        `json:"requested_at" db:"requested_at"`
	ProcessedAt     sql.NullTime     `json:"processed_at,omitempty" db:"processed_at"`

	// Populated on reads that join the reserved items; not a column.
	Items []*CommissionItem `json:"items,omitempty" db:"-"`
}

// Database schema
//
// The partial unique index is what serializes withdrawal creation per agent: a
// second non-terminal request hits a unique violation instead of double-reserving.
const WithdrawalSchema = `
CREATE TABLE IF NOT EXISTS withdrawal_requests (
    id VARCHAR(36) PRIMARY KEY,
    agent_id VARCHAR(36) NOT NULL REFERENCES agents(id),
    amount BIGINT NOT NULL CHECK (amount > 0),
    reserved_amount BIGINT NOT NULL DEFAULT 0,
    momo_number VARCHAR(20) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'requested',
    admin_id VARCHAR(36),
    admin_notes TEXT NOT NULL DEFAULT '',
    rejection_reason TEXT NOT NULL DEFAULT '',
    requested_at TIMESTAMP NOT NULL DEFAULT NOW(),
    processed_at TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_withdrawals_one_open_per_agent
    ON withdrawal_requests (agent_id)
    WHERE status IN ('requested', 'approved');

CREATE INDEX IF NOT EXISTS idx_withdrawals_agent_requested_at ON withdrawal_requests (agent_id, requested_at);
`
