// internal/models/commission_item.go
package models

import (
	"database/sql"
	"time"
)

type CommissionStatus string
type CommissionSource string

const (
	CommissionStatusEarned            CommissionStatus = "earned"
	CommissionStatusPendingWithdrawal CommissionStatus = "pending_withdrawal"
	CommissionStatusWithdrawn         CommissionStatus = "withdrawn"

	SourceDataOrder      CommissionSource = "data_order"
	SourceWholesaleOrder CommissionSource = "wholesale_order"
	SourceReferral       CommissionSource = "referral"
)

// CommissionItem is a single unit of earned commission, tied to the
// transaction that produced it. Items move between statuses but their
// amounts never change.
type CommissionItem struct {
	ID           string           `json:"id" db:"id"`
	AgentID      string           `json:"agent_id" db:"agent_id"`
	SourceType   CommissionSource `json:"source_type" db:"source_type"`
	SourceID     string           `json:"source_id" db:"source_id"`
	Amount       int64            `json:"amount" db:"amount"`
	Status       CommissionStatus `json:"status" db:"status"`
	WithdrawalID sql.NullString   `json:"withdrawal_id,omitempty" db:"withdrawal_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Database schema
const CommissionItemSchema = `
CREATE TABLE IF NOT EXISTS commission_items (
    id VARCHAR(36) PRIMARY KEY,
    agent_id VARCHAR(36) NOT NULL REFERENCES agents(id),
    source_type VARCHAR(20) NOT NULL,
    source_id VARCHAR(36) NOT NULL,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    status VARCHAR(20) NOT NULL DEFAULT 'earned',
    withdrawal_id VARCHAR(36),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE (source_type, source_id)
);

CREATE INDEX IF NOT EXISTS idx_commission_items_agent_status ON commission_items (agent_id, status);
CREATE INDEX IF NOT EXISTS idx_commission_items_withdrawal ON commission_items (withdrawal_id);
`
