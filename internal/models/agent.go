// internal/models/agent.go
package models

import "time"

// Agent represents a platform user who sells products and earns commission.
// WalletBalance and the commission counters are cached/derived figures kept in
// sync by the repositories; commission_items is the source of truth.
type Agent struct {
	ID                     string    `json:"id" db:"id"`
	FullName               string    `json:"full_name" db:"full_name"`
	Phone                  string    `json:"phone" db:"phone"`
	Region                 string    `json:"region" db:"region"`
	IsApproved             bool      `json:"is_approved" db:"is_approved"`
	WalletBalance          int64     `json:"wallet_balance" db:"wallet_balance"`
	TotalCommissionEarned  int64     `json:"total_commission_earned" db:"total_commission_earned"`
	TotalCommissionPaidOut int64     `json:"total_commission_paid_out" db:"total_commission_paid_out"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time `json:"updated_at" db:"updated_at"`
}

// CommissionSummary is the Ledger Reader's output for one agent. Amounts are
// minor units; the tags must round-trip them intact because summaries are
// cached in Redis as JSON. Handlers convert to cedis themselves.
type CommissionSummary struct {
	AgentID              string    `json:"agent_id"`
	AvailableCommissions int64     `json:"available_commissions"`
	TotalCommissions     int64     `json:"total_commissions"`
	Degraded             bool      `json:"degraded"`
	ComputedAt           time.Time `json:"computed_at"`
}

// Database schema
const AgentSchema = `
CREATE TABLE IF NOT EXISTS agents (
    id VARCHAR(36) PRIMARY KEY,
    full_name VARCHAR(200) NOT NULL,
    phone VARCHAR(20) NOT NULL,
    region VARCHAR(100),
    is_approved BOOLEAN NOT NULL DEFAULT FALSE,
    wallet_balance BIGINT NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
    total_commission_earned BIGINT NOT NULL DEFAULT 0,
    total_commission_paid_out BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_agents_phone ON agents (phone);
`
