// internal/models/wallet_transaction.go
package models

import "time"

type WalletTxType string
type WalletTxStatus string

const (
	WalletTxCommissionDeposit WalletTxType = "commission_deposit"
	WalletTxTopup             WalletTxType = "topup"
	WalletTxDeduction         WalletTxType = "deduction"
	WalletTxWithdrawal        WalletTxType = "withdrawal"

	WalletTxStatusPending  WalletTxStatus = "pending"
	WalletTxStatusApproved WalletTxStatus = "approved"
	WalletTxStatusRejected WalletTxStatus = "rejected"
)

// IsCredit reports whether the type increases the wallet balance.
func (t WalletTxType) IsCredit() bool {
	return t == WalletTxCommissionDeposit || t == WalletTxTopup
}

// WalletTransaction records one delta applied to an agent's wallet balance.
// ReferenceCode is the idempotency key: replaying the same logical operation
// with the same code must not apply the delta twice.
type WalletTransaction struct {
	ID            string         `json:"id" db:"id"`
	AgentID       string         `json:"agent_id" db:"agent_id"`
	Type          WalletTxType   `json:"type" db:"type"`
	Amount        int64          `json:"amount" db:"amount"`
	Status        WalletTxStatus `json:"status" db:"status"`
	ReferenceCode string         `json:"reference_code" db:"reference_code"`
	Description   string         `json:"description" db:"description"`
	BalanceAfter  int64          `json:"balance_after" db:"balance_after"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// Database schema
const WalletTransactionSchema = `
CREATE TABLE IF NOT EXISTS wallet_transactions (
    id VARCHAR(36) PRIMARY KEY,
    agent_id VARCHAR(36) NOT NULL REFERENCES agents(id),
    type VARCHAR(20) NOT NULL,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    status VARCHAR(10) NOT NULL DEFAULT 'approved',
    reference_code VARCHAR(100) NOT NULL,
    description TEXT,
    balance_after BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE (reference_code)
);

CREATE INDEX IF NOT EXISTS idx_wallet_transactions_agent ON wallet_transactions (agent_id, created_at);
`
