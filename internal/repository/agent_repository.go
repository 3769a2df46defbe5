// internal/repository/agent_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"commission-ledger/internal/models"
)

type AgentRepository struct {
	db *sql.DB
}

func NewAgentRepository(db *sql.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) GetByID(ctx context.Context, agentID string) (*models.Agent, error) {
	query := `
		SELECT id, full_name, phone, region, is_approved, wallet_balance,
		       total_commission_earned, total_commission_paid_out, created_at, updated_at
		FROM agents
		WHERE id = $1
	`
	agent := &models.Agent{}
	err := r.db.QueryRowContext(ctx, query, agentID).Scan(
		&agent.ID,
		&agent.FullName,
		&agent.Phone,
		&agent.Region,
		&agent.IsApproved,
		&agent.WalletBalance,
		&agent.TotalCommissionEarned,
		&agent.TotalCommissionPaidOut,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundAs(err)
	}
	return agent, nil
}

func (r *AgentRepository) Create(ctx context.Context, agent *models.Agent) error {
	query := `
		INSERT INTO agents (id, full_name, phone, region, is_approved, wallet_balance,
		                    total_commission_earned, total_commission_paid_out, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		agent.ID,
		agent.FullName,
		agent.Phone,
		agent.Region,
		agent.IsApproved,
		agent.WalletBalance,
		agent.TotalCommissionEarned,
		agent.TotalCommissionPaidOut,
		agent.CreatedAt,
		agent.UpdatedAt,
	)
	return err
}

// ApplyWalletDelta applies one signed delta to an agent's wallet balance and
// records the matching WalletTransaction, both inside a single transaction.
// The UPDATE is conditional on the new balance staying non-negative, so a
// concurrent debit can never produce a negative balance.
//
// referenceCode is the idempotency key: if a transaction with the same code
// already exists for the same agent, type and amount, the recorded row is
// returned and the delta is NOT applied again.
func (r *AgentRepository) ApplyWalletDelta(ctx context.Context, agentID string, delta int64, txType models.WalletTxType, referenceCode, description string) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Replay check first: same reference code means the operation already ran.
	existing := &models.WalletTransaction{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, agent_id, type, amount, status, reference_code, description, balance_after, created_at
		FROM wallet_transactions
		WHERE reference_code = $1
	`, referenceCode).Scan(
		&existing.ID,
		&existing.AgentID,
		&existing.Type,
		&existing.Amount,
		&existing.Status,
		&existing.ReferenceCode,
		&existing.Description,
		&existing.BalanceAfter,
		&existing.CreatedAt,
	)
	if err == nil {
		amount := delta
		if amount < 0 {
			amount = -amount
		}
		if existing.AgentID != agentID || existing.Type != txType || existing.Amount != amount {
			return nil, ErrDuplicateReference
		}
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	var balanceAfter int64
	err = tx.QueryRowContext(ctx, `
		UPDATE agents
		SET wallet_balance = wallet_balance + $2, updated_at = NOW()
		WHERE id = $1 AND wallet_balance + $2 >= 0
		RETURNING wallet_balance
	`, agentID, delta).Scan(&balanceAfter)
	if err == sql.ErrNoRows {
		// Zero rows: either the agent is missing or the debit would go negative.
		var available int64
		if err := tx.QueryRowContext(ctx, `SELECT wallet_balance FROM agents WHERE id = $1`, agentID).Scan(&available); err != nil {
			return nil, notFoundAs(err)
		}
		return nil, &InsufficientFundsError{Required: -delta, Available: available}
	}
	if err != nil {
		return nil, err
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	walletTx := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       agentID,
		Type:          txType,
		Amount:        amount,
		Status:        models.WalletTxStatusApproved,
		ReferenceCode: referenceCode,
		Description:   description,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, agent_id, type, amount, status, reference_code, description, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		walletTx.ID,
		walletTx.AgentID,
		walletTx.Type,
		walletTx.Amount,
		walletTx.Status,
		walletTx.ReferenceCode,
		walletTx.Description,
		walletTx.BalanceAfter,
		walletTx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			// Lost a race with a concurrent replay of the same reference code.
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return walletTx, nil
}

func (r *AgentRepository) ListWalletTransactions(ctx context.Context, agentID string, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, agent_id, type, amount, status, reference_code, description, balance_after, created_at
		FROM wallet_transactions
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*models.WalletTransaction
	for rows.Next() {
		txn := &models.WalletTransaction{}
		err := rows.Scan(
			&txn.ID,
			&txn.AgentID,
			&txn.Type,
			&txn.Amount,
			&txn.Status,
			&txn.ReferenceCode,
			&txn.Description,
			&txn.BalanceAfter,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
