// internal/repository/order_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"commission-ledger/internal/models"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, agent_id, type, product_ref, amount, commission_amount, status, reference_code, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.AgentID,
		&order.Type,
		&order.ProductRef,
		&order.Amount,
		&order.CommissionAmount,
		&order.Status,
		&order.ReferenceCode,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundAs(err)
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
}

// CreateWithDebit performs the whole checkout in one transaction: the wallet
// debit (conditional on the balance staying non-negative), the wallet
// transaction record, and the order row. Either all three commit or none do,
// so a failed insert can never leave the agent debited without an order.
//
// The order's reference code doubles as the idempotency key. A replay with
// the same code and payload returns the previously created order; a replay
// with a different payload fails with ErrDuplicateReference.
func (r *OrderRepository) CreateWithDebit(ctx context.Context, order *models.Order, description string) (*models.Order, *models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// Replay check: the wallet transaction and the order commit together, so
	// a recorded debit for this code means the order exists too.
	existingTx := &models.WalletTransaction{}
	err = tx.QueryRowContext(ctx, `
		SELECT id, agent_id, type, amount, status, reference_code, description, balance_after, created_at
		FROM wallet_transactions
		WHERE reference_code = $1
	`, order.ReferenceCode).Scan(
		&existingTx.ID,
		&existingTx.AgentID,
		&existingTx.Type,
		&existingTx.Amount,
		&existingTx.Status,
		&existingTx.ReferenceCode,
		&existingTx.Description,
		&existingTx.BalanceAfter,
		&existingTx.CreatedAt,
	)
	if err == nil {
		if existingTx.AgentID != order.AgentID || existingTx.Type != models.WalletTxDeduction || existingTx.Amount != order.Amount {
			return nil, nil, ErrDuplicateReference
		}
		existingOrder, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE reference_code = $1`, order.ReferenceCode))
		if err != nil {
			return nil, nil, ErrDuplicateReference
		}
		return existingOrder, existingTx, nil
	}
	if err != sql.ErrNoRows {
		return nil, nil, err
	}

	var balanceAfter int64
	err = tx.QueryRowContext(ctx, `
		UPDATE agents
		SET wallet_balance = wallet_balance - $2, updated_at = NOW()
		WHERE id = $1 AND wallet_balance - $2 >= 0
		RETURNING wallet_balance
	`, order.AgentID, order.Amount).Scan(&balanceAfter)
	if err == sql.ErrNoRows {
		var available int64
		if err := tx.QueryRowContext(ctx, `SELECT wallet_balance FROM agents WHERE id = $1`, order.AgentID).Scan(&available); err != nil {
			return nil, nil, notFoundAs(err)
		}
		return nil, nil, &InsufficientFundsError{Required: order.Amount, Available: available}
	}
	if err != nil {
		return nil, nil, err
	}

	walletTx := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       order.AgentID,
		Type:          models.WalletTxDeduction,
		Amount:        order.Amount,
		Status:        models.WalletTxStatusApproved,
		ReferenceCode: order.ReferenceCode,
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
			return nil, nil, ErrDuplicateReference
		}
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, agent_id, type, product_ref, amount, commission_amount, status, reference_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		order.ID,
		order.AgentID,
		order.Type,
		order.ProductRef,
		order.Amount,
		order.CommissionAmount,
		order.Status,
		order.ReferenceCode,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, nil, ErrDuplicateReference
		}
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return order, walletTx, nil
}

// CompleteWithCommission marks a pending order completed and mints its single
// earned CommissionItem, bumping the agent's cached earned counter, all in one
// transaction. The status guard on the UPDATE makes a double completion fail
// with ErrStateConflict rather than minting twice.
func (r *OrderRepository) CompleteWithCommission(ctx context.Context, orderID string) (*models.CommissionItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var agentID string
	var orderType models.OrderType
	var commissionAmount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING agent_id, type, commission_amount
	`, orderID).Scan(&agentID, &orderType, &commissionAmount)
	if err == sql.ErrNoRows {
		// Distinguish a missing order from a double completion.
		var status models.OrderStatus
		if scanErr := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status); scanErr != nil {
			return nil, notFoundAs(scanErr)
		}
		return nil, ErrStateConflict
	}
	if err != nil {
		return nil, err
	}

	item := &models.CommissionItem{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		SourceType: models.CommissionSource(orderType),
		SourceID:   orderID,
		Amount:     commissionAmount,
		Status:     models.CommissionStatusEarned,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO commission_items (id, agent_id, source_type, source_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`, item.ID, item.AgentID, item.SourceType, item.SourceID, item.Amount, item.Status)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrStateConflict
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE agents
		SET total_commission_earned = total_commission_earned + $2, updated_at = NOW()
		WHERE id = $1
	`, agentID, commissionAmount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}
