// internal/repository/withdrawal_repository.go
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"commission-ledger/internal/models"
)

type WithdrawalRepository struct {
	db *sql.DB
}

func NewWithdrawalRepository(db *sql.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreateWithReservation inserts the withdrawal request and flips the covering
// commission items to pending_withdrawal in one transaction. If any item is no
// longer in the earned state (a concurrent request got there first), the whole
// transaction rolls back, including the request row.
//
// The partial unique index on (agent_id) for open statuses turns a concurrent
// duplicate request into ErrDuplicatePending instead of a double reservation.
func (r *WithdrawalRepository) CreateWithReservation(ctx context.Context, req *models.WithdrawalRequest, itemIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO withdrawal_requests (id, agent_id, amount, reserved_amount, momo_number, status, admin_notes, rejection_reason, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6, '', '', $7)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		req.ID,
		req.AgentID,
		req.Amount,
		req.ReservedAmount,
		req.MomoNumber,
		req.Status,
		req.RequestedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "idx_withdrawals_one_open_per_agent") {
			return ErrDuplicatePending
		}
		return err
	}

	reserveQuery := `
		UPDATE commission_items
		SET status = 'pending_withdrawal', withdrawal_id = $1, updated_at = NOW()
		WHERE id = ANY($2) AND agent_id = $3 AND status = 'earned'
	`
	res, err := tx.ExecContext(ctx, reserveQuery, req.ID, pq.Array(itemIDs), req.AgentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(itemIDs)) {
		// Partial reservation is a correctness violation; roll everything back.
		return ErrStateConflict
	}

	return tx.Commit()
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error) {
	query := `
		SELECT id, agent_id, amount, reserved_amount, momo_number, status, admin_id, admin_notes, rejection_reason, requested_at, processed_at
		FROM withdrawal_requests
		WHERE id = $1
	`
	w := &models.WithdrawalRequest{}
	err := r.db.QueryRowContext(ctx, query, withdrawalID).Scan(
		&w.ID,
		&w.AgentID,
		&w.Amount,
		&w.ReservedAmount,
		&w.MomoNumber,
		&w.Status,
		&w.AdminID,
		&w.AdminNotes,
		&w.RejectionReason,
		&w.RequestedAt,
		&w.ProcessedAt,
	)
	if err != nil {
		return nil, notFoundAs(err)
	}
	return w, nil
}

// Approve moves requested -> approved. No commission items change state.
func (r *WithdrawalRepository) Approve(ctx context.Context, withdrawalID, adminID, notes string) error {
	query := `
		UPDATE withdrawal_requests
		SET status = 'approved', admin_id = $2, admin_notes = $3, processed_at = NOW()
		WHERE id = $1 AND status = 'requested'
	`
	res, err := r.db.ExecContext(ctx, query, withdrawalID, adminID, notes)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// Reject moves requested -> rejected and releases every reserved item back to
// earned, atomically. The released funds become available for a new request.
func (r *WithdrawalRepository) Reject(ctx context.Context, withdrawalID, adminID, reason string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = 'rejected', admin_id = $2, rejection_reason = $3, processed_at = NOW()
		WHERE id = $1 AND status = 'requested'
	`, withdrawalID, adminID, reason)
	if err != nil {
		return err
	}
	if err := requireOneRow(res); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE commission_items
		SET status = 'earned', withdrawal_id = NULL, updated_at = NOW()
		WHERE withdrawal_id = $1 AND status = 'pending_withdrawal'
	`, withdrawalID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Settle moves approved -> paid|completed and flips the reserved items to
// withdrawn, bumping the agent's cached paid-out counter, all in one
// transaction. This is the irreversible step.
func (r *WithdrawalRepository) Settle(ctx context.Context, withdrawalID string, target models.WithdrawalStatus, adminID, notes string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var agentID string
	var reservedAmount int64
	err = tx.QueryRowContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $2, admin_id = $3, admin_notes = $4, processed_at = NOW()
		WHERE id = $1 AND status = 'approved'
		RETURNING agent_id, reserved_amount
	`, withdrawalID, target, adminID, notes).Scan(&agentID, &reservedAmount)
	if err == sql.ErrNoRows {
		return ErrStateConflict
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE commission_items
		SET status = 'withdrawn', updated_at = NOW()
		WHERE withdrawal_id = $1 AND status = 'pending_withdrawal'
	`, withdrawalID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE agents
		SET total_commission_paid_out = total_commission_paid_out + $2, updated_at = NOW()
		WHERE id = $1
	`, agentID, reservedAmount)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// HasOpen reports whether the agent has a withdrawal in a non-terminal state.
func (r *WithdrawalRepository) HasOpen(ctx context.Context, agentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM withdrawal_requests
			WHERE agent_id = $1 AND status IN ('requested', 'approved')
		)
	`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, agentID).Scan(&exists)
	return exists, err
}

// CountRecentByAmount counts requests for the same agent and amount since the
// given time, terminal or not. Used by the duplicate-amount cooldown check.
func (r *WithdrawalRepository) CountRecentByAmount(ctx context.Context, agentID string, amount int64, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM withdrawal_requests
		WHERE agent_id = $1 AND amount = $2 AND requested_at >= $3
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, agentID, amount, since).Scan(&count)
	return count, err
}

func (r *WithdrawalRepository) ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, agent_id, amount, reserved_amount, momo_number, status, admin_id, admin_notes, rejection_reason, requested_at, processed_at
		FROM withdrawal_requests
		WHERE agent_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var withdrawals []*models.WithdrawalRequest
	for rows.Next() {
		w := &models.WithdrawalRequest{}
		err := rows.Scan(
			&w.ID,
			&w.AgentID,
			&w.Amount,
			&w.ReservedAmount,
			&w.MomoNumber,
			&w.Status,
			&w.AdminID,
			&w.AdminNotes,
			&w.RejectionReason,
			&w.RequestedAt,
			&w.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStateConflict
	}
	return nil
}
