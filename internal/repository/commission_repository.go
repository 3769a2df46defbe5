// internal/repository/commission_repository.go
package repository

import (
	"context"
	"database/sql"

	"commission-ledger/internal/models"
)

type CommissionRepository struct {
	db *sql.DB
}

func NewCommissionRepository(db *sql.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// SumByStatus aggregates an agent's commission items in SQL, one figure per
// status. Amounts are summed as BIGINT minor units; no floats are involved.
func (r *CommissionRepository) SumByStatus(ctx context.Context, agentID string) (map[models.CommissionStatus]int64, error) {
	query := `
		SELECT status, COALESCE(SUM(amount), 0)
		FROM commission_items
		WHERE agent_id = $1
		GROUP BY status
	`
	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sums := make(map[models.CommissionStatus]int64)
	for rows.Next() {
		var status models.CommissionStatus
		var total int64
		if err := rows.Scan(&status, &total); err != nil {
			return nil, err
		}
		sums[status] = total
	}
	return sums, rows.Err()
}

// ListEarnedFIFO returns the agent's earned items oldest-first, the order in
// which they are reserved for a withdrawal.
func (r *CommissionRepository) ListEarnedFIFO(ctx context.Context, agentID string) ([]*models.CommissionItem, error) {
	query := `
		SELECT id, agent_id, source_type, source_id, amount, status, withdrawal_id, created_at, updated_at
		FROM commission_items
		WHERE agent_id = $1 AND status = 'earned'
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCommissionItems(rows)
}

func (r *CommissionRepository) ListByWithdrawal(ctx context.Context, withdrawalID string) ([]*models.CommissionItem, error) {
	query := `
		SELECT id, agent_id, source_type, source_id, amount, status, withdrawal_id, created_at, updated_at
		FROM commission_items
		WHERE withdrawal_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, withdrawalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCommissionItems(rows)
}

// Create inserts a single earned item. The (source_type, source_id) unique
// constraint makes minting idempotent per source transaction; a replay
// returns ErrStateConflict.
func (r *CommissionRepository) Create(ctx context.Context, item *models.CommissionItem) error {
	query := `
		INSERT INTO commission_items (id, agent_id, source_type, source_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		item.AgentID,
		item.SourceType,
		item.SourceID,
		item.Amount,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if isUniqueViolation(err, "") {
		return ErrStateConflict
	}
	return err
}

func scanCommissionItems(rows *sql.Rows) ([]*models.CommissionItem, error) {
	var items []*models.CommissionItem
	for rows.Next() {
		item := &models.CommissionItem{}
		err := rows.Scan(
			&item.ID,
			&item.AgentID,
			&item.SourceType,
			&item.SourceID,
			&item.Amount,
			&item.Status,
			&item.WithdrawalID,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
