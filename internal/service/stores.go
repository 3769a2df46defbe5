// internal/service/stores.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// Store interfaces are declared where they are consumed; the concrete
// implementations live in internal/repository.

type AgentStore interface {
	GetByID(ctx context.Context, agentID string) (*models.Agent, error)
	ApplyWalletDelta(ctx context.Context, agentID string, delta int64, txType models.WalletTxType, referenceCode, description string) (*models.WalletTransaction, error)
	ListWalletTransactions(ctx context.Context, agentID string, limit int) ([]*models.WalletTransaction, error)
}

type CommissionStore interface {
	SumByStatus(ctx context.Context, agentID string) (map[models.CommissionStatus]int64, error)
	ListEarnedFIFO(ctx context.Context, agentID string) ([]*models.CommissionItem, error)
	ListByWithdrawal(ctx context.Context, withdrawalID string) ([]*models.CommissionItem, error)
}

type WithdrawalStore interface {
	CreateWithReservation(ctx context.Context, req *models.WithdrawalRequest, itemIDs []string) error
	GetByID(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, withdrawalID, adminID, notes string) error
	Reject(ctx context.Context, withdrawalID, adminID, reason string) error
	Settle(ctx context.Context, withdrawalID string, target models.WithdrawalStatus, adminID, notes string) error
	HasOpen(ctx context.Context, agentID string) (bool, error)
	CountRecentByAmount(ctx context.Context, agentID string, amount int64, since time.Time) (int, error)
	ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.WithdrawalRequest, error)
}

type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	CreateWithDebit(ctx context.Context, order *models.Order, description string) (*models.Order, *models.WalletTransaction, error)
	CompleteWithCommission(ctx context.Context, orderID string) (*models.CommissionItem, error)
}

// storeTimeout bounds every store round trip so a hung connection surfaces as
// a transient error instead of stalling the request handler.
const storeTimeout = 5 * time.Second

// retryTransient runs fn, retrying once with a short backoff if the failure
// looks like a store timeout or connectivity blip.
func retryTransient(ctx context.Context, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, storeTimeout)
	err := fn(callCtx)
	cancel()
	if err == nil || !repository.IsTransient(err) {
		return err
	}

	logger.Warn("transient store failure, retrying once",
		zap.String("op", op),
		zap.Error(err))

	select {
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		return err
	}

	callCtx, cancel = context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return fn(callCtx)
}
