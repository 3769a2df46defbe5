// internal/service/wallet_service.go
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"commission-ledger/internal/events"
	"commission-ledger/internal/metrics"
	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// WalletService is the single entry point for wallet balance mutations. Every
// mutation goes through the repository's conditional update plus transaction
// record, so a lost update or a negative balance cannot happen, and reference
// codes make retried calls idempotent.
type WalletService struct {
	agents    AgentStore
	publisher events.Publisher
	metrics   *metrics.LedgerMetrics
	logger    *zap.Logger
}

func NewWalletService(agents AgentStore, publisher events.Publisher, m *metrics.LedgerMetrics, logger *zap.Logger) *WalletService {
	return &WalletService{
		agents:    agents,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

type WalletMutationInput struct {
	AgentID       string
	Amount        int64
	ReferenceCode string
	Description   string
	Caller        Caller
}

// Topup credits the agent's wallet.
func (s *WalletService) Topup(ctx context.Context, input WalletMutationInput) (*models.WalletTransaction, error) {
	// The sign of the delta comes from the operation, never from the caller:
	// a negative amount here would turn a credit into a hidden debit.
	if input.Amount <= 0 {
		return nil, ValidationError("amount must be greater than zero")
	}
	return s.apply(ctx, input, input.Amount, models.WalletTxTopup)
}

// Debit deducts from the agent's wallet, e.g. at order checkout. Fails with
// an insufficient-balance error carrying both figures; never goes negative.
func (s *WalletService) Debit(ctx context.Context, input WalletMutationInput) (*models.WalletTransaction, error) {
	if input.Amount <= 0 {
		return nil, ValidationError("amount must be greater than zero")
	}
	return s.apply(ctx, input, -input.Amount, models.WalletTxDeduction)
}

// AdminAdjust applies a signed adjustment; admin only.
func (s *WalletService) AdminAdjust(ctx context.Context, input WalletMutationInput, delta int64) (*models.WalletTransaction, error) {
	if input.Caller.Role != RoleAdmin {
		return nil, ForbiddenError("only admins may adjust wallet balances")
	}
	if delta == 0 {
		return nil, ValidationError("adjustment must be non-zero")
	}
	txType := models.WalletTxTopup
	if delta < 0 {
		txType = models.WalletTxDeduction
	}
	return s.apply(ctx, input, delta, txType)
}

func (s *WalletService) History(ctx context.Context, agentID string, limit int) ([]*models.WalletTransaction, error) {
	if agentID == "" {
		return nil, ValidationError("agent_id is required")
	}
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return nil, classify(err, "agent")
	}
	txns, err := s.agents.ListWalletTransactions(ctx, agentID, limit)
	if err != nil {
		return nil, classify(err, "agent")
	}
	return txns, nil
}

func (s *WalletService) apply(ctx context.Context, input WalletMutationInput, delta int64, txType models.WalletTxType) (*models.WalletTransaction, error) {
	if input.AgentID == "" {
		return nil, ValidationError("agent_id is required")
	}
	if input.ReferenceCode == "" {
		return nil, ValidationError("reference_code is required")
	}

	var txn *models.WalletTransaction
	err := retryTransient(ctx, s.logger, "agents.ApplyWalletDelta", func(ctx context.Context) error {
		var err error
		txn, err = s.agents.ApplyWalletDelta(ctx, input.AgentID, delta, txType, input.ReferenceCode, input.Description)
		return err
	})
	if err != nil {
		var insufficient *repository.InsufficientFundsError
		switch {
		case errors.As(err, &insufficient):
			return nil, InsufficientBalanceError(insufficient.Required, insufficient.Available)
		case errors.Is(err, repository.ErrDuplicateReference):
			return nil, ValidationError("reference_code was already used by a different operation")
		default:
			return nil, classify(err, "agent")
		}
	}

	s.metrics.WalletMutation(string(txType))
	if s.publisher != nil {
		_ = s.publisher.PublishWallet(ctx, events.WalletEvent{
			TransactionID: txn.ID,
			AgentID:       txn.AgentID,
			Type:          string(txn.Type),
			Amount:        models.FromMinorUnits(txn.Amount),
			BalanceAfter:  models.FromMinorUnits(txn.BalanceAfter),
			ReferenceCode: txn.ReferenceCode,
		})
	}

	s.logger.Info("wallet mutated",
		zap.String("agent_id", txn.AgentID),
		zap.String("type", string(txn.Type)),
		zap.Int64("amount", txn.Amount),
		zap.Int64("balance_after", txn.BalanceAfter),
		zap.String("reference_code", txn.ReferenceCode))

	return txn, nil
}
