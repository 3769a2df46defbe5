// internal/service/withdrawal_service.go
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"commission-ledger/internal/events"
	"commission-ledger/internal/metrics"
	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// Caller identifies who is invoking an operation. The upstream gateway
// authenticates the user and forwards identity headers; this service only
// enforces the role rules.
type Caller struct {
	ID   string
	Role string
}

const (
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// duplicateAmountWindow is the anti-fraud cooldown: the same agent may not
// request the same amount twice within it.
const duplicateAmountWindow = 24 * time.Hour

type WithdrawalRequestInput struct {
	AgentID    string
	Amount     int64
	MomoNumber string
	Caller     Caller
}

type TransitionInput struct {
	WithdrawalID string
	Target       models.WithdrawalStatus
	AdminNotes   string
	Confirm      bool
	Caller       Caller
}

// WithdrawalService owns withdrawal creation (commission reservation) and the
// admin-driven status state machine.
type WithdrawalService struct {
	agents      AgentStore
	commissions CommissionStore
	withdrawals WithdrawalStore
	ledger      *LedgerService
	publisher   events.Publisher
	metrics     *metrics.LedgerMetrics
	logger      *zap.Logger
}

func NewWithdrawalService(
	agents AgentStore,
	commissions CommissionStore,
	withdrawals WithdrawalStore,
	ledger *LedgerService,
	publisher events.Publisher,
	m *metrics.LedgerMetrics,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		agents:      agents,
		commissions: commissions,
		withdrawals: withdrawals,
		ledger:      ledger,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

// RequestWithdrawal validates and creates a withdrawal request, reserving a
// covering set of earned commission items atomically with the request row.
//
// Preconditions run in order, first failure wins:
//  1. the agent exists and the caller is the agent itself or an admin
//  2. amount <= availableCommissions from a fresh ledger read
//  3. no open (requested/approved) withdrawal exists for the agent
//  4. no request for the same amount in the last 24 hours
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, input WithdrawalRequestInput) (*models.WithdrawalRequest, error) {
	if input.AgentID == "" {
		return nil, s.rejected(ValidationError("agent_id is required"))
	}
	if input.Amount <= 0 {
		return nil, s.rejected(ValidationError("amount must be greater than zero"))
	}
	if input.MomoNumber == "" {
		return nil, s.rejected(ValidationError("momo_number is required"))
	}
	if input.Caller.Role != RoleAdmin && input.Caller.ID != input.AgentID {
		return nil, s.rejected(ForbiddenError("agents may only request withdrawals for themselves"))
	}

	summary, err := s.ledger.CommissionSummary(ctx, input.AgentID, true)
	if err != nil {
		return nil, err
	}
	if input.Amount > summary.AvailableCommissions {
		return nil, s.rejected(InsufficientBalanceError(input.Amount, summary.AvailableCommissions))
	}

	var open bool
	err = retryTransient(ctx, s.logger, "withdrawals.HasOpen", func(ctx context.Context) error {
		var err error
		open, err = s.withdrawals.HasOpen(ctx, input.AgentID)
		return err
	})
	if err != nil {
		return nil, classify(err, "withdrawal")
	}
	if open {
		return nil, s.rejected(DuplicatePendingRequestError())
	}

	var recent int
	err = retryTransient(ctx, s.logger, "withdrawals.CountRecentByAmount", func(ctx context.Context) error {
		var err error
		recent, err = s.withdrawals.CountRecentByAmount(ctx, input.AgentID, input.Amount, time.Now().Add(-duplicateAmountWindow))
		return err
	})
	if err != nil {
		return nil, classify(err, "withdrawal")
	}
	if recent > 0 {
		return nil, s.rejected(DuplicateAmountCooldownError())
	}

	items, err := s.commissions.ListEarnedFIFO(ctx, input.AgentID)
	if err != nil {
		return nil, classify(err, "agent")
	}
	itemIDs, reserved, covered := selectCovering(items, input.Amount)
	if !covered {
		// The fresh summary said otherwise moments ago; a concurrent
		// reservation must have claimed the items in between.
		return nil, s.rejected(InsufficientBalanceError(input.Amount, reserved))
	}

	withdrawal := &models.WithdrawalRequest{
		ID:             uuid.New().String(),
		AgentID:        input.AgentID,
		Amount:         input.Amount,
		ReservedAmount: reserved,
		MomoNumber:     input.MomoNumber,
		Status:         models.WithdrawalStatusRequested,
		RequestedAt:    time.Now(),
	}

	err = s.withdrawals.CreateWithReservation(ctx, withdrawal, itemIDs)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicatePending):
			return nil, s.rejected(DuplicatePendingRequestError())
		case errors.Is(err, repository.ErrStateConflict):
			// Items were reserved by a concurrent request between our FIFO
			// read and the reservation; everything rolled back.
			return nil, s.rejected(DuplicatePendingRequestError())
		default:
			return nil, classify(err, "withdrawal")
		}
	}

	s.ledger.InvalidateSummary(ctx, input.AgentID)
	s.metrics.WithdrawalRequested(input.Amount)
	s.publishWithdrawalEvent(ctx, withdrawal)

	s.logger.Info("withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID),
		zap.String("agent_id", withdrawal.AgentID),
		zap.Int64("amount", withdrawal.Amount),
		zap.Int64("reserved_amount", withdrawal.ReservedAmount),
		zap.Int("items_reserved", len(itemIDs)))

	return withdrawal, nil
}

// Transition applies one admin-driven state change. Transitions out of a
// terminal state fail with an invalid-transition error, never a silent no-op,
// so admin double-clicks surface.
func (s *WithdrawalService) Transition(ctx context.Context, input TransitionInput) (*models.WithdrawalRequest, error) {
	if input.Caller.Role != RoleAdmin {
		return nil, ForbiddenError("only admins may process withdrawals")
	}
	switch input.Target {
	case models.WithdrawalStatusApproved, models.WithdrawalStatusRejected,
		models.WithdrawalStatusPaid, models.WithdrawalStatusCompleted:
	default:
		return nil, ValidationError("unrecognized target status")
	}

	withdrawal, err := s.getByID(ctx, input.WithdrawalID)
	if err != nil {
		return nil, err
	}
	if !withdrawal.Status.CanTransitionTo(input.Target) {
		return nil, InvalidStateTransitionError(withdrawal.Status, input.Target)
	}

	switch input.Target {
	case models.WithdrawalStatusApproved:
		err = s.withdrawals.Approve(ctx, input.WithdrawalID, input.Caller.ID, input.AdminNotes)
	case models.WithdrawalStatusRejected:
		err = s.withdrawals.Reject(ctx, input.WithdrawalID, input.Caller.ID, input.AdminNotes)
	case models.WithdrawalStatusPaid, models.WithdrawalStatusCompleted:
		// Settlement is irreversible; require the caller to say so.
		if !input.Confirm {
			return nil, ValidationError("marking a withdrawal paid is irreversible and requires confirm=true")
		}
		err = s.withdrawals.Settle(ctx, input.WithdrawalID, input.Target, input.Caller.ID, input.AdminNotes)
	}
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			// Concurrent admin action won the race; report the state we lost to.
			current, readErr := s.getByID(ctx, input.WithdrawalID)
			if readErr != nil {
				return nil, readErr
			}
			return nil, InvalidStateTransitionError(current.Status, input.Target)
		}
		return nil, classify(err, "withdrawal")
	}

	updated, err := s.getByID(ctx, input.WithdrawalID)
	if err != nil {
		return nil, err
	}

	s.ledger.InvalidateSummary(ctx, withdrawal.AgentID)
	s.metrics.WithdrawalTransition(string(input.Target))
	s.publishWithdrawalEvent(ctx, updated)

	s.logger.Info("withdrawal transitioned",
		zap.String("withdrawal_id", updated.ID),
		zap.String("agent_id", updated.AgentID),
		zap.String("from", string(withdrawal.Status)),
		zap.String("to", string(updated.Status)),
		zap.String("admin_id", input.Caller.ID))

	return updated, nil
}

// GetWithdrawal returns the request with its reserved/settled items attached.
func (s *WithdrawalService) GetWithdrawal(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error) {
	withdrawal, err := s.getByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	items, err := s.commissions.ListByWithdrawal(ctx, withdrawalID)
	if err != nil {
		return nil, classify(err, "withdrawal")
	}
	withdrawal.Items = items
	return withdrawal, nil
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context, agentID string, limit int) ([]*models.WithdrawalRequest, error) {
	if agentID == "" {
		return nil, ValidationError("agent_id is required")
	}
	if _, err := s.agents.GetByID(ctx, agentID); err != nil {
		return nil, classify(err, "agent")
	}
	withdrawals, err := s.withdrawals.ListByAgent(ctx, agentID, limit)
	if err != nil {
		return nil, classify(err, "withdrawal")
	}
	return withdrawals, nil
}

func (s *WithdrawalService) getByID(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error) {
	var withdrawal *models.WithdrawalRequest
	err := retryTransient(ctx, s.logger, "withdrawals.GetByID", func(ctx context.Context) error {
		var err error
		withdrawal, err = s.withdrawals.GetByID(ctx, withdrawalID)
		return err
	})
	if err != nil {
		return nil, classify(err, "withdrawal")
	}
	return withdrawal, nil
}

// selectCovering picks earned items oldest-first until their cumulative
// amount covers the requested amount. Over-coverage is fine; the whole subset
// stays reserved, not withdrawn, until settlement.
func selectCovering(items []*models.CommissionItem, amount int64) (ids []string, reserved int64, covered bool) {
	for _, item := range items {
		ids = append(ids, item.ID)
		reserved += item.Amount
		if reserved >= amount {
			return ids, reserved, true
		}
	}
	return ids, reserved, false
}

func (s *WithdrawalService) rejected(appErr *AppError) error {
	s.metrics.WithdrawalRejected(appErr.Code)
	return appErr
}

func (s *WithdrawalService) publishWithdrawalEvent(ctx context.Context, w *models.WithdrawalRequest) {
	if s.publisher == nil {
		return
	}
	// The transition is already committed; a publish failure is logged by the
	// publisher and must not fail the request.
	_ = s.publisher.PublishWithdrawal(ctx, events.WithdrawalEvent{
		WithdrawalID: w.ID,
		AgentID:      w.AgentID,
		Status:       string(w.Status),
		Amount:       models.FromMinorUnits(w.Amount),
		MomoNumber:   w.MomoNumber,
	})
}
