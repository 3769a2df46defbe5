// internal/service/order_service.go
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"commission-ledger/internal/events"
	"commission-ledger/internal/metrics"
	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// OrderService covers the slice of order handling that feeds the ledger:
// placing an order (debiting the wallet) and completing it, which mints the
// order's single earned commission item.
type OrderService struct {
	orders    OrderStore
	ledger    *LedgerService
	publisher events.Publisher
	metrics   *metrics.LedgerMetrics
	logger    *zap.Logger
}

func NewOrderService(orders OrderStore, ledger *LedgerService, publisher events.Publisher, m *metrics.LedgerMetrics, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:    orders,
		ledger:    ledger,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

type PlaceOrderInput struct {
	AgentID          string
	Type             models.OrderType
	ProductRef       string
	Amount           int64
	CommissionAmount int64
	ReferenceCode    string
	Caller           Caller
}

// PlaceOrder records the pending order and debits the agent's wallet for its
// amount in one store transaction, so a failed checkout never leaves the
// wallet debited without an order row. The order's reference code is the
// idempotency key: a retried checkout returns the already placed order.
func (s *OrderService) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if input.Type != models.OrderTypeData && input.Type != models.OrderTypeWholesale {
		return nil, ValidationError("type must be data_order or wholesale_order")
	}
	if input.ProductRef == "" {
		return nil, ValidationError("product_ref is required")
	}
	if input.Amount <= 0 {
		return nil, ValidationError("amount must be greater than zero")
	}
	if input.CommissionAmount < 0 {
		return nil, ValidationError("commission_amount cannot be negative")
	}
	if input.ReferenceCode == "" {
		return nil, ValidationError("reference_code is required")
	}
	if input.Caller.Role != RoleAdmin && input.Caller.ID != input.AgentID {
		return nil, ForbiddenError("agents may only place orders for themselves")
	}

	order := &models.Order{
		ID:               uuid.New().String(),
		AgentID:          input.AgentID,
		Type:             input.Type,
		ProductRef:       input.ProductRef,
		Amount:           input.Amount,
		CommissionAmount: input.CommissionAmount,
		Status:           models.OrderStatusPending,
		ReferenceCode:    input.ReferenceCode,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	var placed *models.Order
	var txn *models.WalletTransaction
	err := retryTransient(ctx, s.logger, "orders.CreateWithDebit", func(ctx context.Context) error {
		var err error
		placed, txn, err = s.orders.CreateWithDebit(ctx, order, "order checkout: "+input.ProductRef)
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

	s.metrics.WalletMutation(string(txn.Type))
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

	s.logger.Info("order placed",
		zap.String("order_id", placed.ID),
		zap.String("agent_id", placed.AgentID),
		zap.String("type", string(placed.Type)),
		zap.Int64("amount", placed.Amount),
		zap.String("reference_code", placed.ReferenceCode))

	return placed, nil
}

// GetOrder returns one order by id.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, classify(err, "order")
	}
	return order, nil
}

// CompleteOrder marks the order completed and mints its commission item.
// Completing twice fails; the item cannot be minted more than once.
func (s *OrderService) CompleteOrder(ctx context.Context, orderID string, caller Caller) (*models.CommissionItem, error) {
	if caller.Role != RoleAdmin {
		return nil, ForbiddenError("only admins may complete orders")
	}

	var item *models.CommissionItem
	err := retryTransient(ctx, s.logger, "orders.CompleteWithCommission", func(ctx context.Context) error {
		var err error
		item, err = s.orders.CompleteWithCommission(ctx, orderID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			return nil, &AppError{
				Code:       CodeInvalidStateTransition,
				Message:    "order is not pending",
				HTTPStatus: http.StatusConflict,
			}
		}
		return nil, classify(err, "order")
	}

	s.ledger.InvalidateSummary(ctx, item.AgentID)
	s.metrics.CommissionMinted(item.Amount)
	if s.publisher != nil {
		_ = s.publisher.PublishCommission(ctx, events.CommissionEvent{
			CommissionID: item.ID,
			AgentID:      item.AgentID,
			SourceType:   string(item.SourceType),
			SourceID:     item.SourceID,
			Amount:       models.FromMinorUnits(item.Amount),
		})
	}

	s.logger.Info("order completed, commission minted",
		zap.String("order_id", orderID),
		zap.String("commission_id", item.ID),
		zap.String("agent_id", item.AgentID),
		zap.Int64("commission_amount", item.Amount))

	return item, nil
}
