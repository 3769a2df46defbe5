// internal/service/fakes_test.go
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"commission-ledger/internal/models"
	"commission-ledger/internal/repository"
)

// fakeStore is an in-memory stand-in for all repositories, enforcing the same
// invariants the SQL layer enforces: one open withdrawal per agent, earned-only
// reservation, reference-code idempotency, and no negative balances.
type fakeStore struct {
	mu          sync.Mutex
	agents      map[string]*models.Agent
	items       map[string]*models.CommissionItem
	withdrawals map[string]*models.WithdrawalRequest
	walletTxns  map[string]*models.WalletTransaction
	orders      map[string]*models.Order

	sumErr         error // forces SumByStatus to fail
	createOrderErr error // forces CreateWithDebit to fail
	seedTime       time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		agents:      make(map[string]*models.Agent),
		items:       make(map[string]*models.CommissionItem),
		withdrawals: make(map[string]*models.WithdrawalRequest),
		walletTxns:  make(map[string]*models.WalletTransaction),
		orders:      make(map[string]*models.Order),
		seedTime:    time.Now().Add(-time.Hour),
	}
}

func (f *fakeStore) addAgent(id string, walletBalance int64) *models.Agent {
	agent := &models.Agent{
		ID:            id,
		FullName:      "Agent " + id,
		Phone:         "0244000000",
		IsApproved:    true,
		WalletBalance: walletBalance,
		CreatedAt:     f.seedTime,
		UpdatedAt:     f.seedTime,
	}
	f.agents[id] = agent
	return agent
}

// addEarned seeds one earned item; successive calls get increasing timestamps
// so FIFO order matches insertion order.
func (f *fakeStore) addEarned(agentID string, amount int64) *models.CommissionItem {
	f.seedTime = f.seedTime.Add(time.Second)
	item := &models.CommissionItem{
		ID:         uuid.New().String(),
		AgentID:    agentID,
		SourceType: models.SourceDataOrder,
		SourceID:   uuid.New().String(),
		Amount:     amount,
		Status:     models.CommissionStatusEarned,
		CreatedAt:  f.seedTime,
		UpdatedAt:  f.seedTime,
	}
	f.items[item.ID] = item
	if agent, ok := f.agents[agentID]; ok {
		agent.TotalCommissionEarned += amount
	}
	return item
}

// AgentStore

func (f *fakeStore) GetByID(ctx context.Context, agentID string) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	agent, ok := f.agents[agentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *agent
	return &copied, nil
}

func (f *fakeStore) ApplyWalletDelta(ctx context.Context, agentID string, delta int64, txType models.WalletTxType, referenceCode, description string) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	if existing, ok := f.walletTxns[referenceCode]; ok {
		if existing.AgentID != agentID || existing.Type != txType || existing.Amount != amount {
			return nil, repository.ErrDuplicateReference
		}
		copied := *existing
		return &copied, nil
	}

	agent, ok := f.agents[agentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if agent.WalletBalance+delta < 0 {
		return nil, &repository.InsufficientFundsError{Required: -delta, Available: agent.WalletBalance}
	}
	agent.WalletBalance += delta

	txn := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       agentID,
		Type:          txType,
		Amount:        amount,
		Status:        models.WalletTxStatusApproved,
		ReferenceCode: referenceCode,
		Description:   description,
		BalanceAfter:  agent.WalletBalance,
		CreatedAt:     time.Now(),
	}
	f.walletTxns[referenceCode] = txn
	copied := *txn
	return &copied, nil
}

func (f *fakeStore) ListWalletTransactions(ctx context.Context, agentID string, limit int) ([]*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var txns []*models.WalletTransaction
	for _, txn := range f.walletTxns {
		if txn.AgentID == agentID {
			copied := *txn
			txns = append(txns, &copied)
		}
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return txns, nil
}

// CommissionStore

func (f *fakeStore) SumByStatus(ctx context.Context, agentID string) (map[models.CommissionStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sumErr != nil {
		return nil, f.sumErr
	}
	sums := make(map[models.CommissionStatus]int64)
	for _, item := range f.items {
		if item.AgentID == agentID {
			sums[item.Status] += item.Amount
		}
	}
	return sums, nil
}

func (f *fakeStore) ListEarnedFIFO(ctx context.Context, agentID string) ([]*models.CommissionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*models.CommissionItem
	for _, item := range f.items {
		if item.AgentID == agentID && item.Status == models.CommissionStatusEarned {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (f *fakeStore) ListByWithdrawal(ctx context.Context, withdrawalID string) ([]*models.CommissionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*models.CommissionItem
	for _, item := range f.items {
		if item.WithdrawalID.Valid && item.WithdrawalID.String == withdrawalID {
			copied := *item
			items = append(items, &copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

// WithdrawalStore

func (f *fakeStore) CreateWithReservation(ctx context.Context, req *models.WithdrawalRequest, itemIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range f.withdrawals {
		if w.AgentID == req.AgentID && !w.Status.IsTerminal() {
			return repository.ErrDuplicatePending
		}
	}
	for _, id := range itemIDs {
		item, ok := f.items[id]
		if !ok || item.AgentID != req.AgentID || item.Status != models.CommissionStatusEarned {
			return repository.ErrStateConflict
		}
	}
	for _, id := range itemIDs {
		item := f.items[id]
		item.Status = models.CommissionStatusPendingWithdrawal
		item.WithdrawalID.Valid = true
		item.WithdrawalID.String = req.ID
	}
	copied := *req
	f.withdrawals[req.ID] = &copied
	return nil
}

func (f *fakeStore) getWithdrawal(withdrawalID string) (*models.WithdrawalRequest, error) {
	w, ok := f.withdrawals[withdrawalID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) GetWithdrawalByID(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.getWithdrawal(withdrawalID)
	if err != nil {
		return nil, err
	}
	copied := *w
	return &copied, nil
}

func (f *fakeStore) Approve(ctx context.Context, withdrawalID, adminID, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.getWithdrawal(withdrawalID)
	if err != nil {
		return err
	}
	if w.Status != models.WithdrawalStatusRequested {
		return repository.ErrStateConflict
	}
	w.Status = models.WithdrawalStatusApproved
	w.AdminID.Valid = true
	w.AdminID.String = adminID
	w.AdminNotes = notes
	w.ProcessedAt.Valid = true
	w.ProcessedAt.Time = time.Now()
	return nil
}

func (f *fakeStore) Reject(ctx context.Context, withdrawalID, adminID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.getWithdrawal(withdrawalID)
	if err != nil {
		return err
	}
	if w.Status != models.WithdrawalStatusRequested {
		return repository.ErrStateConflict
	}
	w.Status = models.WithdrawalStatusRejected
	w.AdminID.Valid = true
	w.AdminID.String = adminID
	w.RejectionReason = reason
	w.ProcessedAt.Valid = true
	w.ProcessedAt.Time = time.Now()
	for _, item := range f.items {
		if item.WithdrawalID.Valid && item.WithdrawalID.String == withdrawalID && item.Status == models.CommissionStatusPendingWithdrawal {
			item.Status = models.CommissionStatusEarned
			item.WithdrawalID.Valid = false
			item.WithdrawalID.String = ""
		}
	}
	return nil
}

func (f *fakeStore) Settle(ctx context.Context, withdrawalID string, target models.WithdrawalStatus, adminID, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.getWithdrawal(withdrawalID)
	if err != nil {
		return err
	}
	if w.Status != models.WithdrawalStatusApproved {
		return repository.ErrStateConflict
	}
	w.Status = target
	w.AdminID.Valid = true
	w.AdminID.String = adminID
	w.AdminNotes = notes
	w.ProcessedAt.Valid = true
	w.ProcessedAt.Time = time.Now()
	for _, item := range f.items {
		if item.WithdrawalID.Valid && item.WithdrawalID.String == withdrawalID && item.Status == models.CommissionStatusPendingWithdrawal {
			item.Status = models.CommissionStatusWithdrawn
		}
	}
	if agent, ok := f.agents[w.AgentID]; ok {
		agent.TotalCommissionPaidOut += w.ReservedAmount
	}
	return nil
}

func (f *fakeStore) HasOpen(ctx context.Context, agentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.withdrawals {
		if w.AgentID == agentID && !w.Status.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CountRecentByAmount(ctx context.Context, agentID string, amount int64, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, w := range f.withdrawals {
		if w.AgentID == agentID && w.Amount == amount && !w.RequestedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListByAgent(ctx context.Context, agentID string, limit int) ([]*models.WithdrawalRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var withdrawals []*models.WithdrawalRequest
	for _, w := range f.withdrawals {
		if w.AgentID == agentID {
			copied := *w
			withdrawals = append(withdrawals, &copied)
		}
	}
	sort.Slice(withdrawals, func(i, j int) bool { return withdrawals[i].RequestedAt.After(withdrawals[j].RequestedAt) })
	return withdrawals, nil
}

// OrderStore

// CreateWithDebit mirrors the SQL contract: all or nothing. A forced failure
// leaves the balance and the transaction log untouched, as a rollback would.
func (f *fakeStore) CreateWithDebit(ctx context.Context, order *models.Order, description string) (*models.Order, *models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.walletTxns[order.ReferenceCode]; ok {
		if existing.AgentID != order.AgentID || existing.Type != models.WalletTxDeduction || existing.Amount != order.Amount {
			return nil, nil, repository.ErrDuplicateReference
		}
		for _, o := range f.orders {
			if o.ReferenceCode == order.ReferenceCode {
				orderCopy := *o
				txnCopy := *existing
				return &orderCopy, &txnCopy, nil
			}
		}
		return nil, nil, repository.ErrDuplicateReference
	}

	agent, ok := f.agents[order.AgentID]
	if !ok {
		return nil, nil, repository.ErrNotFound
	}
	if f.createOrderErr != nil {
		return nil, nil, f.createOrderErr
	}
	if agent.WalletBalance < order.Amount {
		return nil, nil, &repository.InsufficientFundsError{Required: order.Amount, Available: agent.WalletBalance}
	}
	agent.WalletBalance -= order.Amount

	txn := &models.WalletTransaction{
		ID:            uuid.New().String(),
		AgentID:       order.AgentID,
		Type:          models.WalletTxDeduction,
		Amount:        order.Amount,
		Status:        models.WalletTxStatusApproved,
		ReferenceCode: order.ReferenceCode,
		Description:   description,
		BalanceAfter:  agent.WalletBalance,
		CreatedAt:     time.Now(),
	}
	f.walletTxns[order.ReferenceCode] = txn

	orderCopy := *order
	f.orders[order.ID] = &orderCopy

	placed := *order
	txnCopy := *txn
	return &placed, &txnCopy, nil
}

func (f *fakeStore) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeStore) CompleteWithCommission(ctx context.Context, orderID string) (*models.CommissionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, repository.ErrStateConflict
	}
	order.Status = models.OrderStatusCompleted

	item := &models.CommissionItem{
		ID:         uuid.New().String(),
		AgentID:    order.AgentID,
		SourceType: models.CommissionSource(order.Type),
		SourceID:   order.ID,
		Amount:     order.CommissionAmount,
		Status:     models.CommissionStatusEarned,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.items[item.ID] = item
	if agent, ok := f.agents[order.AgentID]; ok {
		agent.TotalCommissionEarned += item.Amount
	}
	copied := *item
	return &copied, nil
}

// Adapters: the fake has method-name clashes between the store interfaces
// (GetByID), so narrow views are handed to each service.

type fakeWithdrawalStore struct{ *fakeStore }

func (f fakeWithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (*models.WithdrawalRequest, error) {
	return f.GetWithdrawalByID(ctx, withdrawalID)
}

type fakeOrderStore struct{ *fakeStore }

func (f fakeOrderStore) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	return f.GetOrderByID(ctx, orderID)
}

// sumsOf is a test helper asserting totals straight off the fake.
func (f *fakeStore) sumsOf(agentID string) map[models.CommissionStatus]int64 {
	sums, err := f.SumByStatus(context.Background(), agentID)
	if err != nil {
		panic(fmt.Sprintf("sumsOf: %v", err))
	}
	return sums
}
