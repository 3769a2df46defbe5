// internal/service/ledger_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
)

func TestCommissionSummaryComputesFromItems(t *testing.T) {
	store := newFakeStore()
	store.addAgent("a1", 0)
	store.addEarned("a1", 8000)
	store.addEarned("a1", 5000)
	ledger, _, _, _ := newTestServices(store)

	for _, fresh := range []bool{true, false} {
		summary, err := ledger.CommissionSummary(context.Background(), "a1", fresh)
		require.NoError(t, err)
		assert.Equal(t, "a1", summary.AgentID)
		assert.Equal(t, int64(13000), summary.AvailableCommissions)
		assert.Equal(t, int64(13000), summary.TotalCommissions)
		assert.False(t, summary.Degraded)
	}
}

func TestCommissionSummaryCountsAllStatuses(t *testing.T) {
	store := newFakeStore()
	store.addAgent("a1", 0)
	store.addEarned("a1", 3000)
	store.addEarned("a1", 4000).Status = models.CommissionStatusPendingWithdrawal
	store.addEarned("a1", 5000).Status = models.CommissionStatusWithdrawn
	ledger, _, _, _ := newTestServices(store)

	summary, err := ledger.CommissionSummary(context.Background(), "a1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), summary.AvailableCommissions, "only earned items are available")
	assert.Equal(t, int64(12000), summary.TotalCommissions, "total spans every status")
}

func TestCommissionSummaryDegradedFallback(t *testing.T) {
	store := newFakeStore()
	agent := store.addAgent("a1", 0)
	agent.TotalCommissionEarned = 12000
	agent.TotalCommissionPaidOut = 5000
	store.sumErr = errors.New("canceling statement due to statement timeout")
	ledger, _, _, _ := newTestServices(store)

	summary, err := ledger.CommissionSummary(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.True(t, summary.Degraded)
	assert.Equal(t, int64(7000), summary.AvailableCommissions, "earned minus paid out from the cached counters")
	assert.Equal(t, int64(12000), summary.TotalCommissions)
}

func TestCommissionSummaryDegradedNeverNegative(t *testing.T) {
	store := newFakeStore()
	agent := store.addAgent("a1", 0)
	agent.TotalCommissionEarned = 2000
	agent.TotalCommissionPaidOut = 5000
	store.sumErr = errors.New("boom")
	ledger, _, _, _ := newTestServices(store)

	summary, err := ledger.CommissionSummary(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.True(t, summary.Degraded)
	assert.Equal(t, int64(0), summary.AvailableCommissions)
}

func TestCommissionSummaryFreshFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.addAgent("a1", 0)
	store.sumErr = errors.New("boom")
	ledger, _, _, _ := newTestServices(store)

	// The withdrawal path must never see degraded figures.
	_, err := ledger.CommissionSummary(context.Background(), "a1", true)
	requireCode(t, err, CodeInternal)
}

func TestCommissionSummaryUnknownAgent(t *testing.T) {
	store := newFakeStore()
	ledger, _, _, _ := newTestServices(store)

	_, err := ledger.CommissionSummary(context.Background(), "ghost", false)
	requireCode(t, err, CodeNotFound)

	_, err = ledger.CommissionSummary(context.Background(), "", false)
	requireCode(t, err, CodeValidation)
}

func TestCommissionSummaryCacheAndInvalidation(t *testing.T) {
	store := newFakeStore()
	store.addAgent("a1", 0)
	store.addEarned("a1", 5000)
	cache := NewSummaryCache(nil, zap.NewNop())
	ledger := NewLedgerService(store, store, cache, nil, zap.NewNop())
	ctx := context.Background()

	first, err := ledger.CommissionSummary(ctx, "a1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), first.AvailableCommissions)

	// The cached figure is served even though the underlying items changed.
	store.addEarned("a1", 2000)
	cached, err := ledger.CommissionSummary(ctx, "a1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cached.AvailableCommissions)

	// fresh=true bypasses the cache.
	freshSummary, err := ledger.CommissionSummary(ctx, "a1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), freshSummary.AvailableCommissions)

	// Invalidation forces a recompute on the display path too.
	ledger.InvalidateSummary(ctx, "a1")
	recomputed, err := ledger.CommissionSummary(ctx, "a1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), recomputed.AvailableCommissions)
}
