// internal/service/summary_cache_test.go
package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"commission-ledger/internal/models"
)

// The redis layer stores summaries as JSON, so the figures must survive a
// marshal/unmarshal round trip exactly. A tag that hides a field here would
// silently serve zeroed balances on every redis hit.
func TestSummaryJSONRoundTrip(t *testing.T) {
	in := &models.CommissionSummary{
		AgentID:              "a1",
		AvailableCommissions: 12000,
		TotalCommissions:     13000,
		Degraded:             false,
		ComputedAt:           time.Now().UTC().Truncate(time.Second),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out models.CommissionSummary
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, in.AgentID, out.AgentID)
	assert.Equal(t, int64(12000), out.AvailableCommissions)
	assert.Equal(t, int64(13000), out.TotalCommissions)
	assert.Equal(t, in.Degraded, out.Degraded)
	assert.True(t, in.ComputedAt.Equal(out.ComputedAt))
}

func TestSummaryCacheSetGetInvalidate(t *testing.T) {
	cache := NewSummaryCache(nil, zap.NewNop())
	ctx := context.Background()

	summary := &models.CommissionSummary{
		AgentID:              "a1",
		AvailableCommissions: 7000,
		TotalCommissions:     9000,
		ComputedAt:           time.Now(),
	}

	require.Nil(t, cache.Get(ctx, "a1"), "empty cache must miss")

	cache.Set(ctx, summary)
	got := cache.Get(ctx, "a1")
	require.NotNil(t, got)
	assert.Equal(t, int64(7000), got.AvailableCommissions)
	assert.Equal(t, int64(9000), got.TotalCommissions)

	assert.Nil(t, cache.Get(ctx, "a2"), "keys are per agent")

	cache.Invalidate(ctx, "a1")
	assert.Nil(t, cache.Get(ctx, "a1"), "invalidation must drop the entry")
}
