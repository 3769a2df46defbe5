// internal/service/ledger_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"commission-ledger/internal/metrics"
	"commission-ledger/internal/models"
)

// LedgerService computes the authoritative commission figures for an agent.
// commission_items is the source of truth; the agent row's counters are only
// a degraded fallback for display when the aggregation query fails.
type LedgerService struct {
	agents      AgentStore
	commissions CommissionStore
	cache       *SummaryCache
	metrics     *metrics.LedgerMetrics
	logger      *zap.Logger
}

func NewLedgerService(agents AgentStore, commissions CommissionStore, cache *SummaryCache, m *metrics.LedgerMetrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		agents:      agents,
		commissions: commissions,
		cache:       cache,
		metrics:     m,
		logger:      logger,
	}
}

// CommissionSummary returns availableCommissions (earned items only) and
// totalCommissions (earned + pending_withdrawal + withdrawn) for the agent.
//
// With fresh=false (dashboards) the result may come from the 5-minute cache
// or degrade to the agent's cached counters when the aggregation fails. With
// fresh=true (withdrawal validation) neither shortcut is allowed: the sums
// are read directly and any store failure propagates.
func (s *LedgerService) CommissionSummary(ctx context.Context, agentID string, fresh bool) (*models.CommissionSummary, error) {
	if agentID == "" {
		return nil, ValidationError("agent_id is required")
	}

	var agent *models.Agent
	err := retryTransient(ctx, s.logger, "agents.GetByID", func(ctx context.Context) error {
		var err error
		agent, err = s.agents.GetByID(ctx, agentID)
		return err
	})
	if err != nil {
		return nil, classify(err, "agent")
	}

	if !fresh && s.cache != nil {
		if cached := s.cache.Get(ctx, agentID); cached != nil {
			s.metrics.SummaryCacheHit()
			return cached, nil
		}
	}

	var sums map[models.CommissionStatus]int64
	err = retryTransient(ctx, s.logger, "commissions.SumByStatus", func(ctx context.Context) error {
		var err error
		sums, err = s.commissions.SumByStatus(ctx, agentID)
		return err
	})
	if err != nil {
		if fresh {
			// Never approve a withdrawal from degraded figures.
			return nil, classify(err, "agent")
		}
		return s.degradedSummary(agent, err), nil
	}

	earned := sums[models.CommissionStatusEarned]
	pending := sums[models.CommissionStatusPendingWithdrawal]
	withdrawn := sums[models.CommissionStatusWithdrawn]

	summary := &models.CommissionSummary{
		AgentID:              agentID,
		AvailableCommissions: earned,
		TotalCommissions:     earned + pending + withdrawn,
		ComputedAt:           time.Now(),
	}

	if !fresh && s.cache != nil {
		s.cache.Set(ctx, summary)
	}
	return summary, nil
}

// degradedSummary approximates the figures from the agent's denormalized
// counters. The result is flagged so callers can surface a warning; it is
// never valid input for a withdrawal decision.
func (s *LedgerService) degradedSummary(agent *models.Agent, cause error) *models.CommissionSummary {
	s.metrics.LedgerFallback()
	s.logger.Warn("commission aggregation failed, serving degraded summary from cached counters",
		zap.String("agent_id", agent.ID),
		zap.Error(cause))

	available := agent.TotalCommissionEarned - agent.TotalCommissionPaidOut
	if available < 0 {
		available = 0
	}
	return &models.CommissionSummary{
		AgentID:              agent.ID,
		AvailableCommissions: available,
		TotalCommissions:     agent.TotalCommissionEarned,
		Degraded:             true,
		ComputedAt:           time.Now(),
	}
}

// InvalidateSummary drops any cached figures after a balance-changing
// operation so dashboards converge quickly.
func (s *LedgerService) InvalidateSummary(ctx context.Context, agentID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, agentID)
	}
}
