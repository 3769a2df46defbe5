// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics covers the withdrawal pipeline and the ledger read paths.
type LedgerMetrics struct {
	WithdrawalsRequestedTotal   prometheus.Counter
	WithdrawalsRequestedAmount  prometheus.Counter
	WithdrawalTransitionsTotal  *prometheus.CounterVec
	WithdrawalRejectionsTotal   *prometheus.CounterVec
	LedgerFallbacksTotal        prometheus.Counter
	SummaryCacheHitsTotal       prometheus.Counter
	WalletMutationsTotal        *prometheus.CounterVec
	CommissionsMintedTotal      prometheus.Counter
	CommissionsMintedAmount     prometheus.Counter
}

func NewLedgerMetrics() *LedgerMetrics {
	return &LedgerMetrics{
		WithdrawalsRequestedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "withdrawals_requested_total",
			Help: "Number of withdrawal requests accepted",
		}),
		WithdrawalsRequestedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "withdrawals_requested_amount_total",
			Help: "Total requested withdrawal amount in minor units",
		}),
		WithdrawalTransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "withdrawal_transitions_total",
			Help: "Withdrawal state transitions by target status",
		}, []string{"to"}),
		WithdrawalRejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "withdrawal_request_rejections_total",
			Help: "Withdrawal requests rejected at validation, by error code",
		}, []string{"code"}),
		LedgerFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_fallbacks_total",
			Help: "Times the ledger reader degraded to the cached agent counters",
		}),
		SummaryCacheHitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "summary_cache_hits_total",
			Help: "Commission summary reads served from cache",
		}),
		WalletMutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_mutations_total",
			Help: "Wallet balance mutations by transaction type",
		}, []string{"type"}),
		CommissionsMintedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commissions_minted_total",
			Help: "Commission items minted from completed orders",
		}),
		CommissionsMintedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "commissions_minted_amount_total",
			Help: "Total commission amount minted, in minor units",
		}),
	}
}

// The increment helpers tolerate a nil receiver so tests can wire services
// without touching the global prometheus registry.

func (m *LedgerMetrics) WithdrawalRequested(amount int64) {
	if m == nil {
		return
	}
	m.WithdrawalsRequestedTotal.Inc()
	m.WithdrawalsRequestedAmount.Add(float64(amount))
}

func (m *LedgerMetrics) WithdrawalTransition(to string) {
	if m == nil {
		return
	}
	m.WithdrawalTransitionsTotal.WithLabelValues(to).Inc()
}

func (m *LedgerMetrics) WithdrawalRejected(code string) {
	if m == nil {
		return
	}
	m.WithdrawalRejectionsTotal.WithLabelValues(code).Inc()
}

func (m *LedgerMetrics) LedgerFallback() {
	if m == nil {
		return
	}
	m.LedgerFallbacksTotal.Inc()
}

func (m *LedgerMetrics) SummaryCacheHit() {
	if m == nil {
		return
	}
	m.SummaryCacheHitsTotal.Inc()
}

func (m *LedgerMetrics) WalletMutation(txType string) {
	if m == nil {
		return
	}
	m.WalletMutationsTotal.WithLabelValues(txType).Inc()
}

func (m *LedgerMetrics) CommissionMinted(amount int64) {
	if m == nil {
		return
	}
	m.CommissionsMintedTotal.Inc()
	m.CommissionsMintedAmount.Add(float64(amount))
}
