// internal/events/events.go
package events

// Event payloads dispatched after a transition has been durably committed.
// Consumers (SMS/agent-facing notifications) live outside this service.

type WithdrawalEvent struct {
	WithdrawalID string  `json:"withdrawal_id"`
	AgentID      string  `json:"agent_id"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	MomoNumber   string  `json:"momo_number,omitempty"`
}

type WalletEvent struct {
	TransactionID string  `json:"transaction_id"`
	AgentID       string  `json:"agent_id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	BalanceAfter  float64 `json:"balance_after"`
	ReferenceCode string  `json:"reference_code"`
}

type CommissionEvent struct {
	CommissionID string  `json:"commission_id"`
	AgentID      string  `json:"agent_id"`
	SourceType   string  `json:"source_type"`
	SourceID     string  `json:"source_id"`
	Amount       float64 `json:"amount"`
}
