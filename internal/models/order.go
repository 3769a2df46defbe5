// internal/models/order.go
package models

import "time"

type OrderType string
type OrderStatus string

const (
	OrderTypeData      OrderType = "data_order"
	OrderTypeWholesale OrderType = "wholesale_order"

	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// Order is a data-bundle or wholesale purchase placed by an agent.
// Completing an order mints exactly one earned CommissionItem for
// CommissionAmount; the (source_type, source_id) unique constraint on
// commission_items makes the mint idempotent.
type Order struct {
	ID               string      `json:"id" db:"id"`
	AgentID          string      `json:"agent_id" db:"agent_id"`
	Type             OrderType   `json:"type" db:"type"`
	ProductRef       string      `json:"product_ref" db:"product_ref"`
	Amount           int64       `json:"amount" db:"amount"`
	CommissionAmount int64       `json:"commission_amount" db:"commission_amount"`
	Status           OrderStatus `json:"status" db:"status"`
	ReferenceCode    string      `json:"reference_code" db:"reference_code"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
}

// Database schema
const OrderSchema = `
CREATE TABLE IF NOT EXISTS orders (
    id VARCHAR(36) PRIMARY KEY,
    agent_id VARCHAR(36) NOT NULL REFERENCES agents(id),
    type VARCHAR(20) NOT NULL,
    product_ref VARCHAR(100) NOT NULL,
    amount BIGINT NOT NULL CHECK (amount >= 0),
    commission_amount BIGINT NOT NULL CHECK (commission_amount >= 0),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reference_code VARCHAR(100) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE (reference_code)
);

CREATE INDEX IF NOT EXISTS idx_orders_agent_status ON orders (agent_id, status);
`
