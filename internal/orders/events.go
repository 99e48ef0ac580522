package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderExpiring = "OrderExpiring"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderExpiringPayload struct {
	AlertID   string    `json:"alert_id"`
	OrderID   string    `json:"order_id"`
	ShopName  string    `json:"shop_name"`
	DealTitle string    `json:"deal_title"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiryAlertRecord is one row of the expiry_alerts audit table.
type ExpiryAlertRecord struct {
	EventID    string
	AlertID    string
	OrderID    string
	Title      string
	Body       string
	ExpiresAt  time.Time
	OccurredAt time.Time
}
