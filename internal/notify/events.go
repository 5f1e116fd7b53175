package notify

import (
	"encoding/json"
	"time"
)

const (
	TopicOrderConfirmed = "order.confirmed"
	TopicOrderCancelled = "order.cancelled"
	TopicOrderShipped   = "order.shipped"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderCancelled = "OrderCancelled"
	EventOrderShipped   = "OrderShipped"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderConfirmedPayload struct {
	OrderID    string `json:"order_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

type OrderCancelledPayload struct {
	OrderID  string `json:"order_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Reason   string `json:"reason,omitempty"`
	RefundID string `json:"refund_id,omitempty"`
}

type OrderShippedPayload struct {
	OrderID        string `json:"order_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// PartitionKey keeps every event of one order on one partition, preserving
// per-order ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
