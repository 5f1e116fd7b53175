// Package notify dispatches customer notifications. Delivery is best-effort
// everywhere: a failed notification is logged and reported, never rolled back
// against.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/wovenworks/storefront/internal/kafka"
	"github.com/wovenworks/storefront/internal/orders"
)

type Notifier interface {
	OrderConfirmed(ctx context.Context, o *orders.Order) error
	OrderCancelled(ctx context.Context, o *orders.Order, reason, refundID string) error
	OrderShipped(ctx context.Context, o *orders.Order) error
}

// KafkaNotifier publishes envelope events; the notifier binary consumes them
// and sends the actual email.
type KafkaNotifier struct {
	Confirmed *kafkax.Producer
	Cancelled *kafkax.Producer
	Shipped   *kafkax.Producer
	Service   string
}

var _ Notifier = (*KafkaNotifier)(nil)

func (n *KafkaNotifier) OrderConfirmed(_ context.Context, o *orders.Order) error {
	n.publish(n.Confirmed, EventOrderConfirmed, o.ID, OrderConfirmedPayload{
		OrderID: o.ID, Email: o.Customer.Email, Name: o.Customer.Name,
		TotalCents: o.TotalCents, Currency: o.Currency,
	})
	return nil
}

func (n *KafkaNotifier) OrderCancelled(_ context.Context, o *orders.Order, reason, refundID string) error {
	n.publish(n.Cancelled, EventOrderCancelled, o.ID, OrderCancelledPayload{
		OrderID: o.ID, Email: o.Customer.Email, Name: o.Customer.Name,
		Reason: reason, RefundID: refundID,
	})
	return nil
}

func (n *KafkaNotifier) OrderShipped(_ context.Context, o *orders.Order) error {
	n.publish(n.Shipped, EventOrderShipped, o.ID, OrderShippedPayload{
		OrderID: o.ID, Email: o.Customer.Email, Name: o.Customer.Name,
		Carrier: o.ShippingCarrier, TrackingNumber: o.TrackingNumber,
	})
	return nil
}

func (n *KafkaNotifier) publish(p *kafkax.Producer, eventType, orderID string, payload any) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      n.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
