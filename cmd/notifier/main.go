package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/wovenworks/storefront/internal/config"
	kafkax "github.com/wovenworks/storefront/internal/kafka"
	"github.com/wovenworks/storefront/internal/notify"
	"github.com/wovenworks/storefront/internal/redisx"
	"github.com/wovenworks/storefront/internal/telemetry"
)

const service = "storefront-notifier"

const groupID = "notifier"

// notifier consumes the order events published by the api and sends the
// customer emails. Event ids are deduped in redis so a redelivered message
// never mails twice.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	telemetry.InitLogger(service)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	topics := []string{
		notify.TopicOrderConfirmed,
		notify.TopicOrderCancelled,
		notify.TopicOrderShipped,
	}
	errs := make(chan error, len(topics))
	for _, topic := range topics {
		c := kafkax.NewConsumer(cfg.KafkaBrokers, groupID, topic, 4)
		go func(topic string) {
			slog.Info("consuming", "topic", topic, "group", groupID)
			errs <- c.Start(ctx, handleEvent(rdb))
		}(topic)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		slog.Info("shutting down")
	case err := <-errs:
		if err != nil {
			slog.Error("consumer failed", "err", err)
		}
	}
	cancel()
}

func handleEvent(rdb *redis.Client) kafkax.Handler {
	return func(ctx context.Context, m kafkago.Message) error {
		var ev notify.Envelope
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			// malformed payloads are dropped, not retried forever
			slog.Error("malformed event", "topic", m.Topic, "err", err)
			return nil
		}

		key := fmt.Sprintf(redisx.KeyDedup, service, ev.EventID)
		fresh, err := rdb.SetNX(ctx, key, "1", redisx.TTLDedup).Result()
		if err != nil {
			return err
		}
		if !fresh {
			slog.Info("duplicate event skipped", "event_id", ev.EventID, "type", ev.EventType)
			return nil
		}

		return sendEmail(ev)
	}
}

// sendEmail renders and "sends" the customer email. The provider integration
// is stubbed to structured logs; swapping in a real sender only touches this
// function.
func sendEmail(ev notify.Envelope) error {
	switch ev.EventType {
	case notify.EventOrderConfirmed:
		p, err := kafkax.UnwrapPayload[notify.OrderConfirmedPayload](ev.Payload)
		if err != nil {
			return err
		}
		slog.Info("email sent", "template", "order_confirmed", "to", p.Email,
			"order_id", p.OrderID, "total_cents", p.TotalCents, "currency", p.Currency)
	case notify.EventOrderCancelled:
		p, err := kafkax.UnwrapPayload[notify.OrderCancelledPayload](ev.Payload)
		if err != nil {
			return err
		}
		slog.Info("email sent", "template", "order_cancelled", "to", p.Email,
			"order_id", p.OrderID, "refund_id", p.RefundID)
	case notify.EventOrderShipped:
		p, err := kafkax.UnwrapPayload[notify.OrderShippedPayload](ev.Payload)
		if err != nil {
			return err
		}
		slog.Info("email sent", "template", "order_shipped", "to", p.Email,
			"order_id", p.OrderID, "carrier", p.Carrier, "tracking", p.TrackingNumber)
	default:
		slog.Warn("unknown event type", "type", ev.EventType, "event_id", ev.EventID)
	}
	return nil
}
