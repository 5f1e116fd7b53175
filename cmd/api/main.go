package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wovenworks/storefront/internal/catalog"
	"github.com/wovenworks/storefront/internal/checkout"
	"github.com/wovenworks/storefront/internal/config"
	"github.com/wovenworks/storefront/internal/httpx"
	"github.com/wovenworks/storefront/internal/inventory"
	kafkax "github.com/wovenworks/storefront/internal/kafka"
	"github.com/wovenworks/storefront/internal/lifecycle"
	"github.com/wovenworks/storefront/internal/notify"
	"github.com/wovenworks/storefront/internal/orders"
	"github.com/wovenworks/storefront/internal/payment"
	"github.com/wovenworks/storefront/internal/postgres"
	"github.com/wovenworks/storefront/internal/redisx"
	"github.com/wovenworks/storefront/internal/shipping"
	"github.com/wovenworks/storefront/internal/tax"
	"github.com/wovenworks/storefront/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	telemetry.InitLogger(cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("postgres connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	confirmed := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicOrderConfirmed, 256)
	cancelled := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicOrderCancelled, 256)
	shipped := kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicOrderShipped, 256)
	confirmed.Start(ctx)
	cancelled.Start(ctx)
	shipped.Start(ctx)

	var gateway payment.Gateway
	switch cfg.PaymentProvider {
	case "flutterwave":
		gateway = payment.NewFlutterwave(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey)
	default:
		gateway = payment.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	}

	notifier := &notify.KafkaNotifier{
		Confirmed: confirmed, Cancelled: cancelled, Shipped: shipped,
		Service: cfg.ServiceName,
	}

	ledger := &inventory.PGLedger{DB: pool}
	store := &orders.PGStore{DB: pool}
	cat := &catalog.PGCatalog{DB: pool}
	quotes := shipping.NewRateProvider()
	taxes := tax.NewCalculator()

	orchestrator := &checkout.Orchestrator{
		Catalog: cat, Ledger: ledger, Shipping: quotes, Tax: taxes,
		Gateway: gateway, Store: store, Notifier: notifier,
	}
	manager := &lifecycle.Manager{Store: store, Ledger: ledger, Gateway: gateway, Notifier: notifier}
	workflow := &lifecycle.Workflow{
		Store: store, Checklist: &lifecycle.RedisChecklist{R: rdb}, Notifier: notifier,
	}

	r := httpx.NewRouter()
	(&httpx.CheckoutHandler{Orchestrator: orchestrator, Store: store, R: rdb}).Register(r)
	(&httpx.QuoteHandler{Shipping: quotes, Tax: taxes, Catalog: cat}).Register(r)
	(&httpx.AdminHandler{Store: store, Lifecycle: manager, Fulfillment: workflow, Ledger: ledger, Catalog: cat, R: rdb}).Register(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("api listening", "addr", cfg.HTTPAddr, "payment_provider", cfg.PaymentProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "err", err)
	}

	// Close the producers before cancelling ctx so queued notifications flush.
	confirmed.Close()
	cancelled.Close()
	shipped.Close()
	confirmed.WaitClosed()
	cancelled.WaitClosed()
	shipped.WaitClosed()
	slog.Info("bye")
}
