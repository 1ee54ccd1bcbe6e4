package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/springbucks/internal/audit"
	"github.com/joao-fontenele/springbucks/internal/config"
	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/telemetry"
)

const groupID = "audit"

func main() {
	cfg, err := config.Load("audit")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if !cfg.KafkaEnabled() {
		logger.Error("SPRINGBUCKS_KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	handler := audit.NewHandler(logger)
	coffees := messaging.NewConsumer(cfg.KafkaBrokers, domain.TopicCoffeeSaved, groupID)
	defer func() { _ = coffees.Close() }()
	orders := messaging.NewConsumer(cfg.KafkaBrokers, domain.TopicOrderSaved, groupID)
	defer func() { _ = orders.Close() }()

	logger.Info("starting audit worker", "brokers", cfg.KafkaBrokers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consume(gctx, logger, coffees, handler.HandleCoffeeSaved) })
	g.Go(func() error { return consume(gctx, logger, orders, handler.HandleOrderSaved) })

	if err := g.Wait(); err != nil {
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
	logger.Info("consumers stopped")
}

func consume(ctx context.Context, logger *slog.Logger, c *messaging.Consumer, h messaging.Handler) error {
	if err := c.Consume(ctx, h); err != nil {
		return fmt.Errorf("consume %s: %w", c.Topic(), err)
	}
	logger.Info("consumer stopped", "topic", c.Topic())
	return nil
}
