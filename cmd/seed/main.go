package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joao-fontenele/springbucks/internal/config"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/seed"
	"github.com/joao-fontenele/springbucks/internal/storage"
	"github.com/joao-fontenele/springbucks/internal/telemetry"
)

func main() {
	cfg, err := config.Load("seed")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdown, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	if cfg.AutoMigrate {
		applied, err := storage.Migrate(cfg.PostgresURL)
		if err != nil {
			return err
		}
		logger.Info("schema ready", "migrated", applied)
	}

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var publisher messaging.Publisher
	if cfg.KafkaEnabled() {
		producer := messaging.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	codec := money.NewCodec(cfg.CurrencyUnit())
	seeder := seed.NewSeeder(
		storage.NewCoffeeRepository(db, codec),
		storage.NewOrderRepository(db, codec),
		publisher,
		cfg.CurrencyUnit(),
		logger,
	)

	if _, err := seeder.Run(ctx); err != nil {
		return err
	}
	return seeder.Report(ctx)
}
