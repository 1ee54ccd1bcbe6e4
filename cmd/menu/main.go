package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/springbucks/internal/config"
	"github.com/joao-fontenele/springbucks/internal/httpx"
	"github.com/joao-fontenele/springbucks/internal/menu"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/orders"
	"github.com/joao-fontenele/springbucks/internal/storage"
	"github.com/joao-fontenele/springbucks/internal/telemetry"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load("menu")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if cfg.AutoMigrate {
		applied, err := storage.Migrate(cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		logger.Info("schema ready", "migrated", applied)
	}

	db, err := telemetry.OpenDB(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var publisher messaging.Publisher
	if cfg.KafkaEnabled() {
		producer := messaging.NewProducer(cfg.KafkaBrokers)
		defer func() { _ = producer.Close() }()
		publisher = producer
	}

	codec := money.NewCodec(cfg.CurrencyUnit())
	coffeeRepo := storage.NewCoffeeRepository(db, codec)
	orderRepo := storage.NewOrderRepository(db, codec)

	menuHandler := menu.NewHandler(coffeeRepo, publisher, logger)
	orderHandler := orders.NewHandler(orderRepo, coffeeRepo, publisher, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /coffees", telemetry.WithHTTPRoute(menuHandler.HandleList))
	mux.HandleFunc("POST /coffees", telemetry.WithHTTPRoute(menuHandler.HandleCreate))
	mux.HandleFunc("GET /coffees/{id}", telemetry.WithHTTPRoute(menuHandler.HandleGet))
	mux.HandleFunc("DELETE /coffees/{id}", telemetry.WithHTTPRoute(menuHandler.HandleDelete))
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(orderHandler.HandleList))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/state", telemetry.WithHTTPRoute(orderHandler.HandleUpdateState))
	mux.HandleFunc("DELETE /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleDelete))
	mux.HandleFunc("DELETE /orders/{id}/items/{coffeeId}", telemetry.WithHTTPRoute(orderHandler.HandleRemoveItem))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.WriteError(w, logger, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httpx.WriteJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting menu service", "port", cfg.Port, "currency", cfg.Currency)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
