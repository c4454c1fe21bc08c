package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/vrstore/storefront/internal/catalog"
	"github.com/vrstore/storefront/internal/config"
	"github.com/vrstore/storefront/internal/delivery"
	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
	"github.com/vrstore/storefront/internal/game"
	"github.com/vrstore/storefront/internal/messaging"
	"github.com/vrstore/storefront/internal/shop"
	"github.com/vrstore/storefront/internal/storage"
	"github.com/vrstore/storefront/internal/storefront"
	"github.com/vrstore/storefront/internal/telemetry"
	"github.com/vrstore/storefront/internal/validate"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.Load()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := otelruntime.Start(); err != nil {
		logger.Warn("failed to start runtime metrics", "error", err)
	}

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	bus := events.NewBus(logger)
	cat := catalog.New()

	deliveryCfg := delivery.DefaultConfig()
	deliveryCfg.FreeShippingThreshold = cfg.FreeShippingThreshold
	deliveryCfg.BaseCost = cfg.BaseShippingCost
	deliveryCfg.WeightThresholdKg = cfg.WeightThresholdKg
	deliveryCfg.CostPerKg = cfg.CostPerKg
	simulator := delivery.NewSimulator(deliveryCfg, cat, logger)

	s := shop.New(store, bus, cat, simulator, validate.DefaultRules(), logger, shop.Config{
		Currency:    cfg.Currency,
		OrderPrefix: cfg.OrderPrefix,
		MaxQuantity: cfg.MaxQuantity,
		ExpiryDays:  cfg.CartExpiryDays,
	})
	s.Load(ctx)
	defer s.Close()

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, "storefront.order.placed")
		defer func() { _ = producer.Close() }()

		relay := messaging.NewRelay(producer, logger)
		relay.Attach(bus)
		defer relay.Detach()
	}

	machine := game.NewMachine(bus, logger)
	loop := game.NewLoop(machine, bus, logger, time.Second/60)

	bus.Subscribe(domain.EventFPSUpdate, func(data any) {
		logger.Debug("frame rate", "fps", data)
	})

	machine.Transition(game.StateReady)
	machine.Transition(game.StatePlaying)
	loop.Start(ctx)
	defer loop.Stop()

	mux := http.NewServeMux()
	storefront.NewHandler(s, logger).Register(mux)
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"state":  string(machine.Current()),
		})
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront",
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
		logger.Info("starting storefront", "port", cfg.Port)
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

// openStore picks the persistence backend: Postgres when configured,
// otherwise files under the data directory.
func openStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if cfg.PostgresURL != "" {
		db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("using postgres storage")
		return storage.NewPostgresStore(db), func() { _ = db.Close() }, nil
	}

	fileStore, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using file storage", "dir", cfg.DataDir)
	return fileStore, func() {}, nil
}
