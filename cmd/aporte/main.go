package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aporte/internal/amqp"
	"aporte/internal/cache"
	"aporte/internal/catalog"
	gsheet "aporte/internal/catalog/google"
	mem "aporte/internal/catalog/memory"
	"aporte/internal/config"
	"aporte/internal/finance"
	apphttp "aporte/internal/http"
	"aporte/internal/ledger"
	applog "aporte/internal/log"
	"aporte/internal/refdata"
)

// aggregator is the finance service plus the reference caches, so the
// administrative clear drops both layers at once.
type aggregator struct {
	*finance.Service
	ref *refdata.Service
}

func (a aggregator) ClearCache() {
	a.Service.ClearCache()
	a.ref.Clear()
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(cfg.LogLevel)
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	// Catalog backend (default: memory, seeded from ./data if present)
	var (
		props catalog.PropertyReader
		inv   catalog.InvestorReader
	)
	switch cfg.CatalogBackend {
	case "sheets":
		cli, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets catalog", applog.FieldError, err, "backend", cfg.CatalogBackend)
			os.Exit(1)
		}
		props, inv = cli, cli
		logger.Info("Initialized Google Sheets catalog", "backend", cfg.CatalogBackend)
	default:
		store := mem.NewFromFiles("data")
		props, inv = store, store
		logger.Info("Initialized memory catalog", "backend", cfg.CatalogBackend)
	}

	// Upstream ledger client. Missing credentials leave it disabled and
	// every aggregate collapses to zero.
	gateway := ledger.NewClient(ledger.Config{
		BaseURL:     cfg.LedgerBaseURL,
		AppKey:      cfg.LedgerAppKey,
		AppSecret:   cfg.LedgerAppSecret,
		Timeout:     cfg.LedgerCallTimeout,
		MaxRetries:  cfg.LedgerMaxRetries,
		BackoffBase: cfg.LedgerBackoff,
	}, logger)

	ref := refdata.NewService(gateway, logger,
		refdata.WithTTL(cfg.CacheTTL),
		refdata.WithMaxPages(cfg.MaxDrainPages),
	)

	finOpts := []finance.ServiceOption{finance.WithResultTTL(cfg.CacheTTL)}

	// Optional AMQP surface: degraded-aggregation events out, cache-clear
	// commands in.
	var broker *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPCommandsQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP broker", applog.FieldError, err)
			os.Exit(1)
		}
		defer broker.Close()
		finOpts = append(finOpts, finance.WithPublisher(broker))
		logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange)
	}

	fin := finance.NewService(ref, logger, finOpts...)
	agg := aggregator{Service: fin, ref: ref}

	// Periodic eviction of expired cache entries
	manager := cache.NewManager()
	ref.Register(manager)
	fin.Register(manager)
	manager.StartCleanup(10 * time.Minute)
	defer manager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, props, inv, agg, logger, apphttp.Options{
		AdminToken: cfg.AdminToken,
	})
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if broker != nil {
		go func() {
			err := broker.ConsumeCacheClear(ctx, func(cmd *amqp.CacheClearCommand) error {
				logger.Info("Cache clear command received", "requested_by", cmd.RequestedBy)
				agg.ClearCache()
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("Cache clear consumer stopped", applog.FieldError, err)
			}
		}()
	}

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting aporte server",
		"port", cfg.Port,
		"backend", cfg.CatalogBackend,
		"ledger_enabled", cfg.LedgerEnabled())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
