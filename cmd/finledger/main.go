package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finledger/internal/amqp"
	"finledger/internal/backend"
	"finledger/internal/config"
	"finledger/internal/core"
	apphttp "finledger/internal/http"
	"finledger/internal/ledger"
	applog "finledger/internal/log"
)

func main() {
	// Load .env for local development; absent in production.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	if cfg.TablesPath != "" {
		if err := core.LoadTableOverrides(cfg.TablesPath); err != nil {
			logger.Error("Failed to load table overrides", applog.FieldError, err, "path", cfg.TablesPath)
			os.Exit(1)
		}
		logger.Info("Loaded currency and category overrides", "path", cfg.TablesPath)
	}

	result, err := backend.New(backend.Config{
		Type:    backend.Type(cfg.DataBackend),
		DBPath:  cfg.DBPath,
		DataDir: cfg.DataDir,
	}, logger.WithComponent(applog.ComponentBackend))
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer result.Gateway.Close()

	store := ledger.New(result.Gateway,
		ledger.WithLogger(logger.WithComponent(applog.ComponentLedger)))
	if err := store.Load(context.Background()); err != nil {
		logger.Error("Failed to load ledger", applog.FieldError, err)
		os.Exit(1)
	}

	// AMQP is optional; without it the change feed stays local.
	var publisher apphttp.ChangePublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP))
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without change publishing", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		Store:          store,
		Publisher:      publisher,
		Logger:         logger.WithComponent(applog.ComponentHTTP),
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	logger.Info("Starting finledger server",
		"port", cfg.Port, "backend", cfg.DataBackend, "amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
