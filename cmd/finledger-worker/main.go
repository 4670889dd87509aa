package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/backend"
	"finledger/internal/config"
	applog "finledger/internal/log"
	"finledger/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting finledger-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
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

	if result.Snapshots == nil {
		logger.Error("Backend does not support snapshots, worker requires sqlite", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	backupWorker := worker.NewBackupWorker(result.Gateway, result.Snapshots,
		logger.WithComponent(applog.ComponentWorker))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Take one snapshot at startup to cover anything missed while down.
	backupWorker.ScheduledSnapshot(ctx)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP))
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
				return backupWorker.HandleChange(ctx, msg)
			})
			if err == context.Canceled {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled, relying on scheduled snapshots only")
	}

	if cfg.BackupCron != "" {
		schedule := cron.New()
		_, err := schedule.AddFunc(cfg.BackupCron, func() {
			backupWorker.ScheduledSnapshot(ctx)
		})
		if err != nil {
			logger.Error("Invalid backup cron expression", applog.FieldError, err, "cron", cfg.BackupCron)
			os.Exit(1)
		}
		schedule.Start()
		logger.Info("Snapshot schedule started", "cron", cfg.BackupCron)

		g.Go(func() error {
			<-ctx.Done()
			stopCtx := schedule.Stop()
			<-stopCtx.Done()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
