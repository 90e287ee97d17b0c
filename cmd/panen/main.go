package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"panen/internal/amqp"
	"panen/internal/backend"
	"panen/internal/config"
	"panen/internal/core"
	apphttp "panen/internal/http"
	applog "panen/internal/log"
	"panen/internal/lookup"
	"panen/internal/tally"
	"panen/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Failed to load timezone", "error", err, "timezone", cfg.Timezone)
		os.Exit(1)
	}

	directory := lookup.NewDirectory()
	labeler := lookup.NewCached(directory, cfg.LabelCacheSize, cfg.LabelCacheTTL)

	opts := tally.Options{
		Parser:    core.NewQuantityParser(cfg.UnitKeyword),
		Location:  loc,
		Labeler:   labeler,
		GroupMode: cfg.GroupMode,
	}
	if cfg.GroupMode {
		opts.Groups = tally.NewRegistry(cfg.Groups...)
	}
	svc := tally.New(opts)

	factory := backend.NewFactory(logger.Logger)
	writer, err := factory.CreateWriter(context.Background(), backend.FromAppConfig(cfg))
	if err != nil {
		logger.Error("Failed to initialize export writer", "error", err, "backend", cfg.ExportBackend)
		os.Exit(1)
	}
	logger.Info("Initialized export backend", "backend", cfg.ExportBackend)

	srv := apphttp.NewServer(":"+cfg.Port, svc, writer, directory)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting panen server",
			"port", cfg.Port,
			"timezone", cfg.Timezone,
			"group_mode", cfg.GroupMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if cfg.AMQPURL != "" {
		bridge := worker.NewBridge(svc, writer, directory)
		g.Go(func() error {
			logger.Info("Starting AMQP chat bridge", "queue", cfg.AMQPInboundQueue)
			var client *amqp.Client
			handler := func(msg *amqp.InboundMessage) error {
				return bridge.Handler(ctx, client)(msg)
			}
			return amqp.ConsumeInboundWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange,
				cfg.AMQPInboundQueue, cfg.AMQPReplyQueue, handler,
				func(c *amqp.Client) { client = c })
		})
	} else {
		logger.Info("AMQP bridge disabled - no AMQP_URL provided")
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutdown signal received")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
