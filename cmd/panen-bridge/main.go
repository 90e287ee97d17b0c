package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"panen/internal/amqp"
	"panen/internal/backend"
	"panen/internal/config"
	"panen/internal/core"
	applog "panen/internal/log"
	"panen/internal/lookup"
	"panen/internal/tally"
	"panen/internal/worker"
)

// panen-bridge runs the chat bridge alone: it consumes inbound chat
// messages from the broker and publishes replies, without the HTTP
// surface. Useful when the transport is purely a chat platform relay.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentBridge})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the bridge")
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

	bridge := worker.NewBridge(svc, writer, directory)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting panen-bridge",
		"queue", cfg.AMQPInboundQueue,
		"timezone", cfg.Timezone,
		"group_mode", cfg.GroupMode)

	var client *amqp.Client
	handler := func(msg *amqp.InboundMessage) error {
		return bridge.Handler(ctx, client)(msg)
	}
	err = amqp.ConsumeInboundWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange,
		cfg.AMQPInboundQueue, cfg.AMQPReplyQueue, handler,
		func(c *amqp.Client) { client = c })
	if err != nil && err != context.Canceled {
		logger.Error("Bridge stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Bridge stopped gracefully")
}
