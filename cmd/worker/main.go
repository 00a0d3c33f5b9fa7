package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/fotoo-app/fotoo/pkg/fotoo/config"
	"github.com/fotoo-app/fotoo/pkg/fotoo/queue"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fatal(logger, "load config", err)
	}
	if cfg.QueueConf.Type != "nats" {
		fatal(logger, "unsupported queue type for standalone worker", nil,
			"queue_type", cfg.QueueConf.Type)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := cfg.BuildRepository(ctx)
	if err != nil {
		fatal(logger, "build repository", err)
	}
	store, err := cfg.BuildBlobStore()
	if err != nil {
		fatal(logger, "build blob store", err)
	}
	processor, err := cfg.BuildProcessor(repo, store, logger)
	if err != nil {
		fatal(logger, "build processor", err)
	}

	nq, err := queue.NewNATS(queue.NATSConfig{
		URL:     cfg.QueueConf.NatsURL,
		Subject: cfg.QueueConf.Subject,
		Group:   cfg.QueueConf.Group,
		Policy:  cfg.RetryPolicy(),
		Logger:  logger,
	})
	if err != nil {
		fatal(logger, "connect queue", err)
	}
	defer nq.Close()

	sub, err := nq.Subscribe(processor.ProcessAsset)
	if err != nil {
		fatal(logger, "subscribe worker", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	logger.Info("worker listening",
		"nats_url", cfg.QueueConf.NatsURL,
		"subject", cfg.QueueConf.Subject,
		"group", cfg.QueueConf.Group,
		"transcoder", cfg.Transcode.Strategy)

	<-ctx.Done()
	logger.Info("worker exiting")
}

func fatal(logger *slog.Logger, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "err", err)
	}
	logger.Error(msg, args...)
	os.Exit(1)
}
