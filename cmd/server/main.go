package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/fotoo-app/fotoo/pkg/fotoo"
	"github.com/fotoo-app/fotoo/pkg/fotoo/api"
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

	var enqueuer fotoo.Enqueuer
	var memoryQueue *queue.Memory
	switch cfg.QueueConf.Type {
	case "memory":
		// With the in-process queue the server is also the worker.
		memoryQueue = queue.NewMemory(queue.MemoryConfig{
			Workers: cfg.QueueConf.Workers,
			Policy:  cfg.RetryPolicy(),
			Logger:  logger,
		})
		enqueuer = memoryQueue
	case "nats":
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
		enqueuer = nq
	}

	svc, err := cfg.BuildService(repo, store, enqueuer, logger)
	if err != nil {
		fatal(logger, "build service", err)
	}

	if memoryQueue != nil {
		processor, err := cfg.BuildProcessor(repo, store, logger)
		if err != nil {
			fatal(logger, "build processor", err)
		}
		go func() {
			if err := memoryQueue.Run(ctx, processor.ProcessAsset); err != nil && ctx.Err() == nil {
				logger.Error("queue worker stopped", "err", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: routes(cfg, svc),
	}

	go func() {
		logger.Info("server starting",
			"port", cfg.Port, "env", cfg.Environment,
			"storage", cfg.Storage.Type, "database", cfg.Database.Type,
			"queue", cfg.QueueConf.Type)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(logger, "server error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fatal(logger, "server forced to shutdown", err)
	}
	logger.Info("server exiting")
}

func routes(cfg *config.Config, svc fotoo.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status": "healthy", "environment": "%s"}`, cfg.Environment)
	})

	tokenAuth := api.NewTokenAuth(cfg.JWTSecret)
	handler := api.NewAssetsHandler(svc, tokenAuth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/assets", handler.Routes())
	})
	return r
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}
