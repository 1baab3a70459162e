package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/app"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/queue"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/transport/httpapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.Initialize(cfg.Environment)
	cfg.LogConfig(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, app.Options{Registerer: prometheus.DefaultRegisterer}, log)
	if err != nil {
		log.Error("failed to initialize", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	deps := httpapi.Deps{
		Processor:  a.Processor,
		Uploads:    a.Uploads,
		Complaints: a.Store.Complaints,
		Logs:       a.Store.Logs,
		Health: map[string]httpapi.HealthFunc{
			"database": a.DB.Health,
		},
	}
	if a.Keystore != nil {
		deps.Health["redis"] = a.Keystore.Health
	}

	// The queue shares Redis with the keystore; without Redis the async route is off
	if cfg.Redis.Enabled {
		client, err := queue.NewAsynqClient(&cfg.Queue, log)
		if err != nil {
			log.Error("failed to create queue client", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()
		deps.Enqueuer = client
	}

	router := httpapi.NewRouter(httpapi.NewHandler(deps, log), httpapi.RouterConfig{
		APIKey:         cfg.APIKey,
		MaxUploadBytes: cfg.Storage.MaxFileSizeMB << 20,
		Release:        cfg.IsProduction(),
	}, log)

	scheduler := cron.New()
	retention := time.Duration(cfg.Storage.RetentionHours) * time.Hour
	_, err = scheduler.AddFunc(cfg.Storage.CleanupSchedule, func() {
		removed, err := a.Uploads.CleanupOldFiles(context.Background(), retention)
		if err != nil {
			log.Error("upload cleanup failed", slog.Any("error", err))
			return
		}
		if removed > 0 {
			log.Info("stale uploads removed", slog.Int("count", removed))
		}
	})
	if err != nil {
		log.Error("invalid cleanup schedule",
			slog.String("schedule", cfg.Storage.CleanupSchedule),
			slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		// A synchronous analysis waits on OCR and the model
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
}
