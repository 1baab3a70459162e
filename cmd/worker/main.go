package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/app"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/queue"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
)

// metricsAddr exposes worker-side pipeline metrics
const metricsAddr = ":9091"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Environment)
	log := logger.NewServiceLogger("worker")
	cfg.LogConfig(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	a, err := app.Build(context.Background(), cfg, app.Options{Registerer: prometheus.DefaultRegisterer}, log)
	if err != nil {
		log.Error("failed to initialize", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	worker := queue.NewWorker(&cfg.Queue, a.Processor, log)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		if err := srv.ListenAndServe(); err != nil {
			log.Warn("metrics listener stopped", slog.Any("error", err))
		}
	}()

	if err := worker.Run(); err != nil {
		log.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
