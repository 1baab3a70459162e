// Package app assembles the pipeline and its infrastructure from configuration. The
// CLI, the HTTP server and the queue worker all build on it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/extractor"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/numbering"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/refinery"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/keystore"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/llm"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/storage"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/metrics"
)

// App holds every long-lived component. Keystore and Archive are nil when disabled.
type App struct {
	Config    *config.Config
	DB        *database.Database
	Store     *repositories.Store
	Keystore  *keystore.RedisKeystore
	Archive   *storage.S3Archive
	Uploads   *storage.LocalStorage
	Metrics   *metrics.PipelineMetrics
	Processor *pipeline.Processor
	Logger    *slog.Logger
}

// Options tweak Build for a particular binary
type Options struct {
	// SkipRedis forces the in-process number reserver even when Redis is enabled
	SkipRedis bool
	// Registerer receives pipeline metrics; nil leaves them unregistered
	Registerer prometheus.Registerer
}

// OpenStore connects and migrates the database without the rest of the pipeline, for
// read-only commands
func OpenStore(cfg *config.Config, logger *slog.Logger) (*database.Database, *repositories.Store, error) {
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, repositories.NewStore(db.DB, logger), nil
}

// Build connects to the database, migrates it and wires the pipeline
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, store, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.Store = store

	var reserver numbering.Reserver = numbering.NewMemoryReserver()
	if cfg.Redis.Enabled && !opts.SkipRedis {
		ks, err := keystore.NewRedisKeystore(&cfg.Redis, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Keystore = ks
		reserver = ks
	}

	uploads, err := storage.NewLocalStorage(&storage.LocalStorageConfig{
		BasePath: cfg.Storage.TempDir,
		MaxSize:  cfg.Storage.MaxFileSizeMB << 20,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Uploads = uploads

	gemini, err := llm.NewGeminiClient(&cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	analyzerCfg := analyzer.DefaultConfig()
	analyzerCfg.Params = analyzer.GenerationParams{
		Temperature:     cfg.LLM.Temperature,
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
		TopP:            cfg.LLM.TopP,
	}
	analysis, err := analyzer.NewService(analyzerCfg, gemini, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	ext := extractor.New(extractorConfig(cfg), logger)

	a.Metrics = metrics.NewPipelineMetrics(opts.Registerer)
	pipelineOpts := []pipeline.Option{
		pipeline.WithRecorder(a.Metrics),
		pipeline.WithMinTextLength(extractorConfig(cfg).MinTextLength),
	}

	cleaner, err := textCleaner(cfg.OCR.TextCleaner, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cleaner != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithCleaner(cleaner))
	}

	if cfg.Storage.S3Enabled {
		client, err := storage.NewS3Client(ctx, &cfg.Storage)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Archive = storage.NewS3Archive(client, &cfg.Storage, logger)
		pipelineOpts = append(pipelineOpts, pipeline.WithArchiver(a.Archive))
	}

	a.Processor = pipeline.NewProcessor(
		a.Store,
		ext,
		analysis,
		numbering.NewGenerator(reserver, logger),
		logger,
		pipelineOpts...,
	)

	return a, nil
}

// textCleaner resolves a refinery version or alias; "" and "none" mean no cleaning
func textCleaner(name string, logger *slog.Logger) (*refinery.Pipeline, error) {
	if name == "" || name == "none" {
		logger.Info("text cleaning disabled")
		return nil, nil
	}
	cleaner, err := refinery.NewPipeline(name, nil)
	if err != nil {
		return nil, fmt.Errorf("text cleaner: %w", err)
	}
	logger.Info("text cleaner enabled",
		slog.String("name", cleaner.GetName()),
		slog.String("version", cleaner.GetVersion()),
		slog.Any("steps", cleaner.GetPipelineSteps()))
	return cleaner, nil
}

func extractorConfig(cfg *config.Config) extractor.Config {
	ec := extractor.DefaultConfig()
	if cfg.OCR.MinTextLength > 0 {
		ec.MinTextLength = cfg.OCR.MinTextLength
	}
	if cfg.OCR.Pdftoppm != "" {
		ec.OCR.Pdftoppm = cfg.OCR.Pdftoppm
	}
	if cfg.OCR.Tesseract != "" {
		ec.OCR.Tesseract = cfg.OCR.Tesseract
	}
	if cfg.OCR.Language != "" {
		ec.OCR.Language = cfg.OCR.Language
	}
	if cfg.OCR.DPI > 0 {
		ec.OCR.DPI = cfg.OCR.DPI
	}
	ec.OCR.MaxPages = cfg.OCR.MaxPages
	return ec
}

// Close releases connections in reverse order of creation
func (a *App) Close() {
	if a.Keystore != nil {
		if err := a.Keystore.Close(); err != nil {
			a.Logger.Warn("failed to close redis", slog.Any("error", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("failed to close database", slog.Any("error", err))
		}
	}
}
