package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/config"
)

// QueueDefault carries every analysis task
const QueueDefault = "complaints"

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:         fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  time.Duration(cfg.DialTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
	}
}

// AsynqClient is the producer side used by the HTTP server
type AsynqClient struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewAsynqClient(cfg *config.QueueConfig, logger *slog.Logger) (*AsynqClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := asynq.NewClient(redisOpt(cfg))

	logger.Info("queue client ready",
		slog.String("redis_host", cfg.RedisHost),
		slog.Int("redis_db", cfg.RedisDB))

	return &AsynqClient{client: client, logger: logger}, nil
}

func (a *AsynqClient) Close() error {
	return a.client.Close()
}

func (a *AsynqClient) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := a.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		a.logger.Error("enqueue failed",
			slog.String("task_type", task.Type()),
			slog.Any("error", err))
		return nil, err
	}
	a.logger.Debug("task enqueued",
		slog.String("task_id", info.ID),
		slog.String("task_type", task.Type()))
	return info, nil
}

// Worker consumes analysis tasks and runs them through the pipeline
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker builds a worker with the analyze handler and task logging installed
func NewWorker(cfg *config.QueueConfig, processor ComplaintProcessor, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}

	server := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		// A failed analysis is already recorded on the complaint; this only logs it
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("analysis task failed",
				slog.String("task_type", task.Type()),
				slog.Any("error", err))
		}),
		HealthCheckFunc: func(err error) {
			if err != nil {
				logger.Error("queue health check failed", slog.Any("error", err))
			}
		},
		HealthCheckInterval: 30 * time.Second,
		ShutdownTimeout:     time.Duration(cfg.ShutdownTimeout) * time.Second,
	})

	mux := asynq.NewServeMux()
	mux.Use(LoggingMiddleware(logger))
	mux.HandleFunc(TaskTypeAnalyzeComplaint, NewAnalyzeHandler(processor, logger))

	logger.Info("queue worker configured",
		slog.String("queue", QueueDefault),
		slog.Int("concurrency", cfg.Concurrency))

	return &Worker{server: server, mux: mux, logger: logger}
}

// Run blocks until SIGTERM or SIGINT, then drains in-flight tasks
func (w *Worker) Run() error {
	if err := w.server.Run(w.mux); err != nil {
		return fmt.Errorf("queue worker: %w", err)
	}
	return nil
}
