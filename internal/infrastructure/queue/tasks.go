package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
)

// TaskTypeAnalyzeComplaint runs one uploaded PDF through the pipeline
const TaskTypeAnalyzeComplaint = "complaint:analyze"

// analyzeTimeout bounds a single pipeline run inside the worker
const analyzeTimeout = 10 * time.Minute

// AnalyzePayload points the worker at an upload already on shared disk
type AnalyzePayload struct {
	FilePath     string `json:"file_path"`
	OriginalName string `json:"original_name"`
	UploadedBy   string `json:"uploaded_by"`
}

// ComplaintProcessor is satisfied by *pipeline.Processor
type ComplaintProcessor interface {
	Process(ctx context.Context, req pipeline.Request) *pipeline.Result
}

func NewAnalyzeTask(p AnalyzePayload) (*asynq.Task, error) {
	if p.FilePath == "" {
		return nil, errors.New("analyze task: file path required")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("analyze task: %w", err)
	}
	return asynq.NewTask(TaskTypeAnalyzeComplaint, payload), nil
}

// EnqueueAnalysis schedules a pipeline run. Tasks are never retried: a run already
// persists its own failure, and a retry would create a second complaint for the
// same file.
func (a *AsynqClient) EnqueueAnalysis(ctx context.Context, p AnalyzePayload) (*asynq.TaskInfo, error) {
	task, err := NewAnalyzeTask(p)
	if err != nil {
		return nil, err
	}
	return a.enqueue(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Timeout(analyzeTimeout),
	)
}

// NewAnalyzeHandler returns the asynq handler for TaskTypeAnalyzeComplaint
func NewAnalyzeHandler(processor ComplaintProcessor, logger *slog.Logger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var p AnalyzePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}

		taskID, _ := asynq.GetTaskID(ctx)
		log := logger.With(
			slog.String("task_id", taskID),
			slog.String("file", p.OriginalName),
		)

		result := processor.Process(ctx, pipeline.Request{
			FilePath:     p.FilePath,
			OriginalName: p.OriginalName,
			UploadedBy:   p.UploadedBy,
			Temporary:    true,
		})

		if !result.Success {
			log.Warn("queued analysis failed",
				slog.String("stage", result.Stage),
				slog.String("error", result.Error))
			return fmt.Errorf("%s: %w", result.Error, asynq.SkipRetry)
		}

		log.Info("queued analysis completed",
			slog.String("complaint_number", result.ComplaintNumber),
			slog.Float64("duration_seconds", result.DurationSeconds))
		return nil
	}
}

// LoggingMiddleware records how long each task took
func LoggingMiddleware(logger *slog.Logger) func(asynq.Handler) asynq.Handler {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			start := time.Now()
			err := next.ProcessTask(ctx, task)
			logger.Info("task processed",
				slog.String("task_type", task.Type()),
				slog.Duration("elapsed", time.Since(start)),
				slog.Bool("ok", err == nil))
			return err
		})
	}
}
