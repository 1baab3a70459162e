package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

// Service sends complaint text to the model and parses the structured result
type Service struct {
	cfg       Config
	generator Generator
	schema    *jsonschema.Schema
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates an analysis service around a generator
func NewService(cfg Config, generator Generator, logger *slog.Logger) (*Service, error) {
	if generator == nil {
		return nil, fmt.Errorf("analyzer: generator is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	schema, err := compileResponseSchema()
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	return &Service{
		cfg:       cfg,
		generator: generator,
		schema:    schema,
		logger:    logger.With(slog.String("component", "analyzer")),
		now:       time.Now,
	}, nil
}

// Analyze makes exactly one model call. The returned analysis carries _metadata and
// the raw object; any failure yields a nil analysis and an *apperrors.AppError.
func (s *Service) Analyze(ctx context.Context, text string) (*Analysis, error) {
	start := s.now()
	model := s.generator.Model()

	s.logger.Info("requesting analysis",
		slog.String("model", model),
		slog.Int("text_length", len(text)),
	)

	raw, err := s.generator.Generate(ctx, BuildPrompt(text), s.cfg.Params)
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.LLMRequestFailed(err)
	}

	cleaned := StripFences(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		s.logger.Warn("model returned invalid JSON",
			slog.Any("error", err),
			slog.String("response_head", head(cleaned, 200)),
		)
		return nil, apperrors.LLMInvalidResponse("response is not valid JSON", err)
	}
	if doc == nil {
		return nil, apperrors.LLMInvalidResponse("response is not a JSON object", nil)
	}

	if s.cfg.StrictSchema {
		if err := s.schema.Validate(doc); err != nil {
			s.logger.Warn("model response failed schema validation", slog.Any("error", err))
			return nil, apperrors.LLMInvalidResponse("response violates analysis schema", err)
		}
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, apperrors.LLMInvalidResponse("response has unexpected field types", err)
	}

	end := s.now()
	meta := Metadata{
		AnalysisDurationSeconds: int(end.Sub(start).Seconds()),
		AnalyzedAt:              end.Format(time.RFC3339Nano),
		Model:                   model,
	}
	analysis.Metadata = &meta

	doc["_metadata"] = meta
	full, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.LLMInvalidResponse("re-encode response", err)
	}
	analysis.Raw = full

	s.logger.Info("analysis complete",
		slog.Int("pasal_utama", len(analysis.PasalUtama)),
		slog.Int("pasal_alternatif", len(analysis.PasalAlternatif)),
		slog.Int("duration_seconds", meta.AnalysisDurationSeconds),
	)

	return &analysis, nil
}

// StripFences removes a markdown code fence around the response. When the text opens
// with ``` the first and last lines are dropped, then a leading "json" tag is removed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) <= 2 {
		return ""
	}
	text = strings.Join(lines[1:len(lines)-1], "\n")

	if strings.HasPrefix(text, "json") {
		text = strings.TrimSpace(text[4:])
	}
	return text
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
