package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Extractor runs the digital strategy and falls back to OCR when the digital text
// layer is missing or too short.
type Extractor struct {
	digital Strategy
	ocr     Strategy
	minLen  int
	logger  *slog.Logger
}

// New creates an extractor backed by the PDF text layer and pdftoppm + tesseract
func New(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithStrategies(cfg.MinTextLength, NewDigital(logger), NewOCR(cfg.OCR, logger), logger)
}

// NewWithStrategies wires explicit strategies, mostly for tests
func NewWithStrategies(minLen int, digital, ocr Strategy, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if minLen <= 0 {
		minLen = MinTextLength
	}

	return &Extractor{
		digital: digital,
		ocr:     ocr,
		minLen:  minLen,
		logger:  logger,
	}
}

// Extract returns the stripped text of the PDF at path. OCR is only attempted when the
// digital strategy fails or falls below the threshold. ErrNoText means both failed.
func (e *Extractor) Extract(ctx context.Context, path string) (*Result, error) {
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	e.logger.Info("extracting text", slog.String("path", path))

	if text, ok := e.try(ctx, e.digital, path); ok {
		return &Result{Text: text, Method: MethodDigital, Duration: time.Since(start)}, nil
	}

	e.logger.Info("digital extraction insufficient, falling back to OCR", slog.String("path", path))

	if text, ok := e.try(ctx, e.ocr, path); ok {
		return &Result{Text: text, Method: MethodOCR, Duration: time.Since(start)}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Warn("all extraction methods failed", slog.String("path", path))
	return nil, ErrNoText
}

// try runs one strategy and applies the threshold to its stripped output
func (e *Extractor) try(ctx context.Context, s Strategy, path string) (string, bool) {
	if s == nil || ctx.Err() != nil {
		return "", false
	}

	text, err := s.Extract(ctx, path)
	if err != nil {
		e.logger.Warn("extraction strategy failed",
			slog.String("strategy", s.Name()),
			slog.Any("error", err))
		return "", false
	}

	text = strings.TrimSpace(text)
	length := utf8.RuneCountInString(text)
	if length < e.minLen {
		e.logger.Info("extraction yielded minimal text",
			slog.String("strategy", s.Name()),
			slog.Int("chars", length),
			slog.Int("threshold", e.minLen))
		return "", false
	}

	e.logger.Info("extraction successful",
		slog.String("strategy", s.Name()),
		slog.Int("chars", length))
	return text, true
}
