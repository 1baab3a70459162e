package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("exec failed",
			slog.String("cmd", name),
			slog.String("args", strings.Join(args, " ")),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Any("error", err),
			slog.String("stderr", truncate(errb.String(), 8<<10)))
	} else {
		r.logger.Debug("exec ok",
			slog.String("cmd", name),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.Int("stdout_bytes", out.Len()))
	}

	return out.Bytes(), errb.Bytes(), err
}

// OCR rasterizes every page with pdftoppm and reads it back with tesseract
type OCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger
}

func NewOCR(cfg OCRConfig, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	return NewOCRWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewOCRWithRunner is NewOCR with an explicit command runner
func NewOCRWithRunner(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig().OCR
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = defaults.Pdftoppm
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = defaults.Tesseract
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.DPI <= 0 {
		cfg.DPI = defaults.DPI
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

func (o *OCR) Name() string { return MethodOCR }

// Extract returns page texts in page order, each followed by a blank line. A page that
// tesseract cannot read is skipped.
func (o *OCR) Extract(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "complaint-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create raster dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			o.logger.Warn("failed to remove raster dir", slog.String("path", tmpDir), slog.Any("error", err))
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, errb, err := o.runner.Run(ctx, o.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", o.cfg.DPI), "-png", path, prefix); err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if o.cfg.MaxPages > 0 && len(images) > o.cfg.MaxPages {
		images = images[:o.cfg.MaxPages]
	}
	if len(images) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images")
	}

	var b strings.Builder
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		o.logger.Debug("running OCR on page",
			slog.Int("page", i+1),
			slog.Int("total_pages", len(images)))

		// tesseract <img> stdout -l ind
		out, _, err := o.runner.Run(ctx, o.cfg.Tesseract, img, "stdout", "-l", o.cfg.Language)
		if err != nil {
			o.logger.Warn("tesseract failed on page",
				slog.Int("page", i+1),
				slog.Any("error", err))
			continue
		}

		b.Write(out)
		b.WriteString("\n\n")
	}

	return b.String(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
