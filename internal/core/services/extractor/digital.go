package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Digital reads the embedded text layer page by page
type Digital struct {
	logger *slog.Logger
}

func NewDigital(logger *slog.Logger) *Digital {
	if logger == nil {
		logger = slog.Default()
	}
	return &Digital{logger: logger}
}

func (d *Digital) Name() string { return MethodDigital }

// Extract concatenates page text in page order. Pages whose text cannot be decoded are
// skipped.
func (d *Digital) Extract(ctx context.Context, path string) (text string, err error) {
	// the pdf package panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	numPages := r.NumPage()
	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			d.logger.Debug("page text extraction failed",
				slog.Int("page", i),
				slog.Any("error", err))
			continue
		}

		d.logger.Debug("page extracted",
			slog.Int("page", i),
			slog.Int("total_pages", numPages),
			slog.Int("chars", len(pageText)))

		b.WriteString(pageText)
		b.WriteString("\n")
	}

	return b.String(), nil
}

// Info probes page count, size, document metadata and encryption. It is independent of
// the extraction strategies.
func Info(path string) (info *DocumentInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf %s: %v", path, r)
		}
	}()

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	info = &DocumentInfo{
		FileSize: stat.Size(),
		Metadata: map[string]string{},
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			info.IsEncrypted = true
			return info, nil
		}
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info.NumPages = r.NumPage()

	trailer := r.Trailer()
	info.IsEncrypted = !trailer.Key("Encrypt").IsNull()

	docInfo := trailer.Key("Info")
	for _, key := range docInfo.Keys() {
		if v := docInfo.Key(key); !v.IsNull() {
			info.Metadata[key] = v.Text()
		}
	}

	return info, nil
}
