package extractor

import (
	"context"
	"errors"
	"time"
)

// MinTextLength is the smallest stripped text, in characters, accepted from either
// strategy. Anything shorter from the digital layer means the PDF is probably a scan.
const MinTextLength = 100

// Extraction methods
const (
	MethodDigital = "digital"
	MethodOCR     = "ocr"
)

// ErrNoText is returned when neither strategy yields enough text
var ErrNoText = errors.New("no strategy produced enough text")

// Strategy turns a PDF on disk into plain text
type Strategy interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// TextExtractor is what the pipeline needs from this package
type TextExtractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// Result is the outcome of a successful extraction
type Result struct {
	Text     string        `json:"text"`
	Method   string        `json:"method"`
	Duration time.Duration `json:"duration"`
}

// Config for the extractor
type Config struct {
	MinTextLength int
	OCR           OCRConfig
}

// OCRConfig controls the raster fallback
type OCRConfig struct {
	Pdftoppm  string // binary name or absolute path
	Tesseract string
	Language  string // tesseract language pack, "ind" for Indonesian
	DPI       int
	MaxPages  int // 0 = no limit
}

// DefaultConfig returns default extraction configuration
func DefaultConfig() Config {
	return Config{
		MinTextLength: MinTextLength,
		OCR: OCRConfig{
			Pdftoppm:  "pdftoppm",
			Tesseract: "tesseract",
			Language:  "ind",
			DPI:       300,
		},
	}
}

// DocumentInfo is returned by the metadata probe
type DocumentInfo struct {
	NumPages    int               `json:"num_pages"`
	FileSize    int64             `json:"file_size"`
	Metadata    map[string]string `json:"metadata"`
	IsEncrypted bool              `json:"is_encrypted"`
}
