package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/format"
)

// uploadPrefix marks files this store owns inside the temp directory
const uploadPrefix = "upload_"

// LocalStorage holds uploaded PDFs in a temp directory until the pipeline consumes them
type LocalStorage struct {
	basePath string
	maxSize  int64
	logger   *slog.Logger
}

type LocalStorageConfig struct {
	BasePath string // Directory for pending uploads (e.g., "/tmp/complaints")
	MaxSize  int64  // Bytes; 0 disables the limit
}

// Upload describes one file written by SaveUpload
type Upload struct {
	OriginalName string
	StoredPath   string
	Size         int64
	Hash         string
	CreatedAt    time.Time
}

func NewLocalStorage(cfg *LocalStorageConfig, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath: cfg.BasePath,
		maxSize:  cfg.MaxSize,
		logger:   logger,
	}, nil
}

// SaveUpload streams a PDF to disk, hashing it on the way. Non-PDF names and
// oversized bodies are rejected and leave nothing behind.
func (s *LocalStorage) SaveUpload(ctx context.Context, filename string, reader io.Reader) (*Upload, error) {
	safeName := format.SanitizeFilename(filepath.Base(filename))
	if !strings.EqualFold(filepath.Ext(safeName), ".pdf") {
		return nil, apperrors.UnsupportedFormat(filepath.Ext(filename))
	}

	destPath := filepath.Join(s.basePath, uploadPrefix+uuid.NewString()[:8]+"_"+safeName)
	destFile, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}

	src := reader
	if s.maxSize > 0 {
		src = io.LimitReader(reader, s.maxSize+1)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(destFile, hash), src)
	closeErr := destFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}

	if s.maxSize > 0 && size > s.maxSize {
		_ = os.Remove(destPath)
		return nil, apperrors.FileTooLarge(s.maxSize >> 20)
	}

	upload := &Upload{
		OriginalName: filename,
		StoredPath:   destPath,
		Size:         size,
		Hash:         hex.EncodeToString(hash.Sum(nil)),
		CreatedAt:    time.Now(),
	}

	s.logger.Info("upload stored",
		slog.String("filename", filename),
		slog.String("path", destPath),
		slog.Int64("size", size),
		slog.String("hash", upload.Hash))

	return upload, nil
}

// Delete removes one stored upload. Missing files are not an error.
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// CleanupOldFiles removes uploads left behind by crashed runs and returns how many
// were deleted
func (s *LocalStorage) CleanupOldFiles(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-olderThan)

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), uploadPrefix) {
			continue
		}

		path := filepath.Join(s.basePath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to get file info",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}

		if !info.ModTime().Before(cutoffTime) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove stale upload",
				slog.String("path", path),
				slog.Any("error", err))
			continue
		}
		removed++
	}

	s.logger.Info("cleanup completed",
		slog.Duration("older_than", olderThan),
		slog.Int("removed", removed))

	return removed, nil
}

// BasePath returns the upload directory
func (s *LocalStorage) BasePath() string {
	return s.basePath
}
