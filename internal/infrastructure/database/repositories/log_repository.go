package repositories

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
)

const defaultLogLimit = 50

// LogRepository appends and reads audit entries. There is no update or delete.
type LogRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLogRepository(db *gorm.DB, logger *slog.Logger) *LogRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *LogRepository) Append(ctx context.Context, entry *domain.AnalysisLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		r.logger.Error("failed to append audit log",
			slog.String("action", entry.Action),
			slog.Any("error", err))
		return translate(err, "analysis_log")
	}
	return nil
}

// ListByComplaint returns the newest entries first; limit <= 0 means 50
func (r *LogRepository) ListByComplaint(ctx context.Context, complaintID uuid.UUID, limit int) ([]domain.AnalysisLog, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}

	var logs []domain.AnalysisLog
	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&logs).
		Error

	if err != nil {
		return nil, translate(err, "analysis_log")
	}
	return logs, nil
}
