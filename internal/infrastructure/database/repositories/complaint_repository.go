package repositories

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ListFilter narrows complaint listings
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// ComplaintRepository persists complaints
type ComplaintRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewComplaintRepository(db *gorm.DB, logger *slog.Logger) *ComplaintRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ComplaintRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a complaint. A taken complaint_number yields ErrCodeDuplicateRecord.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	err := r.db.WithContext(ctx).Create(complaint).Error
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("complaint number already exists",
				slog.String("complaint_number", complaint.ComplaintNumber))
		} else {
			r.logger.Error("failed to create complaint",
				slog.String("complaint_number", complaint.ComplaintNumber),
				slog.Any("error", err))
		}
		return translate(err, "complaint")
	}

	r.logger.Info("complaint created",
		slog.String("id", complaint.ID.String()),
		slog.String("complaint_number", complaint.ComplaintNumber))

	return nil
}

// UpdateStatus moves a complaint forward. The predecessor check runs inside the UPDATE
// so a concurrent writer cannot move a complaint backwards.
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !domain.IsValidStatus(status) {
		return apperrors.BadRequest("invalid complaint status: " + status)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Where("id = ? AND status IN ?", id, domain.AllowedPredecessors(status)).
		Update("status", status)

	if res.Error != nil {
		r.logger.Error("failed to update complaint status",
			slog.String("id", id.String()),
			slog.String("status", status),
			slog.Any("error", res.Error))
		return translate(res.Error, "complaint")
	}

	if res.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return apperrors.InvalidStatusTransition(current.Status, status)
	}

	return nil
}

// SetPDFURL records where the archived PDF lives
func (r *ComplaintRepository) SetPDFURL(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Where("id = ?", id).
		Update("pdf_url", url)

	if res.Error != nil {
		return translate(res.Error, "complaint")
	}
	if res.RowsAffected == 0 {
		return apperrors.RecordNotFound("complaint")
	}
	return nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Complaint, error) {
	var complaint domain.Complaint

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&complaint).
		Error

	if err != nil {
		return nil, translate(err, "complaint")
	}
	return &complaint, nil
}

func (r *ComplaintRepository) GetByNumber(ctx context.Context, number string) (*domain.Complaint, error) {
	var complaint domain.Complaint

	err := r.db.WithContext(ctx).
		Where("complaint_number = ?", number).
		First(&complaint).
		Error

	if err != nil {
		return nil, translate(err, "complaint")
	}
	return &complaint, nil
}

// GetWithAnalysis loads a complaint with its analysis, articles by confidence and
// recommendations in original order.
func (r *ComplaintRepository) GetWithAnalysis(ctx context.Context, number string) (*domain.Complaint, error) {
	var complaint domain.Complaint

	err := r.db.WithContext(ctx).
		Preload("Analysis").
		Preload("Analysis.Articles", func(db *gorm.DB) *gorm.DB {
			return db.Order("confidence_score DESC").Order("position ASC")
		}).
		Preload("Analysis.Recommendations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("complaint_number = ?", number).
		First(&complaint).
		Error

	if err != nil {
		return nil, translate(err, "complaint")
	}
	return &complaint, nil
}

// List returns complaints newest first. The extracted text is omitted.
func (r *ComplaintRepository) List(ctx context.Context, filter ListFilter) ([]domain.Complaint, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := r.db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Omit("extracted_text").
		Order("upload_date DESC").
		Limit(limit).
		Offset(filter.Offset)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var complaints []domain.Complaint
	if err := query.Find(&complaints).Error; err != nil {
		r.logger.Error("failed to list complaints", slog.Any("error", err))
		return nil, translate(err, "complaint")
	}
	return complaints, nil
}

// ListWithAnalysis returns complaints and their analyses for reporting
func (r *ComplaintRepository) ListWithAnalysis(ctx context.Context, filter ListFilter) ([]domain.Complaint, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	query := r.db.WithContext(ctx).
		Preload("Analysis").
		Preload("Analysis.Articles", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("upload_date DESC").
		Limit(limit).
		Offset(filter.Offset)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var complaints []domain.Complaint
	if err := query.Find(&complaints).Error; err != nil {
		return nil, translate(err, "complaint")
	}
	return complaints, nil
}

// Statistics counts complaints by status and those with high urgency
func (r *ComplaintRepository) Statistics(ctx context.Context) (*domain.Statistics, error) {
	type statusCount struct {
		Status string
		Count  int64
	}

	var counts []statusCount
	err := r.db.WithContext(ctx).
		Model(&domain.Complaint{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).
		Error
	if err != nil {
		r.logger.Error("failed to count complaints", slog.Any("error", err))
		return nil, translate(err, "complaint")
	}

	stats := &domain.Statistics{}
	for _, c := range counts {
		stats.TotalComplaints += c.Count
		switch c.Status {
		case domain.StatusPending:
			stats.Pending = c.Count
		case domain.StatusAnalyzed:
			stats.Analyzed = c.Count
		case domain.StatusError:
			stats.Errored = c.Count
		}
	}

	err = r.db.WithContext(ctx).
		Model(&domain.AnalysisResult{}).
		Where("tingkat_urgensi = ?", domain.UrgencyHigh).
		Count(&stats.HighUrgency).
		Error
	if err != nil {
		return nil, translate(err, "analysis_result")
	}

	return stats, nil
}

