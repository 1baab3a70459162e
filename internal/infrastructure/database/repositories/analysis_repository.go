package repositories

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
)

// AnalysisRepository persists analysis results with their articles and recommendations
type AnalysisRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAnalysisRepository(db *gorm.DB, logger *slog.Logger) *AnalysisRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &AnalysisRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts only the analysis row; associations are written separately so each
// row is attributable on failure.
func (r *AnalysisRepository) Create(ctx context.Context, analysis *domain.AnalysisResult) error {
	err := r.db.WithContext(ctx).
		Omit("Articles", "Recommendations").
		Create(analysis).
		Error

	if err != nil {
		r.logger.Error("failed to create analysis",
			slog.String("complaint_id", analysis.ComplaintID.String()),
			slog.Any("error", err))
		return translate(err, "analysis_result")
	}
	return nil
}

func (r *AnalysisRepository) GetByComplaintID(ctx context.Context, complaintID uuid.UUID) (*domain.AnalysisResult, error) {
	var analysis domain.AnalysisResult

	err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		First(&analysis).
		Error

	if err != nil {
		return nil, translate(err, "analysis_result")
	}
	return &analysis, nil
}

// CreateArticle inserts one article; the model hook rejects out-of-range scores
func (r *AnalysisRepository) CreateArticle(ctx context.Context, article *domain.LegalArticle) error {
	if err := r.db.WithContext(ctx).Create(article).Error; err != nil {
		r.logger.Error("failed to create legal article",
			slog.String("analysis_id", article.AnalysisID.String()),
			slog.String("pasal_number", article.PasalNumber),
			slog.Any("error", err))
		return translate(err, "legal_article")
	}
	return nil
}

// ListArticles returns articles by descending confidence
func (r *AnalysisRepository) ListArticles(ctx context.Context, analysisID uuid.UUID) ([]domain.LegalArticle, error) {
	var articles []domain.LegalArticle

	err := r.db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		Order("confidence_score DESC").
		Order("position ASC").
		Find(&articles).
		Error

	if err != nil {
		return nil, translate(err, "legal_article")
	}
	return articles, nil
}

func (r *AnalysisRepository) CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		r.logger.Error("failed to create recommendation",
			slog.String("analysis_id", rec.AnalysisID.String()),
			slog.Any("error", err))
		return translate(err, "recommendation")
	}
	return nil
}

// ListRecommendations returns recommendations in the order the model produced them
func (r *AnalysisRepository) ListRecommendations(ctx context.Context, analysisID uuid.UUID) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation

	err := r.db.WithContext(ctx).
		Where("analysis_id = ?", analysisID).
		Order("position ASC").
		Find(&recs).
		Error

	if err != nil {
		return nil, translate(err, "recommendation")
	}
	return recs, nil
}
