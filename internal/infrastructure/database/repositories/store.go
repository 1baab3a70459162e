package repositories

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
)

// Store bundles the repositories behind the pipeline's persistence interface
type Store struct {
	Complaints *ComplaintRepository
	Analyses   *AnalysisRepository
	Logs       *LogRepository
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{
		Complaints: NewComplaintRepository(db, logger),
		Analyses:   NewAnalysisRepository(db, logger),
		Logs:       NewLogRepository(db, logger),
	}
}

func (s *Store) CreateComplaint(ctx context.Context, complaint *domain.Complaint) error {
	return s.Complaints.Create(ctx, complaint)
}

func (s *Store) UpdateComplaintStatus(ctx context.Context, id uuid.UUID, status string) error {
	return s.Complaints.UpdateStatus(ctx, id, status)
}

func (s *Store) SetComplaintURL(ctx context.Context, id uuid.UUID, url string) error {
	return s.Complaints.SetPDFURL(ctx, id, url)
}

func (s *Store) CreateAnalysis(ctx context.Context, analysis *domain.AnalysisResult) error {
	return s.Analyses.Create(ctx, analysis)
}

func (s *Store) CreateArticle(ctx context.Context, article *domain.LegalArticle) error {
	return s.Analyses.CreateArticle(ctx, article)
}

func (s *Store) CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error {
	return s.Analyses.CreateRecommendation(ctx, rec)
}

func (s *Store) AppendLog(ctx context.Context, entry *domain.AnalysisLog) error {
	return s.Logs.Append(ctx, entry)
}
