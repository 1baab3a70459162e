package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/extractor"
)

// User-facing failure messages
const (
	ErrMsgFileNotFound      = "File not found"
	ErrMsgExtractionFailed  = "Text extraction failed"
	ErrMsgAnalysisFailed    = "AI analysis failed"
	ErrMsgProcessingFailure = "Processing failed"
)

// Stage names used for logging, metrics and failure attribution
const (
	StageValidate = "validate"
	StageExtract  = "extract"
	StageCreate   = "create_complaint"
	StageArchive  = "archive"
	StageAnalyze  = "analyze"
	StagePersist  = "persist"
	StageFinalize = "finalize"
)

const (
	// AnalyzedBy is recorded on every AnalysisResult
	AnalyzedBy = "AI-Gemini"
	// SystemActor is the action_by for audit entries not caused by a user
	SystemActor = "system"
)

// Store is the persistence surface the pipeline writes through
type Store interface {
	CreateComplaint(ctx context.Context, complaint *domain.Complaint) error
	UpdateComplaintStatus(ctx context.Context, id uuid.UUID, status string) error
	SetComplaintURL(ctx context.Context, id uuid.UUID, url string) error
	CreateAnalysis(ctx context.Context, analysis *domain.AnalysisResult) error
	CreateArticle(ctx context.Context, article *domain.LegalArticle) error
	CreateRecommendation(ctx context.Context, rec *domain.Recommendation) error
	AppendLog(ctx context.Context, entry *domain.AnalysisLog) error
}

type TextExtractor interface {
	Extract(ctx context.Context, path string) (*extractor.Result, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, text string) (*analyzer.Analysis, error)
}

type NumberGenerator interface {
	Next(ctx context.Context) (string, error)
}

// Archiver copies the source PDF to durable storage and returns its URL
type Archiver interface {
	Archive(ctx context.Context, key, path string) (string, error)
}

// TextCleaner normalizes extracted text before it is stored and analyzed
type TextCleaner interface {
	CleanText(text string) string
}

// Recorder receives per-stage timings and run outcomes
type Recorder interface {
	ObserveStage(stage string, d time.Duration, err error)
	RecordOutcome(success bool, failedStage string)
	RecordExtraction(method string)
}

// Request describes one uploaded complaint
type Request struct {
	FilePath     string
	OriginalName string
	UploadedBy   string
	// Temporary marks FilePath as an upload the pipeline owns and must delete
	Temporary bool
}

// Result is the single outcome of a run. Exactly one of the success fields or Error is
// meaningful, selected by Success.
type Result struct {
	Success         bool    `json:"success"`
	ComplaintID     string  `json:"complaint_id,omitempty"`
	ComplaintNumber string  `json:"complaint_number,omitempty"`
	AnalysisID      string  `json:"analysis_id,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Error           string  `json:"error,omitempty"`

	// Stage is where a failed run stopped
	Stage string `json:"-"`
	// Cause is the underlying error of a failed run
	Cause error `json:"-"`
}

func failure(stage, message string, cause error) *Result {
	return &Result{Success: false, Error: message, Stage: stage, Cause: cause}
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(string, time.Duration, error) {}
func (nopRecorder) RecordOutcome(bool, string)                {}
func (nopRecorder) RecordExtraction(string)                   {}
