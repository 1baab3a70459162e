package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/extractor"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/format"
)

// createAttempts bounds complaint number retries on a unique violation
const createAttempts = 3

// Processor runs one complaint from PDF to persisted analysis. It holds no per-request
// state and is safe for concurrent use when its collaborators are.
type Processor struct {
	store     Store
	extractor TextExtractor
	analyzer  Analyzer
	numbers   NumberGenerator
	cleaner   TextCleaner
	archiver  Archiver
	recorder  Recorder
	minText   int
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Processor
type Option func(*Processor)

func WithCleaner(c TextCleaner) Option {
	return func(p *Processor) { p.cleaner = c }
}

func WithArchiver(a Archiver) Option {
	return func(p *Processor) { p.archiver = a }
}

// WithMinTextLength sets the threshold cleaned text must still meet; it should match
// the extractor's
func WithMinTextLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.minText = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

// NewProcessor wires the pipeline collaborators
func NewProcessor(store Store, ext TextExtractor, an Analyzer, numbers NumberGenerator, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Processor{
		store:     store,
		extractor: ext,
		analyzer:  an,
		numbers:   numbers,
		recorder:  nopRecorder{},
		minText:   extractor.MinTextLength,
		logger:    logger.With(slog.String("component", "pipeline")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs every stage in order and always returns a Result; errors never escape.
func (p *Processor) Process(ctx context.Context, req Request) (result *Result) {
	start := p.now()
	stage := StageValidate

	if req.Temporary {
		defer p.removeUpload(req.FilePath)
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic",
				slog.String("stage", stage),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			result = failure(stage, ErrMsgProcessingFailure, fmt.Errorf("panic in %s: %v", stage, r))
		}
		p.recorder.RecordOutcome(result.Success, result.Stage)
	}()

	name := req.OriginalName
	if name == "" {
		name = filepath.Base(req.FilePath)
	}
	log := p.logger.With(slog.String("file", name))

	// Validate input
	stageStart := p.now()
	digest, size, err := inspectFile(req.FilePath)
	p.recorder.ObserveStage(StageValidate, p.now().Sub(stageStart), err)
	if err != nil {
		log.Warn("input file not usable", slog.String("path", req.FilePath), slog.Any("error", err))
		return failure(StageValidate, ErrMsgFileNotFound, apperrors.FileNotFound(req.FilePath))
	}

	// Extract
	stage = StageExtract
	stageStart = p.now()
	extracted, err := p.extractor.Extract(ctx, req.FilePath)
	p.recorder.ObserveStage(StageExtract, p.now().Sub(stageStart), err)
	if err != nil {
		log.Warn("text extraction failed", slog.Any("error", err))
		return failure(StageExtract, ErrMsgExtractionFailed, apperrors.ExtractionFailed(err))
	}
	p.recorder.RecordExtraction(extracted.Method)

	text := p.clean(log, extracted.Text)
	if strings.TrimSpace(text) == "" {
		log.Warn("extractor returned empty text")
		return failure(StageExtract, ErrMsgExtractionFailed, apperrors.ExtractionFailed(extractor.ErrNoText))
	}

	// Create complaint
	stage = StageCreate
	stageStart = p.now()
	complaint := &domain.Complaint{
		PDFFilename:      format.SanitizeFilename(name),
		PDFPath:          req.FilePath,
		FileHash:         digest,
		FileSize:         size,
		ExtractedText:    text,
		ExtractionMethod: extracted.Method,
		Status:           domain.StatusProcessing,
		UploadedBy:       req.UploadedBy,
	}
	err = p.createComplaint(ctx, complaint)
	p.recorder.ObserveStage(StageCreate, p.now().Sub(stageStart), err)
	if err != nil {
		log.Error("failed to create complaint", slog.Any("error", err))
		return failure(StageCreate, err.Error(), err)
	}

	log = log.With(
		slog.String("complaint_id", complaint.ID.String()),
		slog.String("complaint_number", complaint.ComplaintNumber),
	)
	log.Info("complaint created", slog.String("extraction_method", extracted.Method))

	return p.processComplaint(ctx, log, complaint, req, name, start)
}

// clean applies the text cleaner unless that would push the text below the extraction
// threshold, in which case the raw text is kept
func (p *Processor) clean(log *slog.Logger, raw string) string {
	if p.cleaner == nil {
		return raw
	}
	cleaned := p.cleaner.CleanText(raw)
	if n := utf8.RuneCountInString(strings.TrimSpace(cleaned)); n < p.minText {
		log.Warn("cleaned text below threshold, keeping raw text",
			slog.Int("cleaned_chars", n),
			slog.Int("raw_chars", utf8.RuneCountInString(strings.TrimSpace(raw))))
		return raw
	}
	return cleaned
}

// processComplaint runs the stages that follow complaint creation. Any error or panic
// here is converted by the failure handler.
func (p *Processor) processComplaint(ctx context.Context, log *slog.Logger, complaint *domain.Complaint, req Request, name string, start time.Time) (result *Result) {
	stage := StageCreate
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic",
				slog.String("stage", stage),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err := fmt.Errorf("panic in %s: %v", stage, r)
			p.handleFailure(ctx, log, complaint.ID, stage, err)
			result = failure(stage, err.Error(), err)
		}
	}()

	p.appendLog(ctx, log, &domain.AnalysisLog{
		ComplaintID: &complaint.ID,
		Action:      domain.ActionComplaintUploaded,
		ActionBy:    req.UploadedBy,
		Details:     "PDF: " + name,
		Metadata: jsonObject(map[string]any{
			"extraction_method": complaint.ExtractionMethod,
			"text_length":       len([]rune(complaint.ExtractedText)),
			"file_size":         complaint.FileSize,
		}),
	})

	stage = StageArchive
	if p.archiver != nil {
		p.archive(ctx, log, complaint, req.FilePath)
	}

	// Analyze
	stage = StageAnalyze
	stageStart := p.now()
	analysis, err := p.analyzer.Analyze(ctx, complaint.ExtractedText)
	p.recorder.ObserveStage(StageAnalyze, p.now().Sub(stageStart), err)
	if err != nil {
		log.Error("analysis failed", slog.Any("error", err))
		if statusErr := p.store.UpdateComplaintStatus(detach(ctx), complaint.ID, domain.StatusError); statusErr != nil {
			log.Error("failed to mark complaint as error", slog.Any("error", statusErr))
		}
		return failure(StageAnalyze, ErrMsgAnalysisFailed, err)
	}

	if missing := analyzer.MissingRequiredKeys(analysis.Raw); len(missing) > 0 {
		log.Warn("analysis is missing required keys", slog.Any("missing", missing))
	}

	// Persist analysis, articles, recommendations
	stage = StagePersist
	stageStart = p.now()
	analysisID, err := p.persist(ctx, complaint.ID, analysis)
	p.recorder.ObserveStage(StagePersist, p.now().Sub(stageStart), err)
	if err != nil {
		p.handleFailure(ctx, log, complaint.ID, stage, err)
		return failure(stage, err.Error(), err)
	}

	// Finalize
	stage = StageFinalize
	stageStart = p.now()
	err = p.store.UpdateComplaintStatus(ctx, complaint.ID, domain.StatusAnalyzed)
	p.recorder.ObserveStage(StageFinalize, p.now().Sub(stageStart), err)
	if err != nil {
		p.handleFailure(ctx, log, complaint.ID, stage, err)
		return failure(stage, err.Error(), err)
	}

	p.appendLog(ctx, log, &domain.AnalysisLog{
		ComplaintID: &complaint.ID,
		AnalysisID:  &analysisID,
		Action:      domain.ActionAnalysisCompleted,
		ActionBy:    SystemActor,
		Details:     "Analysis ID: " + analysisID.String(),
	})

	duration := p.now().Sub(start).Seconds()
	log.Info("complaint analyzed",
		slog.String("analysis_id", analysisID.String()),
		slog.Float64("duration_seconds", duration),
	)

	return &Result{
		Success:         true,
		ComplaintID:     complaint.ID.String(),
		ComplaintNumber: complaint.ComplaintNumber,
		AnalysisID:      analysisID.String(),
		DurationSeconds: duration,
	}
}

// persist writes the analysis row, then articles in list order, then recommendations.
// The first failing write aborts the rest.
func (p *Processor) persist(ctx context.Context, complaintID uuid.UUID, analysis *analyzer.Analysis) (uuid.UUID, error) {
	recs, err := decompose(complaintID, analysis)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid analysis: %w", err)
	}

	if err := p.store.CreateAnalysis(ctx, recs.analysis); err != nil {
		return uuid.Nil, fmt.Errorf("save analysis: %w", err)
	}

	for _, art := range recs.articles {
		art.AnalysisID = recs.analysis.ID
		if err := p.store.CreateArticle(ctx, art); err != nil {
			return uuid.Nil, fmt.Errorf("save article %s: %w", art.PasalNumber, err)
		}
	}

	for _, rec := range recs.recommendations {
		rec.AnalysisID = recs.analysis.ID
		if err := p.store.CreateRecommendation(ctx, rec); err != nil {
			return uuid.Nil, fmt.Errorf("save recommendation %d: %w", rec.Position, err)
		}
	}

	return recs.analysis.ID, nil
}

func (p *Processor) createComplaint(ctx context.Context, complaint *domain.Complaint) error {
	var lastErr error
	for attempt := 0; attempt < createAttempts; attempt++ {
		number, err := p.numbers.Next(ctx)
		if err != nil {
			return fmt.Errorf("generate complaint number: %w", err)
		}
		complaint.ComplaintNumber = number

		err = p.store.CreateComplaint(ctx, complaint)
		if err == nil {
			return nil
		}
		if !apperrors.HasCode(err, apperrors.ErrCodeDuplicateRecord) {
			return err
		}

		p.logger.Warn("complaint number taken, retrying", slog.String("number", number))
		complaint.ID = uuid.Nil
		lastErr = err
	}
	return lastErr
}

// archive is best effort: the URL is recorded when the upload succeeds
func (p *Processor) archive(ctx context.Context, log *slog.Logger, complaint *domain.Complaint, path string) {
	stageStart := p.now()
	key := complaint.ComplaintNumber + "/" + complaint.PDFFilename

	url, err := p.archiver.Archive(ctx, key, path)
	if err == nil {
		err = p.store.SetComplaintURL(ctx, complaint.ID, url)
	}
	p.recorder.ObserveStage(StageArchive, p.now().Sub(stageStart), err)
	if err != nil {
		log.Warn("failed to archive PDF", slog.Any("error", err))
		return
	}

	complaint.PDFURL = &url
	p.appendLog(ctx, log, &domain.AnalysisLog{
		ComplaintID: &complaint.ID,
		Action:      domain.ActionPDFArchived,
		ActionBy:    SystemActor,
		Details:     url,
	})
}

// handleFailure marks the complaint as error and records the cause. Its own failures
// are logged and never replace the original error.
func (p *Processor) handleFailure(ctx context.Context, log *slog.Logger, complaintID uuid.UUID, stage string, cause error) {
	log.Error("processing failed", slog.String("stage", stage), slog.Any("error", cause))

	defer func() {
		if r := recover(); r != nil {
			log.Error("failure handler panicked", slog.Any("panic", r))
		}
	}()

	ctx = detach(ctx)
	if err := p.store.UpdateComplaintStatus(ctx, complaintID, domain.StatusError); err != nil {
		log.Error("failed to mark complaint as error", slog.Any("error", err))
	}
	p.appendLog(ctx, log, &domain.AnalysisLog{
		ComplaintID: &complaintID,
		Action:      domain.ActionProcessingError,
		ActionBy:    SystemActor,
		Details:     cause.Error(),
		Metadata:    jsonObject(map[string]any{"stage": stage}),
	})
}

// appendLog writes an audit entry; a failed write is only logged
func (p *Processor) appendLog(ctx context.Context, log *slog.Logger, entry *domain.AnalysisLog) {
	if err := p.store.AppendLog(ctx, entry); err != nil {
		log.Warn("failed to write audit log",
			slog.String("action", entry.Action),
			slog.Any("error", err),
		)
	}
}

func (p *Processor) removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("failed to remove upload", slog.String("path", path), slog.Any("error", err))
	}
}

// inspectFile confirms path is a readable regular file and returns its sha256 and size
func inspectFile(path string) (string, int64, error) {
	if path == "" {
		return "", 0, os.ErrNotExist
	}

	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, err
	}
	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%s is not a regular file", path)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), info.Size(), nil
}

// detach keeps values but drops cancellation so failure bookkeeping still lands after
// the caller gives up.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func jsonObject(v map[string]any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
