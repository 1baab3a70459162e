package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/export"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/queue"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/storage"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

// UploadedBy is recorded on complaints submitted through the API
const UploadedBy = "api"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Processor interface {
	Process(ctx context.Context, req pipeline.Request) *pipeline.Result
}

type Enqueuer interface {
	EnqueueAnalysis(ctx context.Context, p queue.AnalyzePayload) (*asynq.TaskInfo, error)
}

type UploadStore interface {
	SaveUpload(ctx context.Context, filename string, reader io.Reader) (*storage.Upload, error)
	Delete(ctx context.Context, path string) error
}

type ComplaintReader interface {
	GetByNumber(ctx context.Context, number string) (*domain.Complaint, error)
	GetWithAnalysis(ctx context.Context, number string) (*domain.Complaint, error)
	List(ctx context.Context, filter repositories.ListFilter) ([]domain.Complaint, error)
	ListWithAnalysis(ctx context.Context, filter repositories.ListFilter) ([]domain.Complaint, error)
	Statistics(ctx context.Context) (*domain.Statistics, error)
}

type LogReader interface {
	ListByComplaint(ctx context.Context, complaintID uuid.UUID, limit int) ([]domain.AnalysisLog, error)
}

// HealthFunc reports one dependency's status; "status" must be "up" or "down"
type HealthFunc func(ctx context.Context) map[string]interface{}

// Handler serves the complaint API
type Handler struct {
	processor  Processor
	enqueuer   Enqueuer
	uploads    UploadStore
	complaints ComplaintReader
	logs       LogReader
	health     map[string]HealthFunc
	logger     *slog.Logger
}

// Deps are the collaborators a Handler needs. Enqueuer may be nil, which disables
// POST /analyze/async.
type Deps struct {
	Processor  Processor
	Enqueuer   Enqueuer
	Uploads    UploadStore
	Complaints ComplaintReader
	Logs       LogReader
	Health     map[string]HealthFunc
}

func NewHandler(deps Deps, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		processor:  deps.Processor,
		enqueuer:   deps.Enqueuer,
		uploads:    deps.Uploads,
		complaints: deps.Complaints,
		logs:       deps.Logs,
		health:     deps.Health,
		logger:     logger,
	}
}

// Root answers GET /
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "API Online"})
}

// Analyze stores the multipart "file" and runs the pipeline synchronously
func (h *Handler) Analyze(c *gin.Context) {
	upload, ok := h.receiveUpload(c)
	if !ok {
		return
	}

	result := h.processor.Process(c.Request.Context(), pipeline.Request{
		FilePath:     upload.StoredPath,
		OriginalName: upload.OriginalName,
		UploadedBy:   UploadedBy,
		Temporary:    true,
	})

	if !result.Success {
		c.JSON(failureStatus(result), Envelope{
			Success:  false,
			Filename: upload.OriginalName,
			Error:    result.Error,
		})
		return
	}

	c.JSON(http.StatusOK, Envelope{
		Success:  true,
		Filename: upload.OriginalName,
		Result:   result,
	})
}

// AnalyzeAsync stores the upload and queues it for the worker
func (h *Handler) AnalyzeAsync(c *gin.Context) {
	if h.enqueuer == nil {
		respondError(c, apperrors.New(apperrors.ErrCodeQueueError, "async analysis is not enabled", http.StatusServiceUnavailable))
		return
	}

	upload, ok := h.receiveUpload(c)
	if !ok {
		return
	}

	info, err := h.enqueuer.EnqueueAnalysis(c.Request.Context(), queue.AnalyzePayload{
		FilePath:     upload.StoredPath,
		OriginalName: upload.OriginalName,
		UploadedBy:   UploadedBy,
	})
	if err != nil {
		if delErr := h.uploads.Delete(context.WithoutCancel(c.Request.Context()), upload.StoredPath); delErr != nil {
			h.logger.Warn("failed to remove unqueued upload", slog.String("path", upload.StoredPath), slog.Any("error", delErr))
		}
		respondError(c, apperrors.QueueError(err))
		return
	}

	c.JSON(http.StatusAccepted, Envelope{
		Success:  true,
		Message:  "analysis queued",
		Filename: upload.OriginalName,
		Result: gin.H{
			"task_id": info.ID,
			"queue":   info.Queue,
		},
	})
}

func (h *Handler) receiveUpload(c *gin.Context) (*storage.Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperrors.BadRequest("multipart field \"file\" is required"))
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, apperrors.InvalidFile("cannot read uploaded file"))
		return nil, false
	}
	defer f.Close()

	upload, err := h.uploads.SaveUpload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return upload, true
}

// failureStatus picks the HTTP status for a failed pipeline run
func failureStatus(r *pipeline.Result) int {
	switch r.Error {
	case pipeline.ErrMsgFileNotFound, pipeline.ErrMsgExtractionFailed:
		return http.StatusUnprocessableEntity
	case pipeline.ErrMsgAnalysisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ListComplaints serves GET /complaints?status=&limit=&offset=
func (h *Handler) ListComplaints(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	complaints, err := h.complaints.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, complaints)
}

// GetComplaint returns one complaint with its analysis, articles and recommendations
func (h *Handler) GetComplaint(c *gin.Context) {
	complaint, err := h.complaints.GetWithAnalysis(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, complaint)
}

// ComplaintLogs returns the audit trail of one complaint, newest first
func (h *Handler) ComplaintLogs(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	complaint, err := h.complaints.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}

	logs, err := h.logs.ListByComplaint(c.Request.Context(), complaint.ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, logs)
}

func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.complaints.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// ExportComplaints streams an .xlsx workbook of complaints and their articles
func (h *Handler) ExportComplaints(c *gin.Context) {
	filter, err := listFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	complaints, err := h.complaints.ListWithAnalysis(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteComplaints(&buf, complaints); err != nil {
		respondError(c, apperrors.InternalWrap(err, "failed to build export"))
		return
	}

	filename := fmt.Sprintf("pengaduan_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Health reports every registered dependency; any "down" makes the response 503
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]interface{}, len(h.health))
	for name, check := range h.health {
		report := check(ctx)
		if report["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		checks[name] = report
	}

	c.JSON(status, Envelope{
		Success: status == http.StatusOK,
		Result:  checks,
	})
}

func listFilter(c *gin.Context) (repositories.ListFilter, error) {
	status := c.Query("status")
	if status != "" && !domain.IsValidStatus(status) {
		return repositories.ListFilter{}, apperrors.BadRequest("invalid status: " + status)
	}

	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return repositories.ListFilter{}, err
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil {
		return repositories.ListFilter{}, err
	}

	return repositories.ListFilter{Status: status, Limit: limit, Offset: offset}, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.BadRequest(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}
