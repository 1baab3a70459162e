package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/queue"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/storage"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router     *gin.Engine
	processor  *MockProcessor
	enqueuer   *MockEnqueuer
	complaints *MockComplaints
	logs       *MockLogs
	uploadDir  string
}

func newTestServer(t *testing.T, apiKey string, withQueue bool) *testServer {
	t.Helper()
	dir := t.TempDir()
	uploads, err := storage.NewLocalStorage(&storage.LocalStorageConfig{BasePath: dir}, logger.Discard())
	require.NoError(t, err)

	s := &testServer{
		processor:  &MockProcessor{},
		enqueuer:   &MockEnqueuer{},
		complaints: &MockComplaints{},
		logs:       &MockLogs{},
		uploadDir:  dir,
	}

	deps := Deps{
		Processor:  s.processor,
		Uploads:    uploads,
		Complaints: s.complaints,
		Logs:       s.logs,
		Health: map[string]HealthFunc{
			"database": func(ctx context.Context) map[string]interface{} {
				return map[string]interface{}{"status": "up"}
			},
		},
	}
	if withQueue {
		deps.Enqueuer = s.enqueuer
	}

	s.router = NewRouter(NewHandler(deps, logger.Discard()), RouterConfig{
		APIKey:   apiKey,
		Gatherer: prometheus.NewRegistry(),
	}, logger.Discard())
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestRoot(t *testing.T) {
	s := newTestServer(t, "secret", false)

	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"API Online"}`, w.Body.String())
}

func TestAnalyze_Success(t *testing.T) {
	s := newTestServer(t, "", false)

	s.processor.On("Process", mock.MatchedBy(func(r pipeline.Request) bool {
		return r.OriginalName == "laporan.pdf" && r.UploadedBy == UploadedBy && r.Temporary
	})).Return(&pipeline.Result{
		Success:         true,
		ComplaintID:     uuid.NewString(),
		ComplaintNumber: "ADU-20240312101500",
	})

	w := s.do(multipartRequest(t, "/analyze", "laporan.pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "laporan.pdf", env.Filename)
	result := env.Result.(map[string]interface{})
	assert.Equal(t, "ADU-20240312101500", result["complaint_number"])
	s.processor.AssertExpectations(t)
}

func TestAnalyze_PipelineFailure(t *testing.T) {
	cases := map[string]int{
		pipeline.ErrMsgExtractionFailed:  http.StatusUnprocessableEntity,
		pipeline.ErrMsgAnalysisFailed:    http.StatusBadGateway,
		pipeline.ErrMsgProcessingFailure: http.StatusInternalServerError,
	}

	for msg, status := range cases {
		t.Run(msg, func(t *testing.T) {
			s := newTestServer(t, "", false)
			s.processor.On("Process", mock.Anything).Return(&pipeline.Result{Success: false, Error: msg})

			w := s.do(multipartRequest(t, "/analyze", "laporan.pdf", []byte("%PDF-1.4")))
			assert.Equal(t, status, w.Code)

			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, msg, env.Error)
			assert.Nil(t, env.Result)
		})
	}
}

func TestAnalyze_Rejections(t *testing.T) {
	s := newTestServer(t, "", false)

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	w := s.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, decode(t, w).Success)

	w = s.do(multipartRequest(t, "/analyze", "notes.txt", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeUnsupportedFormat), decode(t, w).Code)

	s.processor.AssertNotCalled(t, "Process", mock.Anything)
}

func TestAnalyze_RequiresAPIKey(t *testing.T) {
	s := newTestServer(t, "secret", false)
	s.processor.On("Process", mock.Anything).Return(&pipeline.Result{Success: true})

	w := s.do(multipartRequest(t, "/analyze", "laporan.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := multipartRequest(t, "/analyze", "laporan.pdf", []byte("%PDF"))
	req.Header.Set("X-API-KEY", "secret")
	w = s.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyzeAsync(t *testing.T) {
	s := newTestServer(t, "", true)
	s.enqueuer.On("EnqueueAnalysis", mock.MatchedBy(func(p queue.AnalyzePayload) bool {
		return p.OriginalName == "laporan.pdf" && p.FilePath != ""
	})).Return(&asynq.TaskInfo{ID: "task-1", Queue: queue.QueueDefault}, nil)

	w := s.do(multipartRequest(t, "/analyze/async", "laporan.pdf", []byte("%PDF")))
	require.Equal(t, http.StatusAccepted, w.Code)

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "task-1", env.Result.(map[string]interface{})["task_id"])

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "upload stays on disk for the worker")
}

func TestAnalyzeAsync_EnqueueFailureRemovesUpload(t *testing.T) {
	s := newTestServer(t, "", true)
	s.enqueuer.On("EnqueueAnalysis", mock.Anything).Return(nil, errors.New("redis down"))

	w := s.do(multipartRequest(t, "/analyze/async", "laporan.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeAsync_Disabled(t *testing.T) {
	s := newTestServer(t, "", false)

	w := s.do(multipartRequest(t, "/analyze/async", "laporan.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListComplaints(t *testing.T) {
	s := newTestServer(t, "", false)
	s.complaints.On("List", repositories.ListFilter{Status: "analyzed", Limit: 10, Offset: 5}).
		Return([]domain.Complaint{{ComplaintNumber: "ADU-20240312101500", Status: "analyzed"}}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/complaints?status=analyzed&limit=10&offset=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Result, 1)

	w = s.do(httptest.NewRequest(http.MethodGet, "/complaints?status=archived", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/complaints?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetComplaint(t *testing.T) {
	s := newTestServer(t, "", false)
	s.complaints.On("GetWithAnalysis", "ADU-20240312101500").
		Return(&domain.Complaint{ComplaintNumber: "ADU-20240312101500"}, nil)
	s.complaints.On("GetWithAnalysis", "ADU-19990101000000").
		Return(nil, apperrors.RecordNotFound("complaint"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/complaints/ADU-20240312101500", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/complaints/ADU-19990101000000", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(apperrors.ErrCodeRecordNotFound), decode(t, w).Code)
}

func TestComplaintLogs(t *testing.T) {
	s := newTestServer(t, "", false)
	id := uuid.New()
	s.complaints.On("GetByNumber", "ADU-20240312101500").Return(&domain.Complaint{ID: id}, nil)
	s.logs.On("ListByComplaint", id, 5).Return([]domain.AnalysisLog{
		{Action: domain.ActionAnalysisCompleted},
		{Action: domain.ActionComplaintUploaded},
	}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/complaints/ADU-20240312101500/logs?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Result, 2)
	s.logs.AssertExpectations(t)
}

func TestStatistics(t *testing.T) {
	s := newTestServer(t, "", false)
	s.complaints.On("Statistics").Return(&domain.Statistics{TotalComplaints: 3, Pending: 1, Analyzed: 2, HighUrgency: 1}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/statistics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	result := decode(t, w).Result.(map[string]interface{})
	assert.EqualValues(t, 3, result["total_complaints"])
	assert.EqualValues(t, 1, result["high_urgency"])
}

func TestStatistics_DatabaseErrorIsMasked(t *testing.T) {
	s := newTestServer(t, "", false)
	s.complaints.On("Statistics").Return(nil, errors.New("pq: password authentication failed"))

	w := s.do(httptest.NewRequest(http.MethodGet, "/statistics", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestExportComplaints(t *testing.T) {
	s := newTestServer(t, "", false)
	s.complaints.On("ListWithAnalysis", repositories.ListFilter{}).
		Return([]domain.Complaint{{ComplaintNumber: "ADU-20240312101500", Status: "pending"}}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/complaints/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Pengaduan")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "secret", false)

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestHealth_Down(t *testing.T) {
	h := NewHandler(Deps{Health: map[string]HealthFunc{
		"redis": func(ctx context.Context) map[string]interface{} {
			return map[string]interface{}{"status": "down"}
		},
	}}, logger.Discard())
	router := NewRouter(h, RouterConfig{Gatherer: prometheus.NewRegistry()}, logger.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	router := NewRouter(NewHandler(Deps{}, logger.Discard()), RouterConfig{Gatherer: reg, APIKey: "secret"}, logger.Discard())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test_total 1")
}
