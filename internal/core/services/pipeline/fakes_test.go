package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/analyzer"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/extractor"
	apperrors "github.com/alejandroruanova/legal-complaint-analyzer/internal/pkg/errors"
)

// memoryStore is an in-memory Store that enforces forward-only status transitions
// and lets tests inject failures per operation.
type memoryStore struct {
	mu sync.Mutex

	complaints      map[uuid.UUID]*domain.Complaint
	analyses        []*domain.AnalysisResult
	articles        []*domain.LegalArticle
	recommendations []*domain.Recommendation
	logs            []*domain.AnalysisLog

	writes int

	// failures keyed by operation name; failArticleAt fails the nth article (1-based)
	failures      map[string]error
	failArticleAt int
	duplicates    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		complaints: make(map[uuid.UUID]*domain.Complaint),
		failures:   make(map[string]error),
	}
}

func (m *memoryStore) fail(op string) error {
	return m.failures[op]
}

func (m *memoryStore) CreateComplaint(ctx context.Context, c *domain.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateComplaint"); err != nil {
		return err
	}
	if m.duplicates > 0 {
		m.duplicates--
		return apperrors.DuplicateRecord("complaint", errors.New("duplicate key value violates unique constraint"))
	}
	for _, existing := range m.complaints {
		if existing.ComplaintNumber == c.ComplaintNumber {
			return apperrors.DuplicateRecord("complaint", nil)
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.complaints[c.ID] = &cp
	m.writes++
	return nil
}

func (m *memoryStore) UpdateComplaintStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpdateComplaintStatus"); err != nil {
		return err
	}
	c, ok := m.complaints[id]
	if !ok {
		return apperrors.RecordNotFound("complaint")
	}
	if !domain.CanTransition(c.Status, status) {
		return apperrors.InvalidStatusTransition(c.Status, status)
	}
	c.Status = status
	m.writes++
	return nil
}

func (m *memoryStore) SetComplaintURL(ctx context.Context, id uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("SetComplaintURL"); err != nil {
		return err
	}
	c, ok := m.complaints[id]
	if !ok {
		return apperrors.RecordNotFound("complaint")
	}
	c.PDFURL = &url
	m.writes++
	return nil
}

func (m *memoryStore) CreateAnalysis(ctx context.Context, a *domain.AnalysisResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateAnalysis"); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.analyses = append(m.analyses, a)
	m.writes++
	return nil
}

func (m *memoryStore) CreateArticle(ctx context.Context, a *domain.LegalArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failArticleAt > 0 && len(m.articles)+1 == m.failArticleAt {
		return errors.New("insert legal_articles: connection lost")
	}
	// mirror the model hook: invalid rows never reach the table
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.articles = append(m.articles, a)
	m.writes++
	return nil
}

func (m *memoryStore) CreateRecommendation(ctx context.Context, r *domain.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateRecommendation"); err != nil {
		return err
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.recommendations = append(m.recommendations, r)
	m.writes++
	return nil
}

func (m *memoryStore) AppendLog(ctx context.Context, e *domain.AnalysisLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("AppendLog"); err != nil {
		return err
	}
	m.logs = append(m.logs, e)
	m.writes++
	return nil
}

func (m *memoryStore) onlyComplaint(t *testing.T) *domain.Complaint {
	t.Helper()
	require.Len(t, m.complaints, 1)
	for _, c := range m.complaints {
		return c
	}
	return nil
}

func (m *memoryStore) actions() []string {
	out := make([]string, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.Action
	}
	return out
}

type stubExtractor struct {
	text   string
	method string
	err    error
	calls  int
}

func (s *stubExtractor) Extract(ctx context.Context, path string) (*extractor.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &extractor.Result{Text: s.text, Method: s.method}, nil
}

type stubAnalyzer struct {
	analysis *analyzer.Analysis
	err      error
	panicMsg string
	texts    []string
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text string) (*analyzer.Analysis, error) {
	s.texts = append(s.texts, text)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.analysis, s.err
}

type sequenceNumbers struct {
	n int
}

func (s *sequenceNumbers) Next(ctx context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("ADU-20240312%06d", s.n), nil
}

type stubArchiver struct {
	url  string
	err  error
	keys []string
}

func (s *stubArchiver) Archive(ctx context.Context, key, path string) (string, error) {
	s.keys = append(s.keys, key)
	return s.url, s.err
}

type upperCleaner struct{}

func (upperCleaner) CleanText(text string) string { return "CLEANED " + text }

// wipeCleaner drops everything, like an over-eager marker filter would
type wipeCleaner struct{}

func (wipeCleaner) CleanText(text string) string { return "\n" }

type outcome struct {
	success bool
	stage   string
}

type captureRecorder struct {
	stages   []string
	outcomes []outcome
	methods  []string
}

func (c *captureRecorder) ObserveStage(stage string, d time.Duration, err error) {
	c.stages = append(c.stages, stage)
}

func (c *captureRecorder) RecordOutcome(success bool, stage string) {
	c.outcomes = append(c.outcomes, outcome{success, stage})
}

func (c *captureRecorder) RecordExtraction(method string) {
	c.methods = append(c.methods, method)
}

func mustAnalysis(t *testing.T, doc string) *analyzer.Analysis {
	t.Helper()
	var a analyzer.Analysis
	require.NoError(t, json.Unmarshal([]byte(doc), &a))
	a.Raw = json.RawMessage(doc)
	a.Metadata = &analyzer.Metadata{AnalysisDurationSeconds: 4, Model: "gemini-test"}
	return &a
}

func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload_laporan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 test"), 0644))
	return path
}
