package httpapi

import (
	"context"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/domain"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/core/services/pipeline"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/database/repositories"
	"github.com/alejandroruanova/legal-complaint-analyzer/internal/infrastructure/queue"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, req pipeline.Request) *pipeline.Result {
	args := m.Called(req)
	return args.Get(0).(*pipeline.Result)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueAnalysis(ctx context.Context, p queue.AnalyzePayload) (*asynq.TaskInfo, error) {
	args := m.Called(p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

type MockComplaints struct {
	mock.Mock
}

func (m *MockComplaints) GetByNumber(ctx context.Context, number string) (*domain.Complaint, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Complaint), args.Error(1)
}

func (m *MockComplaints) GetWithAnalysis(ctx context.Context, number string) (*domain.Complaint, error) {
	args := m.Called(number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Complaint), args.Error(1)
}

func (m *MockComplaints) List(ctx context.Context, filter repositories.ListFilter) ([]domain.Complaint, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Complaint), args.Error(1)
}

func (m *MockComplaints) ListWithAnalysis(ctx context.Context, filter repositories.ListFilter) ([]domain.Complaint, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Complaint), args.Error(1)
}

func (m *MockComplaints) Statistics(ctx context.Context) (*domain.Statistics, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

type MockLogs struct {
	mock.Mock
}

func (m *MockLogs) ListByComplaint(ctx context.Context, complaintID uuid.UUID, limit int) ([]domain.AnalysisLog, error) {
	args := m.Called(complaintID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisLog), args.Error(1)
}
