package service

import (
	"context"
	"io"

	"hr-analytics/internal/domain"
	"hr-analytics/internal/port"

	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing
type MockAgent struct {
	mock.Mock
}

func (m *MockAgent) ScoreText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockPortfolio struct {
	mock.Mock
}

func (m *MockPortfolio) Aggregate(ctx context.Context, links []string) domain.PortfolioSummary {
	args := m.Called(ctx, links)
	return args.Get(0).(domain.PortfolioSummary)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, resumeText, jobDescription string, links []string) (domain.ScoreResult, error) {
	args := m.Called(ctx, resumeText, jobDescription, links)
	return args.Get(0).(domain.ScoreResult), args.Error(1)
}

type MockParser struct {
	mock.Mock
}

func (m *MockParser) Extract(ctx context.Context, r io.ReaderAt, size int64) (*port.ExtractedResume, error) {
	args := m.Called(ctx, r, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractedResume), args.Error(1)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, name, contentType, r)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) SaveCandidate(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *MockRepository) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Candidate), args.Error(1)
}

func (m *MockRepository) ListCandidates(ctx context.Context, jobID int) ([]*domain.Candidate, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]*domain.Candidate), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRepository) MarkAsNotified(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteCandidate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) GetJob(ctx context.Context, jobID int) (*domain.JobPosting, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JobPosting), args.Error(1)
}

func (m *MockRepository) ListJobs(ctx context.Context) ([]*domain.JobPosting, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.JobPosting), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, candidate *domain.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

// 编译期检查
var (
	_ port.Agent        = (*MockAgent)(nil)
	_ port.Portfolio    = (*MockPortfolio)(nil)
	_ port.Scorer       = (*MockScorer)(nil)
	_ port.ResumeParser = (*MockParser)(nil)
	_ port.BlobStore    = (*MockBlobStore)(nil)
	_ port.Repository   = (*MockRepository)(nil)
	_ port.Notifier     = (*MockNotifier)(nil)

	_ port.Portfolio = (*PortfolioService)(nil)
	_ port.Scorer    = (*ScoringService)(nil)
)
