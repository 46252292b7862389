package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"
	"hr-analytics/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var samplePDF = []byte("%PDF-1.4 fake body")

type intakeFixture struct {
	parser   *MockParser
	store    *MockBlobStore
	scorer   *MockScorer
	repo     *MockRepository
	notifier *MockNotifier
	svc      *IntakeService
}

func newIntakeFixture(cfg IntakeConfig) *intakeFixture {
	f := &intakeFixture{
		parser:   new(MockParser),
		store:    new(MockBlobStore),
		scorer:   new(MockScorer),
		repo:     new(MockRepository),
		notifier: new(MockNotifier),
	}
	f.svc = NewIntakeService(f.parser, f.store, f.scorer, f.repo, f.notifier, cfg, zap.NewNop())
	f.svc.newID = func() string { return "c-123" }
	f.svc.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f *intakeFixture) assertExpectations(t *testing.T) {
	f.parser.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.scorer.AssertExpectations(t)
	f.repo.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func validSubmission() Submission {
	return Submission{
		Name:     "Alice",
		Email:    "alice@example.com",
		FileName: "alice.pdf",
		Resume:   samplePDF,
	}
}

func extracted() *port.ExtractedResume {
	return &port.ExtractedResume{
		Text:  "Go developer",
		Links: []string{"https://github.com/alice"},
		Pages: 1,
	}
}

func TestIntakeService_Submit_Shortlisted(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{DefaultJobDescription: "default job", MinTotalScore: 70})
	scores := domain.ScoreResult{ParameterScore: 16, JobSimilarityScore: 45, GitHubScore: 15, TotalScore: 76}

	f.parser.On("Extract", mock.Anything, mock.Anything, int64(len(samplePDF))).Return(extracted(), nil)
	f.repo.On("GetJob", mock.Anything, 3).Return(&domain.JobPosting{JobID: 3, JobTitle: "Backend Engineer"}, nil)
	f.store.On("Put", mock.Anything, "resumes/c-123.pdf", "application/pdf", mock.Anything).
		Return("https://storage.googleapis.com/b/resumes/c-123.pdf", nil)
	f.scorer.On("Score", mock.Anything, "Go developer", "Job Title: Backend Engineer", []string{"https://github.com/alice"}).
		Return(scores, nil)
	f.repo.On("SaveCandidate", mock.Anything, mock.MatchedBy(func(c *domain.Candidate) bool {
		return c.ID == "c-123" && c.JobID == 3 && c.TotalScore == 76 &&
			c.ScoreStatus == domain.ScoreStatusScored &&
			c.ResumeObject == "resumes/c-123.pdf" &&
			c.Status == domain.CandidateStatusPending
	})).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.AnythingOfType("*domain.Candidate")).Return(nil)
	f.repo.On("MarkAsNotified", mock.Anything, "c-123").Return(nil)

	sub := validSubmission()
	sub.JobID = 3
	res, err := f.svc.Submit(context.Background(), sub)

	require.NoError(t, err)
	assert.NoError(t, res.ScoreErr)
	assert.Equal(t, "https://storage.googleapis.com/b/resumes/c-123.pdf", res.Candidate.ResumeURL)
	assert.Equal(t, scores, res.Candidate.Scores())
	assert.True(t, res.Candidate.AlreadyNotified)
	assert.Equal(t, []string{"https://github.com/alice"}, res.Links)
	assert.Equal(t, len("Go developer"), res.ExtractedTextLength)
	f.assertExpectations(t)
}

func TestIntakeService_Submit_ScoringFailedStillPersists(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{DefaultJobDescription: "default job", MinTotalScore: 70})
	scoringErr := common.WrapError(common.ErrCodeScoringFailed, "Agent 调用失败", errors.New("boom"))

	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("file:///tmp/c-123.pdf", nil)
	f.scorer.On("Score", mock.Anything, "Go developer", "default job", mock.Anything).
		Return(domain.ScoreResult{}, scoringErr)
	f.repo.On("SaveCandidate", mock.Anything, mock.MatchedBy(func(c *domain.Candidate) bool {
		return c.ScoreStatus == domain.ScoreStatusFailed && c.ScoreError != "" && c.TotalScore == 0
	})).Return(nil)

	res, err := f.svc.Submit(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.True(t, common.HasCode(res.ScoreErr, common.ErrCodeScoringFailed))
	assert.Equal(t, domain.ScoreResult{}, res.Candidate.Scores())
	assert.False(t, res.Candidate.AlreadyNotified)
	// 评分失败不推送
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestIntakeService_Submit_BelowThresholdNotNotified(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{MinTotalScore: 80})

	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ScoreResult{TotalScore: 79}, nil)
	f.repo.On("SaveCandidate", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestIntakeService_Submit_NotifyFailureIgnored(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{MinTotalScore: 50})

	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ScoreResult{TotalScore: 90}, nil)
	f.repo.On("SaveCandidate", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return(errors.New("webhook down"))

	res, err := f.svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.False(t, res.Candidate.AlreadyNotified)
	f.repo.AssertNotCalled(t, "MarkAsNotified", mock.Anything, mock.Anything)
}

func TestIntakeService_Submit_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Submission)
	}{
		{name: "缺少姓名", modify: func(s *Submission) { s.Name = "" }},
		{name: "邮箱不合法", modify: func(s *Submission) { s.Email = "not-an-email" }},
		{name: "缺少文件", modify: func(s *Submission) { s.Resume = nil }},
		{name: "不是 PDF", modify: func(s *Submission) { s.Resume = []byte("PK\x03\x04 docx") }},
		{name: "岗位 ID 为负", modify: func(s *Submission) { s.JobID = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIntakeFixture(IntakeConfig{})
			sub := validSubmission()
			tt.modify(&sub)

			_, err := f.svc.Submit(context.Background(), sub)
			require.Error(t, err)
			assert.Equal(t, common.ErrCodeInvalidInput, common.CodeOf(err))
			f.parser.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIntakeService_Submit_UnknownJob(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.repo.On("GetJob", mock.Anything, 42).Return(nil, common.NewError(common.ErrCodeNotFound, "岗位 42 不存在"))

	sub := validSubmission()
	sub.JobID = 42
	_, err := f.svc.Submit(context.Background(), sub)
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInvalidInput, common.CodeOf(err))
	f.store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIntakeService_Submit_PDFError(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, common.NewError(common.ErrCodePDF, "PDF 解析失败"))

	_, err := f.svc.Submit(context.Background(), validSubmission())
	assert.Equal(t, common.ErrCodePDF, common.CodeOf(err))
}

func TestIntakeService_Submit_UploadError(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", common.NewError(common.ErrCodeStorage, "上传简历失败"))
	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ScoreResult{}, nil).Maybe()

	_, err := f.svc.Submit(context.Background(), validSubmission())
	assert.Equal(t, common.ErrCodeStorage, common.CodeOf(err))
	f.repo.AssertNotCalled(t, "SaveCandidate", mock.Anything, mock.Anything)
}

func TestIntakeService_Submit_SaveErrorCleansUpBlob(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.parser.On("Extract", mock.Anything, mock.Anything, mock.Anything).Return(extracted(), nil)
	f.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("url", nil)
	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(domain.ScoreResult{}, nil)
	f.repo.On("SaveCandidate", mock.Anything, mock.Anything).
		Return(common.NewError(common.ErrCodeDatabase, "保存候选人失败"))
	f.store.On("Delete", mock.Anything, "resumes/c-123.pdf").Return(nil)

	_, err := f.svc.Submit(context.Background(), validSubmission())
	assert.Equal(t, common.ErrCodeDatabase, common.CodeOf(err))
	f.assertExpectations(t)
}

func TestIntakeService_Accept(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.repo.On("UpdateStatus", mock.Anything, "c-1", domain.CandidateStatusAccepted).Return(nil)
	f.repo.On("GetCandidate", mock.Anything, "c-1").
		Return(&domain.Candidate{ID: "c-1", Status: domain.CandidateStatusAccepted}, nil)

	c, err := f.svc.Accept(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, domain.CandidateStatusAccepted, c.Status)

	f.repo.On("UpdateStatus", mock.Anything, "ghost", domain.CandidateStatusAccepted).
		Return(common.NewError(common.ErrCodeNotFound, "候选人 ghost 不存在"))
	_, err = f.svc.Accept(context.Background(), "ghost")
	assert.Equal(t, common.ErrCodeNotFound, common.CodeOf(err))
}

func TestIntakeService_Reject(t *testing.T) {
	t.Run("删除文件和记录", func(t *testing.T) {
		f := newIntakeFixture(IntakeConfig{})
		f.repo.On("GetCandidate", mock.Anything, "c-1").
			Return(&domain.Candidate{ID: "c-1", ResumeObject: "resumes/c-1.pdf"}, nil)
		f.store.On("Delete", mock.Anything, "resumes/c-1.pdf").Return(nil)
		f.repo.On("DeleteCandidate", mock.Anything, "c-1").Return(nil)

		require.NoError(t, f.svc.Reject(context.Background(), "c-1"))
		f.assertExpectations(t)
	})

	t.Run("文件删除失败时保留记录", func(t *testing.T) {
		f := newIntakeFixture(IntakeConfig{})
		f.repo.On("GetCandidate", mock.Anything, "c-1").
			Return(&domain.Candidate{ID: "c-1", ResumeObject: "resumes/c-1.pdf"}, nil)
		f.store.On("Delete", mock.Anything, "resumes/c-1.pdf").
			Return(common.NewError(common.ErrCodeStorage, "删除失败"))

		err := f.svc.Reject(context.Background(), "c-1")
		assert.Equal(t, common.ErrCodeStorage, common.CodeOf(err))
		f.repo.AssertNotCalled(t, "DeleteCandidate", mock.Anything, mock.Anything)
	})

	t.Run("候选人不存在", func(t *testing.T) {
		f := newIntakeFixture(IntakeConfig{})
		f.repo.On("GetCandidate", mock.Anything, "ghost").
			Return(nil, common.NewError(common.ErrCodeNotFound, "候选人 ghost 不存在"))

		err := f.svc.Reject(context.Background(), "ghost")
		assert.Equal(t, common.ErrCodeNotFound, common.CodeOf(err))
	})
}

func TestIntakeService_Listing(t *testing.T) {
	f := newIntakeFixture(IntakeConfig{})
	f.repo.On("ListCandidates", mock.Anything, 0).Return([]*domain.Candidate{{ID: "c-2"}, {ID: "c-1"}}, nil)
	f.repo.On("ListJobs", mock.Anything).Return([]*domain.JobPosting{{JobID: 1}}, nil)
	f.repo.On("GetJob", mock.Anything, 1).Return(&domain.JobPosting{JobID: 1}, nil)

	candidates, err := f.svc.ListCandidates(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)

	jobs, err := f.svc.ListJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	job, err := f.svc.GetJob(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, job.JobID)
}
