package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"
	"hr-analytics/internal/port"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	pdfContentType = "application/pdf"
	// 简历对象统一放在这个前缀下
	resumePrefix = "resumes"
)

var pdfMagic = []byte("%PDF-")

// IntakeConfig 投递流程配置
type IntakeConfig struct {
	// 没有指定岗位时使用的岗位描述
	DefaultJobDescription string
	// 总分达到该值才推送给 HR，<= 0 表示不推送
	MinTotalScore float64
}

// Submission 一次简历投递
type Submission struct {
	Name     string `validate:"required,max=200"`
	Email    string `validate:"required,email"`
	JobID    int    `validate:"gte=0"`
	FileName string
	Resume   []byte `validate:"required"`
}

// SubmissionResult 投递结果
type SubmissionResult struct {
	Candidate           *domain.Candidate
	Links               []string
	ExtractedTextLength int
	// 评分失败时非 nil，Candidate 上的分数为 0
	ScoreErr error
}

// IntakeService 投递入口：解析 PDF → 上传 ∥ 评分 → 入库 → 推送
type IntakeService struct {
	parser   port.ResumeParser
	store    port.BlobStore
	scorer   port.Scorer
	repo     port.Repository
	notifier port.Notifier
	cfg      IntakeConfig
	validate *validator.Validate
	logger   *zap.Logger

	newID   func() string
	nowFunc func() time.Time
}

// NewIntakeService notifier 可以为 nil
func NewIntakeService(
	parser port.ResumeParser,
	store port.BlobStore,
	scorer port.Scorer,
	repo port.Repository,
	notifier port.Notifier,
	cfg IntakeConfig,
	logger *zap.Logger,
) *IntakeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntakeService{
		parser:   parser,
		store:    store,
		scorer:   scorer,
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger.With(zap.String("component", "intake")),
		newID:    uuid.NewString,
		nowFunc:  time.Now,
	}
}

// Submit 处理一份简历投递
// 评分失败不算投递失败：候选人照常入库，score_status=failed
func (s *IntakeService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if err := s.validate.Struct(sub); err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, "投递信息不完整", err)
	}
	if !bytes.HasPrefix(sub.Resume, pdfMagic) {
		return nil, common.NewError(common.ErrCodeInvalidInput, "简历必须是 PDF 文件")
	}

	// 1. 解析 PDF
	extracted, err := s.parser.Extract(ctx, bytes.NewReader(sub.Resume), int64(len(sub.Resume)))
	if err != nil {
		return nil, err
	}
	s.logger.Info("📄 简历解析完成",
		zap.String("email", sub.Email),
		zap.Int("pages", extracted.Pages),
		zap.Int("links", len(extracted.Links)))

	// 2. 岗位描述
	jobDescription, err := s.jobDescription(ctx, sub.JobID)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	object := path.Join(resumePrefix, id+".pdf")

	// 3. 上传和评分互不依赖，并行执行；上传失败整体失败，评分失败只记录
	var (
		resumeURL string
		scores    domain.ScoreResult
		scoreErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := s.store.Put(gctx, object, pdfContentType, bytes.NewReader(sub.Resume))
		if err != nil {
			return err
		}
		resumeURL = url
		return nil
	})
	g.Go(func() error {
		scores, scoreErr = s.scorer.Score(gctx, extracted.Text, jobDescription, extracted.Links)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if scoreErr != nil {
		s.logger.Warn("⚠️ 评分失败，候选人按 0 分入库", zap.String("candidate", id), zap.Error(scoreErr))
	}

	// 4. 入库
	now := s.nowFunc()
	candidate := &domain.Candidate{
		ID:           id,
		JobID:        sub.JobID,
		UserName:     sub.Name,
		UserEmail:    sub.Email,
		ResumeURL:    resumeURL,
		ResumeObject: object,
		Status:       domain.CandidateStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	candidate.ApplyScore(scores, scoreErr)

	if err := s.repo.SaveCandidate(ctx, candidate); err != nil {
		// 入库失败，刚上传的文件没人引用了
		if delErr := s.store.Delete(ctx, object); delErr != nil {
			s.logger.Warn("⚠️ 清理孤立简历失败", zap.String("object", object), zap.Error(delErr))
		}
		return nil, err
	}
	s.logger.Info("💾 候选人已入库",
		zap.String("candidate", id),
		zap.String("score_status", string(candidate.ScoreStatus)),
		zap.Float64("total", candidate.TotalScore))

	// 5. 高分推送
	s.notify(ctx, candidate)

	return &SubmissionResult{
		Candidate:           candidate,
		Links:               extracted.Links,
		ExtractedTextLength: len(extracted.Text),
		ScoreErr:            scoreErr,
	}, nil
}

func (s *IntakeService) jobDescription(ctx context.Context, jobID int) (string, error) {
	if jobID <= 0 {
		return s.cfg.DefaultJobDescription, nil
	}
	job, err := s.repo.GetJob(ctx, jobID)
	if common.HasCode(err, common.ErrCodeNotFound) {
		return "", common.WrapError(common.ErrCodeInvalidInput, fmt.Sprintf("岗位 %d 不存在", jobID), err)
	}
	if err != nil {
		return "", err
	}
	return job.Description(), nil
}

// notify 推送失败只记日志，不影响投递结果
func (s *IntakeService) notify(ctx context.Context, c *domain.Candidate) {
	if s.notifier == nil || s.cfg.MinTotalScore <= 0 || !c.IsShortlisted(s.cfg.MinTotalScore) {
		return
	}
	if err := s.notifier.Notify(ctx, c); err != nil {
		s.logger.Error("❌ 推送候选人失败", zap.String("candidate", c.ID), zap.Error(err))
		return
	}
	if err := s.repo.MarkAsNotified(ctx, c.ID); err != nil {
		s.logger.Warn("⚠️ 标记候选人为已推送失败", zap.String("candidate", c.ID), zap.Error(err))
		return
	}
	c.AlreadyNotified = true
}

// ListCandidates jobID <= 0 表示全部岗位
func (s *IntakeService) ListCandidates(ctx context.Context, jobID int) ([]*domain.Candidate, error) {
	return s.repo.ListCandidates(ctx, jobID)
}

func (s *IntakeService) GetCandidate(ctx context.Context, id string) (*domain.Candidate, error) {
	return s.repo.GetCandidate(ctx, id)
}

// Accept HR 通过候选人
func (s *IntakeService) Accept(ctx context.Context, id string) (*domain.Candidate, error) {
	if err := s.repo.UpdateStatus(ctx, id, domain.CandidateStatusAccepted); err != nil {
		return nil, err
	}
	s.logger.Info("👍 候选人已通过", zap.String("candidate", id))
	return s.repo.GetCandidate(ctx, id)
}

// Reject HR 拒绝候选人：先删简历文件，再删记录
// 文件删除失败时保留记录，方便重试
func (s *IntakeService) Reject(ctx context.Context, id string) error {
	c, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return err
	}
	if c.ResumeObject != "" {
		if err := s.store.Delete(ctx, c.ResumeObject); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteCandidate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("🗑️ 候选人已拒绝并删除", zap.String("candidate", id))
	return nil
}

func (s *IntakeService) ListJobs(ctx context.Context) ([]*domain.JobPosting, error) {
	return s.repo.ListJobs(ctx)
}

func (s *IntakeService) GetJob(ctx context.Context, jobID int) (*domain.JobPosting, error) {
	return s.repo.GetJob(ctx, jobID)
}
