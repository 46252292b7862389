package port

import (
	"context"
	"io"

	"hr-analytics/internal/domain"
)

// GitHubFetcher (情报员): 按 owner/repo 抓取 GitHub 数据
// 所有方法失败时返回哨兵值 (nil / "" / 0)，不返回 error
type GitHubFetcher interface {
	FetchProfile(ctx context.Context, owner string) *domain.GitHubProfile
	FetchRepo(ctx context.Context, owner, repo string) *domain.GitHubProject
	FetchReadme(ctx context.Context, owner, repo string) string
	FetchProfileReadme(ctx context.Context, owner string) string
	FetchLanguages(ctx context.Context, owner, repo string) []string
	FetchContributions(ctx context.Context, owner string) int
}

// Portfolio (作品集整理): 把候选人的链接整理成 GitHub 作品集
type Portfolio interface {
	Aggregate(ctx context.Context, links []string) domain.PortfolioSummary
}

// Agent (评分师): 调用 LLM，输入 Prompt 输出自由文本
type Agent interface {
	ScoreText(ctx context.Context, prompt string) (string, error)
}

// Scorer (评分流程): 作品集 + Prompt + 解析
// 失败时返回全 0 的结果以及非 nil 的 error
type Scorer interface {
	Score(ctx context.Context, resumeText, jobDescription string, links []string) (domain.ScoreResult, error)
}

// ResumeParser (简历解析): 从 PDF 中提取文本和超链接
type ResumeParser interface {
	Extract(ctx context.Context, r io.ReaderAt, size int64) (*ExtractedResume, error)
}

// ExtractedResume PDF 解析结果
type ExtractedResume struct {
	Text  string
	Links []string
	Pages int
}

// BlobStore (文件柜): 保存原始简历 PDF
type BlobStore interface {
	// Put 上传文件，返回可访问的 URL
	Put(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, name string) error
}

// Notifier (信使): 高分候选人推送给 HR
type Notifier interface {
	Notify(ctx context.Context, candidate *domain.Candidate) error
}

// Repository (档案管理员): 候选人和岗位的存储
type Repository interface {
	SaveCandidate(ctx context.Context, candidate *domain.Candidate) error
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
	ListCandidates(ctx context.Context, jobID int) ([]*domain.Candidate, error)
	UpdateStatus(ctx context.Context, id string, status domain.CandidateStatus) error
	MarkAsNotified(ctx context.Context, id string) error
	DeleteCandidate(ctx context.Context, id string) error

	GetJob(ctx context.Context, jobID int) (*domain.JobPosting, error)
	ListJobs(ctx context.Context) ([]*domain.JobPosting, error)
}
