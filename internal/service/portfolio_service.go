package service

import (
	"context"
	"sync"

	"hr-analytics/internal/adapter/filter"
	"hr-analytics/internal/domain"
	"hr-analytics/internal/port"

	"go.uber.org/zap"
)

// DefaultPortfolioWorkers 抓取作品集的默认并发数
const DefaultPortfolioWorkers = 4

// PortfolioService 实现了 port.Portfolio 接口
// 每条链接是一个独立任务，由固定数量的 worker 并发抓取，结果按输入下标放回
type PortfolioService struct {
	fetcher port.GitHubFetcher
	workers int
	logger  *zap.Logger
}

// NewPortfolioService workers <= 0 时使用默认值，1 即顺序抓取
func NewPortfolioService(fetcher port.GitHubFetcher, workers int, logger *zap.Logger) *PortfolioService {
	if workers <= 0 {
		workers = DefaultPortfolioWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioService{
		fetcher: fetcher,
		workers: workers,
		logger:  logger.With(zap.String("component", "portfolio")),
	}
}

// linkJob 一条待抓取的链接
type linkJob struct {
	index int
	link  string
	owner string
	repo  string
}

// linkResult 单条链接的抓取结果，两者至多一个非 nil
type linkResult struct {
	profile *domain.GitHubProfile
	project *domain.GitHubProject
}

// Aggregate 把链接整理成作品集
// 非 GitHub 链接跳过；重复链接不去重；输出顺序与输入一致
func (s *PortfolioService) Aggregate(ctx context.Context, links []string) domain.PortfolioSummary {
	summary := domain.NewPortfolioSummary()

	jobs := make([]linkJob, 0, len(links))
	for _, link := range links {
		kind := filter.Kind(link)
		if kind == filter.KindIrrelevant {
			s.logger.Debug("⏭️ 跳过无关链接", zap.String("link", link))
			continue
		}
		owner, repo := filter.Classify(link)
		s.logger.Debug("🔗 待抓取链接", zap.String("link", link), zap.Stringer("kind", kind))
		jobs = append(jobs, linkJob{index: len(jobs), link: link, owner: owner, repo: repo})
	}
	if len(jobs) == 0 {
		return summary
	}

	results := make([]linkResult, len(jobs))
	jobCh := make(chan linkJob, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	workers := s.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go s.worker(ctx, jobCh, results, &wg)
	}
	wg.Wait()

	for _, r := range results {
		if r.profile != nil {
			summary.Profiles = append(summary.Profiles, *r.profile)
		}
		if r.project != nil {
			summary.Projects = append(summary.Projects, *r.project)
		}
	}

	s.logger.Info("🗂️ 作品集整理完成",
		zap.Int("links", len(links)),
		zap.Int("profiles", len(summary.Profiles)),
		zap.Int("projects", len(summary.Projects)))
	return summary
}

// worker 每个下标只会被一个 worker 写入，不需要加锁
func (s *PortfolioService) worker(ctx context.Context, jobs <-chan linkJob, results []linkResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		results[j.index] = s.safeFetch(ctx, j)
	}
}

// safeFetch 在 worker goroutine 里 panic 会直接打挂进程，调用方的 recover 拦不住
// 这里兜底，按抓取失败处理
func (s *PortfolioService) safeFetch(ctx context.Context, j linkJob) (res linkResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("💥 抓取 GitHub 数据时 panic，跳过该链接",
				zap.String("link", j.link),
				zap.Any("panic", r))
			res = linkResult{}
		}
	}()
	return s.fetch(ctx, j)
}

func (s *PortfolioService) fetch(ctx context.Context, j linkJob) linkResult {
	if j.repo == "" {
		profile := s.fetcher.FetchProfile(ctx, j.owner)
		if profile == nil {
			return linkResult{}
		}
		// 贡献数和主页 README 失败时是哨兵值，不影响 profile 本身
		profile.Contributions = s.fetcher.FetchContributions(ctx, j.owner)
		profile.ProfileReadme = s.fetcher.FetchProfileReadme(ctx, j.owner)
		return linkResult{profile: profile}
	}

	project := s.fetcher.FetchRepo(ctx, j.owner, j.repo)
	if project == nil {
		return linkResult{}
	}
	project.Languages = s.fetcher.FetchLanguages(ctx, j.owner, j.repo)
	project.Readme = s.fetcher.FetchReadme(ctx, j.owner, j.repo)
	return linkResult{project: project}
}
