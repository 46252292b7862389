package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"

	"github.com/google/go-github/v53/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// ReadmeNotFound README 拿不到时的占位文本 (展示用，不是错误)
	ReadmeNotFound = "README not found"

	readmeMaxChars = 500
	defaultTimeout = 30 * time.Second
)

var lineBreaks = regexp.MustCompile(`[\r\n]+`)

// Config GitHub 客户端配置
type Config struct {
	// Personal Access Token，为空则匿名访问 (60 次/小时)
	// 经 oauth2 发送为 "Authorization: Bearer <token>"，GitHub 与 "token <token>" 写法等价
	Token string
	// 为空时使用 https://api.github.com/
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// 测试时可以注入自定义的 http.Client
	HTTPClient *http.Client
}

// Fetcher 实现了 port.GitHubFetcher 接口
// 整个进程共用一个 github.Client (连接池)，可以并发使用
type Fetcher struct {
	client     *github.Client
	maxRetries int
	logger     *zap.Logger
}

// NewFetcher 初始化 GitHub 客户端
func NewFetcher(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = timeout
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		baseURL, err := url.Parse(base)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeInvalidInput, "GitHub base URL 不合法", err)
		}
		client.BaseURL = baseURL
	}

	return &Fetcher{
		client:     client,
		maxRetries: cfg.MaxRetries,
		logger:     logger.With(zap.String("component", "github")),
	}, nil
}

// FetchProfile 获取用户主页信息，失败返回 nil
func (f *Fetcher) FetchProfile(ctx context.Context, owner string) *domain.GitHubProfile {
	if owner == "" {
		return nil
	}

	var user *github.User
	ok := f.call(ctx, "users/"+owner, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		user, resp, err = f.client.Users.Get(ctx, owner)
		return resp, err
	})
	if !ok || user == nil {
		return nil
	}

	return &domain.GitHubProfile{
		ProfileURL:  user.GetHTMLURL(),
		Name:        user.GetName(),
		Bio:         user.GetBio(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
	}
}

// FetchRepo 获取仓库信息，失败返回 nil
func (f *Fetcher) FetchRepo(ctx context.Context, owner, repo string) *domain.GitHubProject {
	if owner == "" || repo == "" {
		return nil
	}

	var r *github.Repository
	ok := f.call(ctx, fmt.Sprintf("repos/%s/%s", owner, repo), func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		r, resp, err = f.client.Repositories.Get(ctx, owner, repo)
		return resp, err
	})
	if !ok || r == nil {
		return nil
	}

	return &domain.GitHubProject{
		RepoURL:         r.GetHTMLURL(),
		Description:     r.GetDescription(),
		Stars:           r.GetStargazersCount(),
		Forks:           r.GetForksCount(),
		PrimaryLanguage: r.GetLanguage(),
	}
}

// FetchReadme 通过 download_url 下载 README 原文，换行压成空格，截断到 500 字符
// 失败返回 "README not found"
func (f *Fetcher) FetchReadme(ctx context.Context, owner, repo string) string {
	if owner == "" || repo == "" {
		return ReadmeNotFound
	}

	var content *github.RepositoryContent
	ok := f.call(ctx, fmt.Sprintf("repos/%s/%s/readme", owner, repo), func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		content, resp, err = f.client.Repositories.GetReadme(ctx, owner, repo, nil)
		return resp, err
	})
	if !ok || content.GetDownloadURL() == "" {
		return ReadmeNotFound
	}

	var buf bytes.Buffer
	ok = f.call(ctx, content.GetDownloadURL(), func() (*github.Response, error) {
		buf.Reset()
		req, err := f.client.NewRequest(http.MethodGet, content.GetDownloadURL(), nil)
		if err != nil {
			return nil, err
		}
		return f.client.Do(ctx, req, &buf)
	})
	if !ok {
		return ReadmeNotFound
	}

	return cleanReadme(buf.String())
}

// FetchProfileReadme 个人主页 README 存放在与用户名同名的仓库里
func (f *Fetcher) FetchProfileReadme(ctx context.Context, owner string) string {
	return f.FetchReadme(ctx, owner, owner)
}

// FetchLanguages 获取仓库使用的语言，按代码量从多到少排序 (与 GitHub 返回顺序一致)
// 失败返回空切片
func (f *Fetcher) FetchLanguages(ctx context.Context, owner, repo string) []string {
	if owner == "" || repo == "" {
		return []string{}
	}

	var langs map[string]int
	ok := f.call(ctx, fmt.Sprintf("repos/%s/%s/languages", owner, repo), func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		langs, resp, err = f.client.Repositories.ListLanguages(ctx, owner, repo)
		return resp, err
	})
	if !ok {
		return []string{}
	}

	return sortLanguages(langs)
}

// FetchContributions 近似的活跃度：/users/{u}/events 第一页返回的事件数
// 不翻页、不按时间过滤，上限就是 API 的默认分页大小 (30)，不是真实的贡献总数
// 失败返回 0
func (f *Fetcher) FetchContributions(ctx context.Context, owner string) int {
	if owner == "" {
		return 0
	}

	var events []*github.Event
	ok := f.call(ctx, "users/"+owner+"/events", func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		events, resp, err = f.client.Activity.ListEventsPerformedByUser(ctx, owner, false, nil)
		return resp, err
	})
	if !ok {
		return 0
	}
	return len(events)
}

// call 执行一次 API 调用，只有 200 才算成功；其它状态码一律视为“没有数据”
func (f *Fetcher) call(ctx context.Context, endpoint string, fn func() (*github.Response, error)) bool {
	var resp *github.Response
	err := common.Do(ctx, func() error {
		var apiErr error
		resp, apiErr = fn()
		return apiErr
	},
		common.WithMaxRetries(f.maxRetries),
		common.WithInitialDelay(time.Second),
		common.WithRetryIf(isTransient),
	)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		f.logger.Warn("⚠️ GitHub API 调用失败",
			zap.String("endpoint", endpoint),
			zap.Int("status", status),
			zap.Error(err))
		return false
	}
	if status != http.StatusOK {
		f.logger.Warn("⚠️ GitHub API 返回非 200",
			zap.String("endpoint", endpoint),
			zap.Int("status", status))
		return false
	}
	return true
}

// isTransient 只有 5xx 和网络错误值得重试，4xx / 限流直接放弃
func isTransient(err error) bool {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return false
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return false
	}
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func cleanReadme(raw string) string {
	collapsed := lineBreaks.ReplaceAllString(raw, " ")
	runes := []rune(collapsed)
	if len(runes) > readmeMaxChars {
		return string(runes[:readmeMaxChars])
	}
	return collapsed
}

func sortLanguages(langs map[string]int) []string {
	names := make([]string, 0, len(langs))
	for name := range langs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
