package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hr-analytics/internal/adapter/feishu"
	"hr-analytics/internal/adapter/gemini"
	"hr-analytics/internal/adapter/github"
	"hr-analytics/internal/adapter/pdf"
	"hr-analytics/internal/adapter/repository"
	"hr-analytics/internal/adapter/storage"
	"hr-analytics/internal/common"
	"hr-analytics/internal/config"
	"hr-analytics/internal/domain"
	"hr-analytics/internal/logger"
	"hr-analytics/internal/port"
	"hr-analytics/internal/server"
	"hr-analytics/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// 发布时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

type rootOptions struct {
	cfgFile string
	debug   bool
	json    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "简历投递与 AI 评分服务",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "配置文件路径 (默认 ./hr-analytics.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "输出 debug 日志")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "JSON 格式日志")

	root.AddCommand(
		newServeCmd(opts),
		newScoreCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, version)
		},
	}
}

// loadConfig 读取配置，命令行的 --debug / --json 覆盖配置文件
func loadConfig(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.New(), opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if opts.debug {
		cfg.Log.Debug = true
	}
	if opts.json {
		cfg.Log.JSON = true
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, log, nil
}

// newScorer 组装评分链路：GitHub → 作品集 → Gemini
// 返回的 cleanup 负责关闭 Gemini 客户端
func newScorer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*service.ScoringService, func(), error) {
	fetcher, err := github.NewFetcher(github.Config{
		Token:      cfg.GitHub.Token,
		BaseURL:    cfg.GitHub.BaseURL,
		Timeout:    cfg.GitHub.Timeout,
		MaxRetries: cfg.GitHub.MaxRetries,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.GitHub.Token == "" {
		log.Warn("⚠️ 未配置 GitHub Token，匿名访问限额为 60 次/小时")
	}

	agent, err := gemini.NewAgent(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := agent.Close(); err != nil {
			log.Warn("⚠️ 关闭 Gemini 客户端失败", zap.Error(err))
		}
	}

	portfolio := service.NewPortfolioService(fetcher, cfg.GitHub.Workers, log)
	return service.NewScoringService(portfolio, agent, cfg.Scoring.Timeout, log), cleanup, nil
}

// newBlobStore 按配置选择 GCS 或本地目录
func newBlobStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (port.BlobStore, error) {
	switch cfg.Backend {
	case "gcs":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return storage.NewGCSStore(ctx, storage.GCSConfig{
			Bucket:        cfg.Bucket,
			PublicBaseURL: cfg.PublicBaseURL,
			MaxRetries:    cfg.MaxRetries,
		}, log, opts...)
	case "local":
		log.Info("📁 简历保存在本地目录", zap.String("dir", cfg.Dir))
		return storage.NewLocalStore(cfg.Dir, cfg.PublicBaseURL)
	default:
		return nil, common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("未知的存储后端: %s", cfg.Backend))
	}
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Database.DSN == "" {
				return common.NewError(common.ErrCodeInvalidInput, "未配置数据库 (database.dsn / DATABASE_URL)")
			}
			repo, err := repository.NewPostgresRepo(cfg.Database.DSN)
			if err != nil {
				return err
			}
			log.Info("🗄️ 数据库连接成功")

			scorer, cleanup, err := newScorer(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			store, err := newBlobStore(ctx, cfg.Storage, log)
			if err != nil {
				return err
			}

			// notifier 必须保持接口零值，不能塞进一个 nil 指针
			var notifier port.Notifier
			if cfg.Feishu.Webhook != "" {
				notifier = feishu.NewNotifier(cfg.Feishu.Webhook, log,
					feishu.WithRetry(cfg.Feishu.MaxRetries, feishu.DefaultRetryDelay))
			} else {
				log.Info("🔕 未配置飞书 Webhook，高分候选人不会推送")
			}

			intake := service.NewIntakeService(pdf.NewExtractor(), store, scorer, repo, notifier, service.IntakeConfig{
				DefaultJobDescription: cfg.Scoring.DefaultJobDescription,
				MinTotalScore:         cfg.Feishu.MinTotalScore,
			}, log)

			srv := server.New(server.Config{
				Port:                  cfg.Server.Port,
				MaxUploadBytes:        cfg.Server.MaxUploadBytes,
				DefaultJobDescription: cfg.Scoring.DefaultJobDescription,
			}, intake, scorer, log)
			return srv.Start(ctx)
		},
	}
}

type scoreOptions struct {
	resume  string
	jobFile string
	links   []string
}

// newScoreCmd 离线评分一份 PDF，不上传不入库，方便调 Prompt
func newScoreCmd(opts *rootOptions) *cobra.Command {
	so := &scoreOptions{}
	cmd := &cobra.Command{
		Use:   "score",
		Short: "对本地 PDF 简历评分并输出 JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx := cmd.Context()
			resume, err := extractResume(ctx, so.resume)
			if err != nil {
				return err
			}

			jobDescription := cfg.Scoring.DefaultJobDescription
			if so.jobFile != "" {
				raw, err := os.ReadFile(so.jobFile)
				if err != nil {
					return common.WrapError(common.ErrCodeInvalidInput, "读取岗位描述失败", err)
				}
				jobDescription = strings.TrimSpace(string(raw))
			}

			links := mergeLinks(resume.Links, so.links)
			log.Debug("📄 简历解析完成",
				zap.Int("pages", resume.Pages),
				zap.Int("text_length", len(resume.Text)),
				zap.Strings("links", links))

			scorer, cleanup, err := newScorer(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			res, scoreErr := scorer.Score(ctx, resume.Text, jobDescription, links)
			if err := writeScore(cmd.OutOrStdout(), res, links, scoreErr); err != nil {
				return err
			}
			return scoreErr
		},
	}
	cmd.Flags().StringVarP(&so.resume, "resume", "r", "", "PDF 简历路径")
	cmd.Flags().StringVarP(&so.jobFile, "job", "j", "", "岗位描述文本文件 (可选)")
	cmd.Flags().StringSliceVar(&so.links, "links", nil, "额外的 GitHub 链接，逗号分隔")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func extractResume(ctx context.Context, path string) (*port.ExtractedResume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, "打开简历失败", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, common.WrapError(common.ErrCodeInvalidInput, "读取简历失败", err)
	}
	return pdf.NewExtractor().Extract(ctx, f, info.Size())
}

// mergeLinks 简历里的链接原样保留 (重复也保留)，命令行补充的链接只追加简历里没有的
func mergeLinks(fromResume, extra []string) []string {
	seen := make(map[string]bool, len(fromResume))
	out := make([]string, 0, len(fromResume)+len(extra))
	for _, l := range fromResume {
		seen[l] = true
		out = append(out, l)
	}
	for _, l := range extra {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

type scoreOutput struct {
	Scores      domain.ScoreResult `json:"scores"`
	Links       []string           `json:"links"`
	ScoreStatus domain.ScoreStatus `json:"score_status"`
	ScoreError  string             `json:"score_error,omitempty"`
}

func writeScore(w io.Writer, scores domain.ScoreResult, links []string, scoreErr error) error {
	out := scoreOutput{Scores: scores, Links: links, ScoreStatus: domain.ScoreStatusScored}
	if scoreErr != nil {
		out.ScoreStatus = domain.ScoreStatusFailed
		out.ScoreError = scoreErr.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
