package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hr-analytics/internal/domain"
	"hr-analytics/internal/port"
	"hr-analytics/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Intake 投递和后台管理用到的业务接口，*service.IntakeService 满足该接口
type Intake interface {
	Submit(ctx context.Context, sub service.Submission) (*service.SubmissionResult, error)
	ListCandidates(ctx context.Context, jobID int) ([]*domain.Candidate, error)
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
	Accept(ctx context.Context, id string) (*domain.Candidate, error)
	Reject(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]*domain.JobPosting, error)
	GetJob(ctx context.Context, jobID int) (*domain.JobPosting, error)
}

// Config HTTP 服务配置
type Config struct {
	Port           int
	MaxUploadBytes int64
	// /score 请求没带岗位描述时使用
	DefaultJobDescription string
}

// Server HTTP 服务
type Server struct {
	router   *chi.Mux
	cfg      Config
	intake   Intake
	scorer   port.Scorer
	validate *validator.Validate
	logger   *zap.Logger
}

// New 组装路由
func New(cfg Config, intake Intake, scorer port.Scorer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	s := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		intake:   intake,
		scorer:   scorer,
		validate: validator.New(),
		logger:   logger.With(zap.String("component", "http")),
	}
	s.routes()
	return s
}

// routes
//
//	GET    /                          健康检查
//	POST   /submit-resume             简历投递 (multipart)
//	POST   /score                     直接对文本评分 (JSON)
//	GET    /jobs                      岗位列表
//	GET    /jobs/{id}                 岗位详情
//	GET    /candidates                候选人列表，最新在前，?job_id= 过滤
//	GET    /candidates/{id}           候选人详情
//	POST   /candidates/{id}/accept    通过
//	DELETE /candidates/{id}           拒绝 (删除记录和简历文件)
func (s *Server) routes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(RequestLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/", s.handleRoot)
	s.router.Post("/submit-resume", s.handleSubmitResume)
	s.router.Post("/score", s.handleScore)

	s.router.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Get("/{id}", s.handleGetJob)
	})

	s.router.Route("/candidates", func(r chi.Router) {
		r.Get("/", s.handleListCandidates)
		r.Get("/{id}", s.handleGetCandidate)
		r.Post("/{id}/accept", s.handleAcceptCandidate)
		r.Delete("/{id}", s.handleRejectCandidate)
	})
}

// Handler 供测试和自定义 http.Server 使用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动 HTTP 服务，ctx 结束时优雅退出
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		// 评分要等 LLM，写超时放宽
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("🚀 HTTP 服务启动", zap.Int("port", s.cfg.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("🛑 收到退出信号，正在关闭 HTTP 服务")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("👋 HTTP 服务已关闭")
	}
	return nil
}
