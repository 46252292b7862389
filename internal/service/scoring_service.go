package service

import (
	"context"
	"fmt"
	"time"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"
	applog "hr-analytics/internal/logger"
	"hr-analytics/internal/port"

	"go.uber.org/zap"
)

const agentLogChars = 800

// ScoringService 实现了 port.Scorer 接口：作品集 → Prompt → Agent → 解析
type ScoringService struct {
	portfolio port.Portfolio
	agent     port.Agent
	timeout   time.Duration
	logger    *zap.Logger
}

// NewScoringService timeout <= 0 表示不额外设置超时
func NewScoringService(portfolio port.Portfolio, agent port.Agent, timeout time.Duration, logger *zap.Logger) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{
		portfolio: portfolio,
		agent:     agent,
		timeout:   timeout,
		logger:    logger.With(zap.String("component", "scoring")),
	}
}

// Score 给简历打分
// 流程中任何一步失败 (包括 panic) 都返回全 0 的结果和 SCORING_FAILED 错误，
// 只看分数的调用方拿到的仍是 0 分
func (s *ScoringService) Score(ctx context.Context, resumeText, jobDescription string, links []string) (result domain.ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("💥 评分流程 panic", zap.Any("panic", r))
			result = domain.ScoreResult{}
			err = common.NewError(common.ErrCodeScoringFailed, fmt.Sprintf("评分流程异常: %v", r))
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// 1. 整理作品集
	summary := s.portfolio.Aggregate(ctx, links)
	if summary.IsEmpty() {
		s.logger.Debug("📭 没有可用的 GitHub 作品集", zap.Int("links", len(links)))
	}

	// 2. 拼 Prompt
	prompt, err := BuildScoringPrompt(resumeText, jobDescription, summary)
	if err != nil {
		return s.fail("构造 Prompt 失败", err)
	}

	// 3. 调用 Agent
	text, err := s.agent.ScoreText(ctx, prompt)
	if err != nil {
		return s.fail("Agent 调用失败", err)
	}

	s.logger.Debug("🤖 Agent 输出", zap.String("text", applog.TruncateForLog(text, agentLogChars)))

	// 4. 解析
	parsed := ParseScores(text)
	if len(parsed.Unrecognized) > 0 {
		s.logger.Warn("⚠️ Agent 输出了约定之外的标签", zap.Strings("labels", parsed.Unrecognized))
	}
	for _, label := range []string{LabelImpact, LabelFormat, LabelLanguage, LabelSkills, LabelSimilarity, LabelGitHub} {
		if !parsed.Has(label) {
			s.logger.Warn("⚠️ Agent 输出缺少标签，按 0 分处理", zap.String("label", label))
		}
	}

	result = parsed.Result()
	s.logger.Info("✅ 评分完成",
		zap.Float64("parameter", result.ParameterScore),
		zap.Float64("similarity", result.JobSimilarityScore),
		zap.Float64("github", result.GitHubScore),
		zap.Float64("total", result.TotalScore))
	return result, nil
}

func (s *ScoringService) fail(msg string, cause error) (domain.ScoreResult, error) {
	s.logger.Error("❌ "+msg, zap.Error(cause))
	return domain.ScoreResult{}, common.WrapError(common.ErrCodeScoringFailed, msg, cause)
}
