package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"

	"go.uber.org/zap"
)

// DefaultRetryDelay 推送失败后的初始退避时间
const DefaultRetryDelay = 500 * time.Millisecond

// Notifier 把高分候选人以卡片形式推送到飞书群，实现了 port.Notifier 接口
type Notifier struct {
	webhookURL   string
	client       *http.Client
	maxRetries   int
	initialDelay time.Duration
	logger       *zap.Logger
}

// Option Notifier 的可选配置
type Option func(*Notifier)

// WithHTTPClient 替换默认的 http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithRetry 设置重试次数和初始退避时间
func WithRetry(maxRetries int, initialDelay time.Duration) Option {
	return func(n *Notifier) {
		n.maxRetries = maxRetries
		n.initialDelay = initialDelay
	}
}

func NewNotifier(webhook string, logger *zap.Logger, opts ...Option) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if webhook == "" {
		logger.Warn("⚠️ 警告: 飞书 Webhook 为空，推送功能将无法工作！")
	}
	n := &Notifier{
		webhookURL:   webhook,
		client:       &http.Client{Timeout: 10 * time.Second},
		maxRetries:   3,
		initialDelay: DefaultRetryDelay,
		logger:       logger.With(zap.String("component", "feishu")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify 发送飞书卡片消息 (Schema 2.0)
func (n *Notifier) Notify(ctx context.Context, c *domain.Candidate) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeNotification, "Webhook URL 为空")
	}
	if c == nil {
		return common.NewError(common.ErrCodeInvalidInput, "候选人为空")
	}

	body, err := json.Marshal(buildCard(c))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "构造卡片失败", err)
	}

	// 发送请求 (带重试机制)
	err = common.Do(ctx, func() error {
		return n.post(ctx, body)
	},
		common.WithMaxRetries(n.maxRetries),
		common.WithInitialDelay(n.initialDelay),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	n.logger.Info("📨 已推送候选人", zap.String("candidate", c.ID), zap.Float64("total", c.TotalScore))
	return nil
}

// feishuResponse 飞书 webhook 出错时仍可能返回 200，需要看 code
type feishuResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
	}

	var fr feishuResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err == nil && fr.Code != 0 {
		return fmt.Errorf("飞书 API 报错: code=%d msg=%s", fr.Code, fr.Msg)
	}
	return nil
}

func buildCard(c *domain.Candidate) map[string]interface{} {
	// 1. 准备标题
	title := fmt.Sprintf("🎯 高分候选人: %s", c.UserName)

	// 2. 构造 Markdown 内容
	mdContent := fmt.Sprintf(`**📧 邮箱:** %s  |  **岗位 ID:** %d  |  **投递日期:** %s
**🏆 总分:** %.0f/100

**📄 简历质量:** %.0f/20
**🧩 岗位匹配:** %.0f/60
**🐙 GitHub:** %.0f/20
`,
		c.UserEmail, c.JobID, c.CreatedAt.Format("2006-01-02"),
		c.TotalScore,
		c.ParameterScore,
		c.JobSimilarityScore,
		c.GitHubScore)

	elements := []map[string]interface{}{
		{
			"tag":       "markdown",
			"content":   mdContent,
			"text_size": "normal",
		},
	}
	if c.ResumeURL != "" {
		elements = append(elements, map[string]interface{}{
			"tag": "button",
			"text": map[string]interface{}{
				"tag":     "plain_text",
				"content": "📎 查看简历",
			},
			"type": "primary",
			"behaviors": []map[string]interface{}{
				{
					"type":        "open_url",
					"default_url": c.ResumeURL,
				},
			},
		})
	}

	// 3. 构造 Schema 2.0 JSON 结构
	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "green",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements":  elements,
			},
		},
	}
}
