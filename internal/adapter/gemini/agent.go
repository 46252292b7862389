package gemini

import (
	"context"
	"fmt"
	"strings"

	"hr-analytics/internal/common"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.5-flash-lite"

	systemPrompt = "You are a professional resume scorer. Follow the requested output format exactly."
)

// generator 抽出来方便测试，*genai.GenerativeModel 满足该接口
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Agent 实现了 port.Agent 接口
type Agent struct {
	client *genai.Client
	model  generator
	logger *zap.Logger
}

// NewAgent 初始化 Gemini 客户端
func NewAgent(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Agent, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeInvalidInput, "Gemini API Key 为空")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "创建 Gemini 客户端失败", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	// 评分要稳定，温度调低
	model.SetTemperature(0.2)

	return &Agent{
		client: client,
		model:  model,
		logger: logger.With(zap.String("component", "gemini"), zap.String("model", modelName)),
	}, nil
}

// Close 释放底层连接
func (a *Agent) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// ScoreText 把 Prompt 交给 Gemini，返回原始文本 (不做解析)
func (a *Agent) ScoreText(ctx context.Context, prompt string) (string, error) {
	resp, err := a.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	if resp.UsageMetadata != nil {
		a.logger.Debug("LLM API call",
			zap.Int32("input_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}

	text, err := responseText(resp)
	if err != nil {
		return "", common.WrapError(common.ErrCodeAIProcessing, "AI 返回内容不可用", err)
	}
	return text, nil
}

// responseText 拼接第一个候选回复里的所有文本片段
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("AI 返回内容为空")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("AI 返回内容为空 (finish reason: %v)", candidate.FinishReason)
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("AI 返回格式错误: 没有文本内容")
	}
	return b.String(), nil
}
