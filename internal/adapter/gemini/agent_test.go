package gemini

import (
	"context"
	"errors"
	"testing"

	"hr-analytics/internal/common"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if text, ok := parts[0].(genai.Text); ok {
			f.prompt = string(text)
		}
	}
	return f.resp, f.err
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
		UsageMetadata: &genai.UsageMetadata{PromptTokenCount: 100, CandidatesTokenCount: 20},
	}
}

func TestAgent_ScoreText(t *testing.T) {
	tests := []struct {
		name        string
		gen         *fakeGenerator
		want        string
		expectError bool
	}{
		{
			name: "正常返回",
			gen:  &fakeGenerator{resp: textResponse(genai.Text("IMPACT: 4\nTOTAL: 70"))},
			want: "IMPACT: 4\nTOTAL: 70",
		},
		{
			name: "多段文本拼接",
			gen:  &fakeGenerator{resp: textResponse(genai.Text("IMPACT: 4\n"), genai.Text("TOTAL: 70"))},
			want: "IMPACT: 4\nTOTAL: 70",
		},
		{
			name:        "调用失败",
			gen:         &fakeGenerator{err: errors.New("quota exceeded")},
			expectError: true,
		},
		{
			name:        "没有候选回复",
			gen:         &fakeGenerator{resp: &genai.GenerateContentResponse{}},
			expectError: true,
		},
		{
			name: "候选回复没有内容",
			gen: &fakeGenerator{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			expectError: true,
		},
		{
			name:        "非文本内容",
			gen:         &fakeGenerator{resp: textResponse(genai.Blob{MIMEType: "image/png", Data: []byte{1}})},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agent := &Agent{model: tt.gen, logger: zap.NewNop()}

			got, err := agent.ScoreText(context.Background(), "score this")

			assert.Equal(t, "score this", tt.gen.prompt)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, common.HasCode(err, common.ErrCodeAIProcessing))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAgent_RequiresAPIKey(t *testing.T) {
	agent, err := NewAgent(context.Background(), "", "", nil)
	assert.Nil(t, agent)
	assert.True(t, common.HasCode(err, common.ErrCodeInvalidInput))
}

func TestAgent_CloseWithoutClient(t *testing.T) {
	assert.NoError(t, (&Agent{}).Close())
}
