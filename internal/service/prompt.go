package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"hr-analytics/internal/domain"
)

const scoringRubric = `You are a professional resume scorer. Score in three parts:

PART 1: RESUME PARAMETERS (20 points total)
Score each parameter from 0-5:
1. Impact: Measurable achievements and results
2. Format: Clear structure and professional presentation
3. Language: Grammar, spelling, and professional writing
4. Skills: Demonstrated technical and soft skills

PART 2: JOB SIMILARITY (60 points total)
Compare resume with job requirements:
- Required Skills Match (30 points)
- Experience Level Match (15 points)
- Education Match (15 points)

PART 3: GITHUB PROJECTS (20 points total)
Evaluate GitHub portfolio:
- Project Relevance (8 points)
- Technical Complexity (6 points)
- Code Quality (6 points)
If the portfolio is empty, GITHUB is 0.`

const outputFormat = `Provide scores in this format only, one per line, no other text:
IMPACT: <0-5>
FORMAT: <0-5>
LANGUAGE: <0-5>
SKILLS: <0-5>
SIMILARITY: <0-60>
GITHUB: <0-20>
TOTAL: <sum>`

// BuildScoringPrompt 拼装评分 Prompt：评分规则 + 岗位描述 + 简历 + 作品集 (JSON) + 输出格式
func BuildScoringPrompt(resumeText, jobDescription string, portfolio domain.PortfolioSummary) (string, error) {
	portfolioJSON, err := json.MarshalIndent(portfolio, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化作品集失败: %w", err)
	}

	var b strings.Builder
	b.WriteString(scoringRubric)
	b.WriteString("\n\nJob Description:\n")
	b.WriteString(strings.TrimSpace(jobDescription))
	b.WriteString("\n\nResume:\n")
	b.WriteString(strings.TrimSpace(resumeText))
	b.WriteString("\n\nGitHub Portfolio:\n")
	b.Write(portfolioJSON)
	b.WriteString("\n\n")
	b.WriteString(outputFormat)
	return b.String(), nil
}
