package service

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"hr-analytics/internal/domain"
)

// Agent 必须输出的评分标签
const (
	LabelImpact     = "IMPACT"
	LabelFormat     = "FORMAT"
	LabelLanguage   = "LANGUAGE"
	LabelSkills     = "SKILLS"
	LabelSimilarity = "SIMILARITY"
	LabelGitHub     = "GITHUB"
	LabelTotal      = "TOTAL"
)

var knownLabels = map[string]bool{
	LabelImpact:     true,
	LabelFormat:     true,
	LabelLanguage:   true,
	LabelSkills:     true,
	LabelSimilarity: true,
	LabelGitHub:     true,
	LabelTotal:      true,
}

// ParsedScores Agent 输出解析后的标签 → 分数
type ParsedScores struct {
	Values map[string]int
	// 出现了但不在约定列表里的标签，按出现顺序
	Unrecognized []string
}

// ParseScores 解析 "LABEL: number" 格式的文本
//   - 按行切分，只处理含冒号的行，按第一个冒号分成标签和值
//   - 值里只保留数字字符拼起来再转 int ("~15 points" → 15)，没有数字或溢出记 0
//   - 同一标签出现多次，以最后一次为准
//
// 如果整段文本是一个 JSON 对象，直接当作已经结构化的结果
func ParseScores(text string) ParsedScores {
	if values, ok := parseStructured(text); ok {
		return newParsedScores(values)
	}

	values := make(map[string]int)
	order := make([]string, 0)
	for _, line := range strings.Split(text, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = digitsOnly(line[idx+1:])
	}

	p := ParsedScores{Values: values}
	for _, key := range order {
		if !knownLabels[key] {
			p.Unrecognized = append(p.Unrecognized, key)
		}
	}
	return p
}

// Has 标签是否出现过
func (p ParsedScores) Has(label string) bool {
	_, ok := p.Values[label]
	return ok
}

// Result 汇总成四项得分，TOTAL 缺失时取前三项之和
func (p ParsedScores) Result() domain.ScoreResult {
	v := p.Values
	res := domain.ScoreResult{
		ParameterScore:     float64(v[LabelImpact] + v[LabelFormat] + v[LabelLanguage] + v[LabelSkills]),
		JobSimilarityScore: float64(v[LabelSimilarity]),
		GitHubScore:        float64(v[LabelGitHub]),
	}
	if p.Has(LabelTotal) {
		res.TotalScore = float64(v[LabelTotal])
	} else {
		res.TotalScore = res.SubTotal()
	}
	return res
}

func digitsOnly(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

// parseStructured 兼容 Agent 直接返回 {"IMPACT": 4, ...} 的情况
func parseStructured(text string) (map[string]int, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, false
	}

	values := make(map[string]int, len(raw))
	for key, val := range raw {
		switch x := val.(type) {
		case float64:
			if math.IsNaN(x) || x < math.MinInt32 || x > math.MaxInt32 {
				values[key] = 0
			} else {
				values[key] = int(x)
			}
		case string:
			values[key] = digitsOnly(x)
		default:
			values[key] = 0
		}
	}
	return values, true
}

func newParsedScores(values map[string]int) ParsedScores {
	p := ParsedScores{Values: values}
	for key := range values {
		if !knownLabels[key] {
			p.Unrecognized = append(p.Unrecognized, key)
		}
	}
	// map 无序，排个序方便日志和测试
	sort.Strings(p.Unrecognized)
	return p
}
