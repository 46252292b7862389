package domain

import (
	"fmt"
	"strings"
	"time"
)

// GitHubProfile 候选人 GitHub 主页的快照，只用于拼装评分 Prompt，不单独入库
type GitHubProfile struct {
	ProfileURL  string `json:"profile_url"`
	Name        string `json:"name"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`

	// 近期公开事件数（一页 events 的长度），不是真实的贡献总数
	Contributions int `json:"contributions"`

	// username/username 仓库里的 README，最多 500 字符
	ProfileReadme string `json:"profile_readme"`
}

// GitHubProject 候选人提交的单个仓库快照
type GitHubProject struct {
	RepoURL         string   `json:"repo_url"`
	Description     string   `json:"description"`
	Stars           int      `json:"stars"`
	Forks           int      `json:"forks"`
	PrimaryLanguage string   `json:"language"`
	Languages       []string `json:"languages"`
	Readme          string   `json:"readme"`
}

// PortfolioSummary 按输入链接顺序聚合的 GitHub 作品集
type PortfolioSummary struct {
	Profiles []GitHubProfile `json:"profiles"`
	Projects []GitHubProject `json:"projects"`
}

// NewPortfolioSummary 返回空的作品集（切片非 nil，序列化为 []）
func NewPortfolioSummary() PortfolioSummary {
	return PortfolioSummary{
		Profiles: []GitHubProfile{},
		Projects: []GitHubProject{},
	}
}

// IsEmpty 没有任何可用的 GitHub 数据
func (p PortfolioSummary) IsEmpty() bool {
	return len(p.Profiles) == 0 && len(p.Projects) == 0
}

// ScoreResult 简历评分结果，JSON 字段名与前端保持一致
type ScoreResult struct {
	// 简历本身质量 (0-20)：IMPACT + FORMAT + LANGUAGE + SKILLS
	ParameterScore float64 `json:"Parameter Score"`

	// 与岗位的匹配度 (0-60)
	JobSimilarityScore float64 `json:"Job Similarity Score"`

	// GitHub 作品集 (0-20)
	GitHubScore float64 `json:"GitHub Score"`

	// 总分 (0-100)，AI 给了 TOTAL 就用 AI 的，否则为前三项之和
	TotalScore float64 `json:"Total Score"`
}

// SubTotal 三个分项之和
func (s ScoreResult) SubTotal() float64 {
	return s.ParameterScore + s.JobSimilarityScore + s.GitHubScore
}

// ScoreStatus 区分“评了 0 分”和“评分流程挂了”
type ScoreStatus string

const (
	ScoreStatusScored ScoreStatus = "scored"
	ScoreStatusFailed ScoreStatus = "failed"
)

// CandidateStatus HR 对候选人的处理状态
type CandidateStatus string

const (
	CandidateStatusPending  CandidateStatus = "pending"
	CandidateStatusAccepted CandidateStatus = "accepted"
	CandidateStatusRejected CandidateStatus = "rejected"
)

// JobPosting 岗位信息 (对应 job_details 表)
type JobPosting struct {
	JobID                  int    `json:"job_id" gorm:"primaryKey;column:job_id"`
	JobTitle               string `json:"job_title"`
	JobDetails             string `json:"job_details" gorm:"type:text"`
	SkillsRequirement      string `json:"skills_requirement" gorm:"type:text"`
	EducationRequirement   string `json:"education_requirement" gorm:"type:text"`
	ExperienceRequirement  string `json:"experience_requirement" gorm:"type:text"`
	AdditionalRequirements string `json:"additional_requirements,omitempty" gorm:"type:text"`
}

// TableName 沿用原有的表名
func (JobPosting) TableName() string {
	return "job_details"
}

// Description 拼出喂给评分 Prompt 的岗位描述
func (j *JobPosting) Description() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job Title: %s\n", j.JobTitle)
	if j.JobDetails != "" {
		fmt.Fprintf(&b, "Details: %s\n", j.JobDetails)
	}
	if j.SkillsRequirement != "" {
		fmt.Fprintf(&b, "Required Skills: %s\n", j.SkillsRequirement)
	}
	if j.ExperienceRequirement != "" {
		fmt.Fprintf(&b, "Experience: %s\n", j.ExperienceRequirement)
	}
	if j.EducationRequirement != "" {
		fmt.Fprintf(&b, "Education: %s\n", j.EducationRequirement)
	}
	if j.AdditionalRequirements != "" {
		fmt.Fprintf(&b, "Additional Requirements: %s\n", j.AdditionalRequirements)
	}
	return strings.TrimSpace(b.String())
}

// Candidate 一次投递 (对应 candidates 表)
type Candidate struct {
	ID        string `json:"id" gorm:"primaryKey"`
	JobID     int    `json:"job_id" gorm:"index"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`

	// 原始 PDF 在对象存储里的地址
	ResumeURL    string `json:"resume_url"`
	ResumeObject string `json:"-"`

	// --- AI 评分 ---
	ParameterScore     float64     `json:"parameter_score"`
	JobSimilarityScore float64     `json:"job_similarity_score"`
	GitHubScore        float64     `json:"github_score"`
	TotalScore         float64     `json:"total_score"`
	ScoreStatus        ScoreStatus `json:"score_status"`
	ScoreError         string      `json:"score_error,omitempty" gorm:"type:text"`

	Status          CandidateStatus `json:"status" gorm:"default:pending"`
	AlreadyNotified bool            `json:"already_notified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ApplyScore 回填评分结果
func (c *Candidate) ApplyScore(res ScoreResult, scoringErr error) {
	c.ParameterScore = res.ParameterScore
	c.JobSimilarityScore = res.JobSimilarityScore
	c.GitHubScore = res.GitHubScore
	c.TotalScore = res.TotalScore
	c.ScoreStatus = ScoreStatusScored
	c.ScoreError = ""
	if scoringErr != nil {
		c.ScoreStatus = ScoreStatusFailed
		c.ScoreError = scoringErr.Error()
	}
}

// Scores 取出评分部分
func (c *Candidate) Scores() ScoreResult {
	return ScoreResult{
		ParameterScore:     c.ParameterScore,
		JobSimilarityScore: c.JobSimilarityScore,
		GitHubScore:        c.GitHubScore,
		TotalScore:         c.TotalScore,
	}
}

// IsShortlisted 判断是否值得推送给 HR
func (c *Candidate) IsShortlisted(minTotal float64) bool {
	return c.ScoreStatus == ScoreStatusScored && c.TotalScore >= minTotal
}
