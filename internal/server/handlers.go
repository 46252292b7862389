package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hr-analytics/internal/common"
	"hr-analytics/internal/domain"
	"hr-analytics/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const rootMessage = "HR Analytics API is running!"

type messageResponse struct {
	Message string `json:"message"`
}

// scoreResponse 四项分数 + 评分状态
type scoreResponse struct {
	domain.ScoreResult
	ScoreStatus domain.ScoreStatus `json:"score_status"`
	ScoreError  string             `json:"score_error,omitempty"`
}

func newScoreResponse(res domain.ScoreResult, err error) scoreResponse {
	resp := scoreResponse{ScoreResult: res, ScoreStatus: domain.ScoreStatusScored}
	if err != nil {
		resp.ScoreStatus = domain.ScoreStatusFailed
		resp.ScoreError = err.Error()
	}
	return resp
}

type submitResponse struct {
	CandidateID         string             `json:"candidate_id"`
	Name                string             `json:"name"`
	Email               string             `json:"email"`
	JobID               int                `json:"job_id,omitempty"`
	ResumeURL           string             `json:"resume_url"`
	Links               []string           `json:"links"`
	ExtractedTextLength int                `json:"extracted_text_length"`
	Scores              domain.ScoreResult `json:"scores"`
	ScoreStatus         string             `json:"score_status"`
	ScoreError          string             `json:"score_error,omitempty"`
	Message             string             `json:"message"`
}

// scoreRequest POST /score
type scoreRequest struct {
	ResumeText     string   `json:"resume_text" validate:"required"`
	JobDescription string   `json:"job_description"`
	Links          []string `json:"links" validate:"max=50"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: rootMessage})
}

// handleSubmitResume multipart 字段：name, email, resume (PDF), jobId (可选)
func (s *Server) handleSubmitResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.writeError(w, err)
			return
		}
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "表单解析失败", err))
		return
	}

	jobID, err := optionalInt(r.FormValue("jobId"))
	if err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "jobId 必须是整数", err))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "缺少简历文件", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "读取简历文件失败", err))
		return
	}

	res, err := s.intake.Submit(r.Context(), service.Submission{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		JobID:    jobID,
		FileName: header.Filename,
		Resume:   data,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	c := res.Candidate
	scores := newScoreResponse(c.Scores(), res.ScoreErr)
	links := res.Links
	if links == nil {
		links = []string{}
	}
	s.writeJSON(w, http.StatusOK, submitResponse{
		CandidateID:         c.ID,
		Name:                c.UserName,
		Email:               c.UserEmail,
		JobID:               c.JobID,
		ResumeURL:           c.ResumeURL,
		Links:               links,
		ExtractedTextLength: res.ExtractedTextLength,
		Scores:              scores.ScoreResult,
		ScoreStatus:         string(scores.ScoreStatus),
		ScoreError:          scores.ScoreError,
		Message:             "Resume processed successfully",
	})
}

// handleScore 只评分，不上传不入库；评分失败仍返回 200 和全 0 分数
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "请求体不是合法的 JSON", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "请求参数不合法", err))
		return
	}

	jobDescription := req.JobDescription
	if strings.TrimSpace(jobDescription) == "" {
		jobDescription = s.cfg.DefaultJobDescription
	}

	res, err := s.scorer.Score(r.Context(), req.ResumeText, jobDescription, req.Links)
	if err != nil {
		s.logger.Warn("⚠️ 评分失败，返回 0 分", zap.Error(err))
	}
	s.writeJSON(w, http.StatusOK, newScoreResponse(res, err))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.intake.ListJobs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.JobPosting{}
	}
	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "岗位 ID 必须是整数", err))
		return
	}
	job, err := s.intake.GetJob(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	jobID, err := optionalInt(r.URL.Query().Get("job_id"))
	if err != nil {
		s.writeError(w, common.WrapError(common.ErrCodeInvalidInput, "job_id 必须是整数", err))
		return
	}
	candidates, err := s.intake.ListCandidates(r.Context(), jobID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if candidates == nil {
		candidates = []*domain.Candidate{}
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.intake.GetCandidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAcceptCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.intake.Accept(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRejectCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.intake.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Candidate rejected"})
}
