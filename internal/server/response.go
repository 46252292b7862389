package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"hr-analytics/internal/common"

	"go.uber.org/zap"
)

// ErrorResponse 所有接口统一的错误格式
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("❌ 写入响应失败", zap.Error(err))
		}
	}
}

// statusFor 错误码 → HTTP 状态码
func statusFor(code string) int {
	switch code {
	case common.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case common.ErrCodeNotFound:
		return http.StatusNotFound
	case common.ErrCodePDF:
		return http.StatusUnprocessableEntity
	case common.ErrCodeStorage, common.ErrCodeGitHubAPI, common.ErrCodeAIProcessing,
		common.ErrCodeScoringFailed, common.ErrCodeNotification:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError 把业务错误翻译成 HTTP 响应
// 5xx 只返回通用信息，细节留在日志里
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		s.writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: "上传文件过大",
		})
		return
	}

	code := common.CodeOf(err)
	status := statusFor(code)
	message := "服务器内部错误"

	var appErr *common.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
		if code == common.ErrCodeInvalidInput && appErr.Err != nil {
			message += ": " + appErr.Err.Error()
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("❌ 请求处理失败", zap.String("code", code), zap.Error(err))
		if status == http.StatusBadGateway {
			message = "上游服务暂时不可用"
		}
	}

	s.writeJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(code),
		Message: message,
	})
}
