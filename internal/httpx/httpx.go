// Package httpx writes JSON responses with a single error envelope.
package httpx

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"procurement/internal/apperr"
	"procurement/internal/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error renders err as an AppError. Internal causes are logged, never returned.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}
	JSON(w, appErr.StatusCode, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}
