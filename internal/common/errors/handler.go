package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// Converter is implemented by domain errors that know their StandardError form.
type Converter interface {
	ToStandardError() *StandardError
}

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorHandler turns service errors into logged, structured HTTP responses.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	Success          bool           `json:"success"`
	Error            *StandardError `json:"error"`
	ValidationErrors []string       `json:"validation_errors,omitempty"`
	AntiGamingFlags  []string       `json:"anti_gaming_flags,omitempty"`
}

// WriteError normalises err, logs it and writes the response.
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	resp := ErrorResponse{Success: false, Error: stdErr}
	if v, ok := stdErr.Metadata["validationErrors"].([]string); ok {
		resp.ValidationErrors = v
	}
	if v, ok := stdErr.Metadata["antiGamingFlags"].([]string); ok {
		resp.AntiGamingFlags = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if conv, ok := err.(Converter); ok {
		return conv.ToStandardError()
	}
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
