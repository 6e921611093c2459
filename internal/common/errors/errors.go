// Package errors provides the structured error type shared by the scoring
// services and the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeAntiGamingRejected ErrorCode = "ANTI_GAMING_REJECTED"

	ErrCodeCatalogInvalid ErrorCode = "CATALOG_INVALID"

	ErrCodeEvaluationNotFound    ErrorCode = "EVALUATION_NOT_FOUND"
	ErrCodeEvaluationStoreFailed ErrorCode = "EVALUATION_STORE_FAILED"
	ErrCodeRateLimitStoreFailed  ErrorCode = "RATE_LIMIT_STORE_FAILED"

	ErrCodePaymentVerificationFailed ErrorCode = "PAYMENT_VERIFICATION_FAILED"
	ErrCodePaymentProviderFailed     ErrorCode = "PAYMENT_PROVIDER_FAILED"
	ErrCodePremiumAlreadyUnlocked    ErrorCode = "PREMIUM_ALREADY_UNLOCKED"

	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a metadata entry and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// As unwraps err into a *StandardError when one is present in the chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidRequestError creates a non-retryable client input error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError reports missing or malformed answers.
func NewValidationFailedError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   strings.Join(missing, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"validationErrors": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewAntiGamingRejectedError reports anti-gaming flags.
func NewAntiGamingRejectedError(flags []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAntiGamingRejected,
		Message:   "Submission rejected",
		Details:   strings.Join(flags, " "),
		Retryable: false,
		Metadata:  map[string]interface{}{"antiGamingFlags": flags},
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogInvalidError is the fatal configuration error raised at catalog load.
func NewCatalogInvalidError(problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogInvalid,
		Message:   "Question catalog is invalid",
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"problems": problems},
		Timestamp: time.Now().UTC(),
	}
}

// NewEvaluationNotFoundError creates a non-retryable lookup error.
func NewEvaluationNotFoundError(evaluationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvaluationNotFound,
		Message:   "Evaluation not found",
		Details:   fmt.Sprintf("evaluation id: %s", evaluationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEvaluationStoreFailedError wraps a persistence failure.
func NewEvaluationStoreFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEvaluationStoreFailed,
		Message:   fmt.Sprintf("Evaluation store %s failed", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRateLimitStoreFailedError wraps a rate-limit store failure.
func NewRateLimitStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimitStoreFailed,
		Message:   "Rate limit store unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentVerificationFailedError is returned when a payment did not succeed.
func NewPaymentVerificationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentVerificationFailed,
		Message:   "Payment verification failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPaymentProviderFailedError wraps a transport failure of the payment provider.
func NewPaymentProviderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePaymentProviderFailed,
		Message:   "Payment provider error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPremiumAlreadyUnlockedError creates a non-retryable conflict error.
func NewPremiumAlreadyUnlockedError(evaluationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodePremiumAlreadyUnlocked,
		Message:   "Premium analysis already unlocked",
		Details:   fmt.Sprintf("evaluation id: %s", evaluationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationFailedError wraps a notification channel failure.
func NewNotificationFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationFailed,
		Message:   fmt.Sprintf("Failed to send %s notification", channel),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

var httpStatusByCode = map[ErrorCode]int{
	ErrCodeInvalidRequest:            http.StatusBadRequest,
	ErrCodeValidationFailed:          http.StatusBadRequest,
	ErrCodeAntiGamingRejected:        http.StatusBadRequest,
	ErrCodeCatalogInvalid:            http.StatusInternalServerError,
	ErrCodeEvaluationNotFound:        http.StatusNotFound,
	ErrCodeEvaluationStoreFailed:     http.StatusServiceUnavailable,
	ErrCodeRateLimitStoreFailed:      http.StatusServiceUnavailable,
	ErrCodePaymentVerificationFailed: http.StatusBadRequest,
	ErrCodePaymentProviderFailed:     http.StatusBadGateway,
	ErrCodePremiumAlreadyUnlocked:    http.StatusConflict,
	ErrCodeNotificationFailed:        http.StatusInternalServerError,
	ErrCodeInternal:                  http.StatusInternalServerError,
}

// HTTPStatus maps an error code to the status the HTTP boundary responds with.
func HTTPStatus(code ErrorCode) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryableErrorCode reports whether the caller may retry after this code.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeEvaluationStoreFailed, ErrCodeRateLimitStoreFailed,
		ErrCodePaymentProviderFailed, ErrCodeNotificationFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidRequest, ErrCodeValidationFailed:
		return "client"
	case ErrCodeAntiGamingRejected:
		return "anti_gaming"
	case ErrCodeCatalogInvalid:
		return "configuration"
	case ErrCodeEvaluationNotFound, ErrCodePremiumAlreadyUnlocked, ErrCodePaymentVerificationFailed:
		return "business_rule"
	case ErrCodeEvaluationStoreFailed, ErrCodeRateLimitStoreFailed:
		return "storage"
	case ErrCodePaymentProviderFailed, ErrCodeNotificationFailed:
		return "external_service"
	default:
		return "internal"
	}
}
