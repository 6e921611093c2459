package api

import (
	"vc-readiness/internal/catalog"
	"vc-readiness/internal/evaluation"
)

type submissionRequest struct {
	StartupType     string                     `json:"startup_type"`
	FormData        catalog.Answers            `json:"form_data"`
	SessionMetadata evaluation.SessionMetadata `json:"session_metadata"`
}

type completionRequest struct {
	StartupType string          `json:"startup_type"`
	FormData    catalog.Answers `json:"form_data"`
}

type paymentIntentRequest struct {
	EvaluationID string `json:"evaluation_id"`
}

type unlockRequest struct {
	EvaluationID    string `json:"evaluation_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type successResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type catalogResponse struct {
	StartupType catalog.Stage     `json:"startup_type"`
	Sections    []catalog.Section `json:"sections"`
}
