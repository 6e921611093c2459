// Package notify publishes evaluation events to SNS and email recipients.
package notify

import (
	"context"
	"time"
)

const (
	EventEvaluationCompleted = "evaluation.completed"
	EventPremiumUnlocked     = "premium.unlocked"
)

// Event is one evaluation lifecycle event.
type Event struct {
	Type         string    `json:"type"`
	EvaluationID string    `json:"evaluation_id"`
	Stage        string    `json:"stage"`
	TotalScore   float64   `json:"total_score"`
	Verdict      string    `json:"verdict"`
	Category     string    `json:"category"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier delivers events. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

var templates = map[string]map[string]string{
	EventEvaluationCompleted: {
		"subject": "VC readiness evaluation {{evaluationId}} completed",
		"body":    "A {{stage}} startup scored {{totalScore}}/100 ({{verdict}}). Evaluation id: {{evaluationId}}.",
	},
	EventPremiumUnlocked: {
		"subject": "Premium analysis unlocked for {{evaluationId}}",
		"body":    "The premium analysis for evaluation {{evaluationId}} ({{totalScore}}/100, {{verdict}}) was unlocked.",
	},
}
