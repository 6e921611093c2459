// Package evaluation orchestrates a submission through validation, the
// anti-gaming guard and scoring, and persists the scored record.
package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"vc-readiness/internal/catalog"
	"vc-readiness/internal/report"
	"vc-readiness/internal/scoring"
)

// SessionMetadata is the client session data sent with a submission.
type SessionMetadata struct {
	StartTime int64  `json:"start_time"` // ms since epoch
	CSRFToken string `json:"csrf_token"`
	UserID    string `json:"user_uuid"`
}

// UnmarshalJSON accepts any JSON number for start_time, including fractional
// and exponent forms such as 1.7e12, and truncates it to whole milliseconds.
func (m *SessionMetadata) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartTime *float64 `json:"start_time"`
		CSRFToken string   `json:"csrf_token"`
		UserID    string   `json:"user_uuid"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = SessionMetadata{CSRFToken: raw.CSRFToken, UserID: raw.UserID}
	if raw.StartTime != nil {
		st := math.Trunc(*raw.StartTime)
		if st < math.MinInt64 || st >= math.MaxInt64 {
			return fmt.Errorf("start_time %v is out of range", *raw.StartTime)
		}
		m.StartTime = int64(st)
	}
	return nil
}

// Request is one submission.
type Request struct {
	Stage   catalog.Stage
	Answers catalog.Answers
	Session SessionMetadata
	// ClientKey identifies the submitter for rate limiting.
	ClientKey string
	// Origin is the network address the request arrived from.
	Origin string
}

// Result is what a successful evaluation returns to the caller.
type Result struct {
	EvaluationID     string             `json:"evaluation_id"`
	TotalScore       float64            `json:"total_score"`
	SectionScores    map[string]float64 `json:"section_scores"`
	Verdict          scoring.Verdict    `json:"verdict"`
	ExecutiveSummary string             `json:"executive_summary"`
	Completion       scoring.Completion `json:"completion"`
	PremiumLocked    bool               `json:"premium_locked"`
}

// Record is a stored evaluation.
type Record struct {
	ID               string                  `json:"evaluation_id"`
	ClientKey        string                  `json:"-"`
	Stage            catalog.Stage           `json:"startup_type"`
	Answers          catalog.Answers         `json:"form_data,omitempty"`
	TotalScore       float64                 `json:"total_score"`
	Sections         []scoring.SectionScore  `json:"sections"`
	Verdict          scoring.Verdict         `json:"verdict"`
	Completion       scoring.Completion      `json:"completion"`
	ExecutiveSummary string                  `json:"executive_summary"`
	PremiumUnlocked  bool                    `json:"premium_unlocked"`
	DeepAnalysis     string                  `json:"deep_analysis,omitempty"`
	Recommendations  *report.Recommendations `json:"recommendations,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UnlockedAt       *time.Time              `json:"unlocked_at,omitempty"`
}

// SectionScores returns section id -> score.
func (r *Record) SectionScores() map[string]float64 {
	out := make(map[string]float64, len(r.Sections))
	for _, s := range r.Sections {
		out[s.SectionID] = s.Score
	}
	return out
}

// Public returns a copy without the submitted answers.
func (r *Record) Public() *Record {
	cp := *r
	cp.Answers = nil
	cp.ClientKey = ""
	return &cp
}

// PaymentRecord is the audit row written with a premium unlock.
type PaymentRecord struct {
	ID              string    `json:"id"`
	EvaluationID    string    `json:"evaluation_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	AmountCents     int64     `json:"amount_cents"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Unlock carries everything written when premium content is unlocked.
type Unlock struct {
	EvaluationID    string
	DeepAnalysis    string
	Recommendations report.Recommendations
	Payment         PaymentRecord
	At              time.Time
}

// Check is the read-only outcome of validate plus guard inspection.
type Check struct {
	Valid            bool     `json:"success"`
	ValidationErrors []string `json:"validation_errors"`
	AntiGamingFlags  []string `json:"anti_gaming_flags"`
}
