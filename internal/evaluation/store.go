package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "vc-readiness/internal/common/errors"
)

// Store persists evaluation records.
type Store interface {
	// Save assigns an id and creation time when unset and stores rec.
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// MarkUnlocked stores the premium content and payment record. It fails
	// with EVALUATION_NOT_FOUND, PREMIUM_ALREADY_UNLOCKED, or
	// PAYMENT_VERIFICATION_FAILED when the payment intent was already used.
	MarkUnlocked(ctx context.Context, u Unlock) (*Record, error)
}

func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	payment map[string]PaymentRecord
	intents map[string]string // payment intent id -> evaluation id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		payment: make(map[string]PaymentRecord),
		intents: make(map[string]string),
	}
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	prepare(rec)
	cp := *rec
	cp.Answers = rec.Answers.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewEvaluationNotFoundError(id)
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) MarkUnlocked(_ context.Context, u Unlock) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[u.EvaluationID]
	if !ok {
		return nil, apperrors.NewEvaluationNotFoundError(u.EvaluationID)
	}
	if rec.PremiumUnlocked {
		return nil, apperrors.NewPremiumAlreadyUnlockedError(u.EvaluationID)
	}
	if owner, used := s.intents[u.Payment.PaymentIntentID]; used {
		return nil, intentUsedError(u.Payment.PaymentIntentID, owner)
	}

	at := u.At
	recs := u.Recommendations
	rec.PremiumUnlocked = true
	rec.DeepAnalysis = u.DeepAnalysis
	rec.Recommendations = &recs
	rec.UnlockedAt = &at

	payment := u.Payment
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	s.payment[payment.ID] = payment
	s.intents[payment.PaymentIntentID] = u.EvaluationID

	cp := *rec
	return &cp, nil
}

func intentUsedError(intentID, evaluationID string) error {
	if evaluationID == "" {
		return apperrors.NewPaymentVerificationFailedError(fmt.Sprintf("payment intent %s was already used", intentID))
	}
	return apperrors.NewPaymentVerificationFailedError(
		fmt.Sprintf("payment intent %s was already used for evaluation %s", intentID, evaluationID))
}

// Payments returns the payment records for an evaluation.
func (s *MemoryStore) Payments(evaluationID string) []PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PaymentRecord
	for _, p := range s.payment {
		if p.EvaluationID == evaluationID {
			out = append(out, p)
		}
	}
	return out
}
