// Package premium sells and unlocks the deep analysis of an evaluation.
package premium

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	StatusSucceeded             = "succeeded"
	StatusRequiresPaymentMethod = "requires_payment_method"
)

// Intent is a created payment intent.
type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
	MockMode     bool   `json:"mock_mode,omitempty"`
}

// Payment is the provider's view of an intent. EvaluationID is the
// evaluation the intent was opened for.
type Payment struct {
	Status       string `json:"status"`
	EvaluationID string `json:"evaluation_id"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentProvider is the external payment processor.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, evaluationID string, amountCents int64, currency string) (*Intent, error)
	Verify(ctx context.Context, paymentIntentID string) (*Payment, error)
}

// MockProvider issues pi_mock_<id8>_<unix> intents and reports every intent
// it issued as succeeded. Intents it never issued require a payment method.
type MockProvider struct {
	now func() time.Time

	mu      sync.Mutex
	intents map[string]mockIntent
}

type mockIntent struct {
	evaluationID string
	amountCents  int64
	currency     string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{now: time.Now, intents: make(map[string]mockIntent)}
}

func (p *MockProvider) CreateIntent(_ context.Context, evaluationID string, amountCents int64, currency string) (*Intent, error) {
	prefix := evaluationID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	id := fmt.Sprintf("pi_mock_%s_%d", prefix, p.now().Unix())

	p.mu.Lock()
	p.intents[id] = mockIntent{evaluationID: evaluationID, amountCents: amountCents, currency: currency}
	p.mu.Unlock()

	return &Intent{
		ID:           id,
		ClientSecret: id + "_secret_mock",
		AmountCents:  amountCents,
		Currency:     currency,
		MockMode:     true,
	}, nil
}

func (p *MockProvider) Verify(_ context.Context, paymentIntentID string) (*Payment, error) {
	p.mu.Lock()
	intent, ok := p.intents[paymentIntentID]
	p.mu.Unlock()
	if !ok {
		return &Payment{Status: StatusRequiresPaymentMethod}, nil
	}
	return &Payment{
		Status:       StatusSucceeded,
		EvaluationID: intent.evaluationID,
		AmountCents:  intent.amountCents,
		Currency:     intent.currency,
	}, nil
}
