package premium

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
	"vc-readiness/internal/evaluation"
	"vc-readiness/internal/notify"
	"vc-readiness/internal/report"
	"vc-readiness/internal/scoring"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// ==========================
// Mock Implementations
// ==========================

type MockProviderFuncs struct {
	CreateIntentFunc func(ctx context.Context, evaluationID string, amountCents int64, currency string) (*Intent, error)
	VerifyFunc       func(ctx context.Context, paymentIntentID string) (*Payment, error)
}

func (m *MockProviderFuncs) CreateIntent(ctx context.Context, evaluationID string, amountCents int64, currency string) (*Intent, error) {
	return m.CreateIntentFunc(ctx, evaluationID, amountCents, currency)
}

func (m *MockProviderFuncs) Verify(ctx context.Context, paymentIntentID string) (*Payment, error) {
	return m.VerifyFunc(ctx, paymentIntentID)
}

type recordingNotifier struct{ events []notify.Event }

func (r *recordingNotifier) Notify(_ context.Context, e notify.Event) error {
	r.events = append(r.events, e)
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	service  *Service
	store    *evaluation.MemoryStore
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, provider PaymentProvider) *testEnv {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	store := evaluation.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), &evaluation.Record{
		ID:         "eval-0001-abcd",
		ClientKey:  "user-1",
		Stage:      catalog.StageLaunched,
		Answers:    catalog.Answers{"team-size": "2-3", "cac": 100.0, "ltv": 450.0, "churn-rate": 3.0},
		TotalScore: 82.5,
		Sections: []scoring.SectionScore{
			{SectionID: "founding-team", Score: 9},
			{SectionID: "unit-economics", Score: 8.5},
		},
		Verdict:   scoring.VerdictFor(82.5),
		CreatedAt: baseTime,
	}))

	if provider == nil {
		provider = NewMockProvider()
	}
	n := &recordingNotifier{}
	svc := NewService(Config{AmountCents: 999, Currency: "usd"}, provider, store,
		report.NewGenerator(cat), n, logger.NewTestLogger(t))
	svc.now = func() time.Time { return baseTime.Add(time.Hour) }
	return &testEnv{service: svc, store: store, notifier: n}
}

// ==========================
// CreateIntent
// ==========================

func TestMockProvider_CreateIntent(t *testing.T) {
	p := NewMockProvider()
	p.now = func() time.Time { return baseTime }

	intent, err := p.CreateIntent(context.Background(), "eval-0001-abcd", 999, "usd")

	require.NoError(t, err)
	assert.Equal(t, "pi_mock_eval-000_1740830400", intent.ID)
	assert.Equal(t, intent.ID+"_secret_mock", intent.ClientSecret)
	assert.Equal(t, int64(999), intent.AmountCents)
	assert.True(t, intent.MockMode)

	short, err := p.CreateIntent(context.Background(), "abc", 999, "usd")
	require.NoError(t, err)
	assert.Equal(t, "pi_mock_abc_1740830400", short.ID)
}

func TestMockProvider_Verify(t *testing.T) {
	p := NewMockProvider()
	p.now = func() time.Time { return baseTime }
	intent, err := p.CreateIntent(context.Background(), "eval-0001-abcd", 999, "usd")
	require.NoError(t, err)

	payment, err := p.Verify(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, payment.Status)
	assert.Equal(t, "eval-0001-abcd", payment.EvaluationID)
	assert.Equal(t, int64(999), payment.AmountCents)
	assert.Equal(t, "usd", payment.Currency)

	unknown, err := p.Verify(context.Background(), "pi_never_issued")
	require.NoError(t, err)
	assert.Equal(t, StatusRequiresPaymentMethod, unknown.Status)
	assert.Empty(t, unknown.EvaluationID)
}

func TestService_CreateIntent(t *testing.T) {
	tests := []struct {
		name           string
		evaluationID   string
		provider       PaymentProvider
		validateOutput func(t *testing.T, intent *Intent, err error)
	}{
		{
			name:         "existing evaluation",
			evaluationID: "eval-0001-abcd",
			validateOutput: func(t *testing.T, intent *Intent, err error) {
				require.NoError(t, err)
				assert.Contains(t, intent.ID, "pi_mock_eval-000_")
				assert.Equal(t, "usd", intent.Currency)
			},
		},
		{
			name:         "unknown evaluation",
			evaluationID: "missing",
			validateOutput: func(t *testing.T, intent *Intent, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluationNotFound))
			},
		},
		{
			name:         "empty id",
			evaluationID: " ",
			validateOutput: func(t *testing.T, intent *Intent, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
			},
		},
		{
			name:         "provider failure",
			evaluationID: "eval-0001-abcd",
			provider: &MockProviderFuncs{
				CreateIntentFunc: func(context.Context, string, int64, string) (*Intent, error) {
					return nil, errors.New("gateway timeout")
				},
			},
			validateOutput: func(t *testing.T, intent *Intent, err error) {
				assert.Nil(t, intent)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentProviderFailed))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.provider)
			intent, err := env.service.CreateIntent(context.Background(), tt.evaluationID)
			tt.validateOutput(t, intent, err)
		})
	}
}

// ==========================
// Unlock
// ==========================

func TestService_Unlock(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	intent, err := env.service.CreateIntent(ctx, "eval-0001-abcd")
	require.NoError(t, err)

	out, err := env.service.Unlock(ctx, "eval-0001-abcd", intent.ID)

	require.NoError(t, err)
	assert.Contains(t, out.DeepAnalysis, "**COMPREHENSIVE VC ANALYSIS - SCORE: 82.5/100**")
	assert.Contains(t, out.DeepAnalysis, "UNIT ECONOMICS ANALYSIS")
	assert.Equal(t, "Series A Ready", out.InvestmentReadiness)
	assert.Equal(t, "$10M+", out.ValuationRange)
	assert.Equal(t, "Series A", out.RecommendedRound)
	assert.Len(t, out.Recommendations, 4)

	rec, err := env.store.Get(ctx, "eval-0001-abcd")
	require.NoError(t, err)
	assert.True(t, rec.PremiumUnlocked)
	require.NotNil(t, rec.UnlockedAt)
	assert.Equal(t, baseTime.Add(time.Hour), *rec.UnlockedAt)

	payments := env.store.Payments("eval-0001-abcd")
	require.Len(t, payments, 1)
	assert.Equal(t, intent.ID, payments[0].PaymentIntentID)
	assert.Equal(t, int64(999), payments[0].AmountCents)

	require.Len(t, env.notifier.events, 1)
	assert.Equal(t, notify.EventPremiumUnlocked, env.notifier.events[0].Type)

	_, err = env.service.Unlock(ctx, "eval-0001-abcd", intent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePremiumAlreadyUnlocked))
}

func TestService_Unlock_IntentBoundToEvaluation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.store.Save(ctx, &evaluation.Record{
		ID:         "eval-0002-other",
		ClientKey:  "user-2",
		Stage:      catalog.StageIdea,
		Answers:    catalog.Answers{"team-size": "solo"},
		TotalScore: 61,
		Verdict:    scoring.VerdictFor(61),
		CreatedAt:  baseTime,
	}))

	intent, err := env.service.CreateIntent(ctx, "eval-0001-abcd")
	require.NoError(t, err)
	_, err = env.service.Unlock(ctx, "eval-0001-abcd", intent.ID)
	require.NoError(t, err)

	_, err = env.service.Unlock(ctx, "eval-0002-other", intent.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))

	other, err := env.store.Get(ctx, "eval-0002-other")
	require.NoError(t, err)
	assert.False(t, other.PremiumUnlocked)
	assert.Empty(t, env.store.Payments("eval-0002-other"))
	assert.Len(t, env.notifier.events, 1)
}

func paidFor(evaluationID string) *MockProviderFuncs {
	return &MockProviderFuncs{
		VerifyFunc: func(context.Context, string) (*Payment, error) {
			return &Payment{Status: StatusSucceeded, EvaluationID: evaluationID}, nil
		},
	}
}

func TestService_Unlock_ReusedIntentRejectedByStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, paidFor("eval-0001-abcd"))
	require.NoError(t, env.store.Save(ctx, &evaluation.Record{
		ID: "eval-0002-other", Stage: catalog.StageIdea, TotalScore: 61,
		Verdict: scoring.VerdictFor(61), CreatedAt: baseTime,
	}))

	_, err := env.service.Unlock(ctx, "eval-0001-abcd", "pi_shared")
	require.NoError(t, err)

	// The provider now claims the same intent for the second evaluation.
	env.service.provider = paidFor("eval-0002-other")
	_, err = env.service.Unlock(ctx, "eval-0002-other", "pi_shared")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))

	other, err := env.store.Get(ctx, "eval-0002-other")
	require.NoError(t, err)
	assert.False(t, other.PremiumUnlocked)
	assert.Empty(t, env.store.Payments("eval-0002-other"))
}

func TestService_Unlock_Failures(t *testing.T) {
	tests := []struct {
		name           string
		evaluationID   string
		provider       PaymentProvider
		validateOutput func(t *testing.T, env *testEnv, err error)
	}{
		{
			name:         "payment not succeeded",
			evaluationID: "eval-0001-abcd",
			provider: &MockProviderFuncs{
				VerifyFunc: func(context.Context, string) (*Payment, error) {
					return &Payment{Status: "requires_payment_method"}, nil
				},
			},
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))
				rec, _ := env.store.Get(context.Background(), "eval-0001-abcd")
				assert.False(t, rec.PremiumUnlocked)
			},
		},
		{
			name:         "provider error",
			evaluationID: "eval-0001-abcd",
			provider: &MockProviderFuncs{
				VerifyFunc: func(context.Context, string) (*Payment, error) {
					return nil, errors.New("connection reset")
				},
			},
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentProviderFailed))
			},
		},
		{
			name:         "payment checked before lookup",
			evaluationID: "missing",
			provider: &MockProviderFuncs{
				VerifyFunc: func(context.Context, string) (*Payment, error) {
					return &Payment{Status: "canceled"}, nil
				},
			},
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))
			},
		},
		{
			name:         "unknown evaluation",
			evaluationID: "missing",
			provider: &MockProviderFuncs{
				VerifyFunc: func(context.Context, string) (*Payment, error) {
					return &Payment{Status: StatusSucceeded, EvaluationID: "missing"}, nil
				},
			},
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeEvaluationNotFound))
				assert.Empty(t, env.notifier.events)
			},
		},
		{
			name:         "intent never issued",
			evaluationID: "eval-0001-abcd",
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))
				assert.Empty(t, env.store.Payments("eval-0001-abcd"))
			},
		},
		{
			name:         "intent issued for another evaluation",
			evaluationID: "eval-0001-abcd",
			provider: &MockProviderFuncs{
				VerifyFunc: func(context.Context, string) (*Payment, error) {
					return &Payment{Status: StatusSucceeded, EvaluationID: "eval-0009-else"}, nil
				},
			},
			validateOutput: func(t *testing.T, env *testEnv, err error) {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed))
				rec, _ := env.store.Get(context.Background(), "eval-0001-abcd")
				assert.False(t, rec.PremiumUnlocked)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.provider)
			_, err := env.service.Unlock(context.Background(), tt.evaluationID, "pi_1")
			tt.validateOutput(t, env, err)
		})
	}
}

func TestService_Unlock_RequiresIDs(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.service.Unlock(context.Background(), "eval-0001-abcd", "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidRequest))
}
