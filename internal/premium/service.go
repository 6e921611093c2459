package premium

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
	"vc-readiness/internal/common/metrics"
	"vc-readiness/internal/evaluation"
	"vc-readiness/internal/notify"
	"vc-readiness/internal/report"
)

// Config is the price of the premium analysis.
type Config struct {
	AmountCents int64
	Currency    string
}

// Unlocked is returned by a successful unlock.
type Unlocked struct {
	DeepAnalysis        string   `json:"deep_analysis"`
	Recommendations     []string `json:"recommendations"`
	InvestmentReadiness string   `json:"investment_readiness"`
	ValuationRange      string   `json:"valuation_range"`
	RecommendedRound    string   `json:"recommended_round"`
}

type Service struct {
	config   Config
	provider PaymentProvider
	store    evaluation.Store
	reports  *report.Generator
	notifier notify.Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewService(config Config, provider PaymentProvider, store evaluation.Store, reports *report.Generator, notifier notify.Notifier, log logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		config:   config,
		provider: provider,
		store:    store,
		reports:  reports,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "premium-service"}),
		now:      time.Now,
	}
}

// CreateIntent opens a payment for an existing evaluation.
func (s *Service) CreateIntent(ctx context.Context, evaluationID string) (*Intent, error) {
	if strings.TrimSpace(evaluationID) == "" {
		return nil, apperrors.NewInvalidRequestError("evaluation_id is required")
	}
	if _, err := s.store.Get(ctx, evaluationID); err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, evaluationID, s.config.AmountCents, s.config.Currency)
	if err != nil {
		s.logger.Error("payment intent creation failed", map[string]interface{}{
			"evaluationId": evaluationID,
			"error":        err,
		})
		return nil, apperrors.NewPaymentProviderFailedError(err)
	}
	return intent, nil
}

// Unlock verifies the payment, generates the deep analysis and
// recommendations and marks the evaluation unlocked together with a
// payment record.
func (s *Service) Unlock(ctx context.Context, evaluationID, paymentIntentID string) (*Unlocked, error) {
	if strings.TrimSpace(evaluationID) == "" || strings.TrimSpace(paymentIntentID) == "" {
		return nil, apperrors.NewInvalidRequestError("evaluation_id and payment_intent_id are required")
	}

	payment, err := s.provider.Verify(ctx, paymentIntentID)
	if err != nil {
		metrics.PremiumUnlocks.WithLabelValues("provider_error").Inc()
		return nil, apperrors.NewPaymentProviderFailedError(err)
	}
	if payment.Status != StatusSucceeded {
		metrics.PremiumUnlocks.WithLabelValues("payment_failed").Inc()
		return nil, apperrors.NewPaymentVerificationFailedError(fmt.Sprintf("payment status %q", payment.Status))
	}

	if payment.EvaluationID != evaluationID {
		metrics.PremiumUnlocks.WithLabelValues("intent_mismatch").Inc()
		s.logger.Warn("payment intent belongs to another evaluation", map[string]interface{}{
			"evaluationId":    evaluationID,
			"paymentIntentId": paymentIntentID,
			"intentFor":       payment.EvaluationID,
		})
		return nil, apperrors.NewPaymentVerificationFailedError(
			fmt.Sprintf("payment intent %s was not issued for evaluation %s", paymentIntentID, evaluationID))
	}

	rec, err := s.store.Get(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if rec.PremiumUnlocked {
		metrics.PremiumUnlocks.WithLabelValues("already_unlocked").Inc()
		return nil, apperrors.NewPremiumAlreadyUnlockedError(evaluationID)
	}

	analysis := s.reports.DeepAnalysis(report.AnalysisInput{
		TotalScore:    rec.TotalScore,
		SectionScores: rec.SectionScores(),
		Answers:       rec.Answers,
		Stage:         rec.Stage,
	})
	recs := report.Recommend(rec.TotalScore, rec.Stage)

	now := s.now().UTC()
	amount := payment.AmountCents
	if amount == 0 {
		amount = s.config.AmountCents
	}
	currency := payment.Currency
	if currency == "" {
		currency = s.config.Currency
	}
	_, err = s.store.MarkUnlocked(ctx, evaluation.Unlock{
		EvaluationID:    evaluationID,
		DeepAnalysis:    analysis,
		Recommendations: recs,
		Payment: evaluation.PaymentRecord{
			ID:              uuid.New().String(),
			EvaluationID:    evaluationID,
			PaymentIntentID: paymentIntentID,
			AmountCents:     amount,
			Currency:        currency,
			Status:          StatusSucceeded,
			CreatedAt:       now,
		},
		At: now,
	})
	if err != nil {
		switch {
		case apperrors.HasCode(err, apperrors.ErrCodePremiumAlreadyUnlocked):
			metrics.PremiumUnlocks.WithLabelValues("already_unlocked").Inc()
		case apperrors.HasCode(err, apperrors.ErrCodePaymentVerificationFailed):
			metrics.PremiumUnlocks.WithLabelValues("intent_reused").Inc()
		}
		return nil, err
	}

	metrics.PremiumUnlocks.WithLabelValues("unlocked").Inc()
	s.logger.Info("premium analysis unlocked", map[string]interface{}{
		"evaluationId":    evaluationID,
		"paymentIntentId": paymentIntentID,
	})

	if err := s.notifier.Notify(ctx, notify.Event{
		Type:         notify.EventPremiumUnlocked,
		EvaluationID: evaluationID,
		Stage:        string(rec.Stage),
		TotalScore:   rec.TotalScore,
		Verdict:      rec.Verdict.Text,
		Category:     rec.Verdict.Category,
		OccurredAt:   now,
	}); err != nil {
		s.logger.Warn("unlock notification failed", map[string]interface{}{
			"evaluationId": evaluationID,
			"error":        err,
		})
	}

	return &Unlocked{
		DeepAnalysis:        analysis,
		Recommendations:     recs.NextSteps,
		InvestmentReadiness: recs.InvestmentReadiness,
		ValuationRange:      recs.ValuationRange,
		RecommendedRound:    recs.RecommendedRound,
	}, nil
}
