package evaluation

import (
	"context"
	"time"

	"vc-readiness/internal/antigaming"
	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
	"vc-readiness/internal/common/metrics"
	"vc-readiness/internal/notify"
	"vc-readiness/internal/report"
	"vc-readiness/internal/scoring"
	"vc-readiness/internal/validator"
)

type Service struct {
	catalog    *catalog.Catalog
	validator  *validator.Validator
	guard      *antigaming.Guard
	aggregator *scoring.Aggregator
	reports    *report.Generator
	store      Store
	notifier   notify.Notifier
	logger     logger.Logger
	now        func() time.Time
}

func NewService(cat *catalog.Catalog, guard *antigaming.Guard, store Store, notifier notify.Notifier, log logger.Logger) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		catalog:    cat,
		validator:  validator.New(cat),
		guard:      guard,
		aggregator: scoring.NewAggregator(cat),
		reports:    report.NewGenerator(cat),
		store:      store,
		notifier:   notifier,
		logger:     log.WithFields(map[string]interface{}{"component": "evaluation-service"}),
		now:        time.Now,
	}
}

// Evaluate sanitises the answers, validates them, runs the anti-gaming guard
// and only then scores and stores the submission. A failed gate returns a
// *Rejection and nothing is scored or stored.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	stage, err := catalog.ParseStage(string(req.Stage))
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	answers := SanitizeAnswers(req.Answers)

	if res := s.validator.Validate(answers, stage); !res.Valid {
		metrics.EvaluationsRejected.WithLabelValues(string(stage), string(RejectedValidation)).Inc()
		s.logger.Info("submission failed validation", map[string]interface{}{
			"stage":        string(stage),
			"missing":      len(res.MissingFields),
			"formatErrors": len(res.FormatErrors),
		})
		return nil, &Rejection{Kind: RejectedValidation, ValidationErrors: res.Errors()}
	}

	verdict, err := s.guard.Check(ctx, s.submission(req, stage, answers))
	if err != nil {
		return nil, err
	}
	if !verdict.Passed {
		metrics.EvaluationsRejected.WithLabelValues(string(stage), string(RejectedAntiGaming)).Inc()
		for _, code := range verdict.Codes() {
			metrics.AntiGamingFlags.WithLabelValues(string(code)).Inc()
		}
		return nil, &Rejection{Kind: RejectedAntiGaming, AntiGamingFlags: verdict.Messages()}
	}

	breakdown := s.aggregator.Score(answers, stage)
	completion := scoring.ComputeCompletion(answers, stage, s.catalog)

	rec := &Record{
		ClientKey:        req.ClientKey,
		Stage:            stage,
		Answers:          answers,
		TotalScore:       breakdown.TotalScore,
		Sections:         breakdown.Sections,
		Verdict:          breakdown.Verdict,
		Completion:       completion,
		ExecutiveSummary: s.reports.ExecutiveSummary(breakdown.Verdict, answers),
		CreatedAt:        start.UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Error("failed to store evaluation", map[string]interface{}{"error": err})
		return nil, err
	}

	metrics.EvaluationsCompleted.WithLabelValues(string(stage), breakdown.Verdict.Category).Inc()
	metrics.EvaluationScore.WithLabelValues(string(stage)).Observe(breakdown.TotalScore)
	metrics.EvaluationDuration.WithLabelValues(string(stage)).Observe(s.now().Sub(start).Seconds())

	s.logger.Info("evaluation completed", map[string]interface{}{
		"evaluationId": rec.ID,
		"stage":        string(stage),
		"totalScore":   rec.TotalScore,
		"category":     rec.Verdict.Category,
	})
	s.notify(ctx, rec)

	return &Result{
		EvaluationID:     rec.ID,
		TotalScore:       rec.TotalScore,
		SectionScores:    breakdown.SectionScores(),
		Verdict:          rec.Verdict,
		ExecutiveSummary: rec.ExecutiveSummary,
		Completion:       completion,
		PremiumLocked:    true,
	}, nil
}

// Check validates and inspects a submission without scoring, storing or
// counting it against the rate limit.
func (s *Service) Check(ctx context.Context, req Request) (*Check, error) {
	stage, err := catalog.ParseStage(string(req.Stage))
	if err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}
	answers := SanitizeAnswers(req.Answers)

	res := s.validator.Validate(answers, stage)
	verdict, err := s.guard.Inspect(ctx, s.submission(req, stage, answers))
	if err != nil {
		return nil, err
	}
	return &Check{
		Valid:            res.Valid && verdict.Passed,
		ValidationErrors: res.Errors(),
		AntiGamingFlags:  verdict.Messages(),
	}, nil
}

// Completion reports per-section and overall completion for a draft.
func (s *Service) Completion(stage catalog.Stage, answers catalog.Answers) (scoring.Completion, error) {
	st, err := catalog.ParseStage(string(stage))
	if err != nil {
		return scoring.Completion{}, apperrors.NewInvalidRequestError(err.Error())
	}
	return scoring.ComputeCompletion(answers, st, s.catalog), nil
}

// Get returns a stored evaluation without its answers.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Public(), nil
}

func (s *Service) submission(req Request, stage catalog.Stage, answers catalog.Answers) antigaming.Submission {
	return antigaming.Submission{
		ClientKey: req.ClientKey,
		Origin:    req.Origin,
		Stage:     stage,
		Answers:   answers,
		StartTime: req.Session.StartTime,
	}
}

func (s *Service) notify(ctx context.Context, rec *Record) {
	err := s.notifier.Notify(ctx, notify.Event{
		Type:         notify.EventEvaluationCompleted,
		EvaluationID: rec.ID,
		Stage:        string(rec.Stage),
		TotalScore:   rec.TotalScore,
		Verdict:      rec.Verdict.Text,
		Category:     rec.Verdict.Category,
		OccurredAt:   rec.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("evaluation notification failed", map[string]interface{}{
			"evaluationId": rec.ID,
			"error":        err,
		})
	}
}
