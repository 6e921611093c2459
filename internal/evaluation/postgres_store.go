package evaluation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
)

const uniqueViolation = "23505"

// PostgresStore keeps records in vc_evaluations with JSONB payload columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	prepare(rec)

	formData, err := json.Marshal(rec.Answers)
	if err != nil {
		return apperrors.NewEvaluationStoreFailedError("save", fmt.Errorf("marshal form data: %w", err))
	}
	sections, err := json.Marshal(rec.Sections)
	if err != nil {
		return apperrors.NewEvaluationStoreFailedError("save", fmt.Errorf("marshal section scores: %w", err))
	}
	verdict, err := json.Marshal(rec.Verdict)
	if err != nil {
		return apperrors.NewEvaluationStoreFailedError("save", fmt.Errorf("marshal verdict: %w", err))
	}
	completion, err := json.Marshal(rec.Completion)
	if err != nil {
		return apperrors.NewEvaluationStoreFailedError("save", fmt.Errorf("marshal completion: %w", err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vc_evaluations (
			id, client_key, stage, form_data, total_score, section_scores,
			verdict, completion, executive_summary, premium_unlocked, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.ClientKey, string(rec.Stage), formData, rec.TotalScore, sections,
		verdict, completion, rec.ExecutiveSummary, rec.PremiumUnlocked, rec.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewEvaluationStoreFailedError("save", fmt.Errorf("duplicate evaluation id %s", rec.ID))
		}
		return apperrors.NewEvaluationStoreFailedError("save", err)
	}
	return nil
}

const selectRecord = `
	SELECT id, client_key, stage, form_data, total_score, section_scores, verdict,
		completion, executive_summary, premium_unlocked, deep_analysis,
		recommendations, created_at, unlocked_at
	FROM vc_evaluations WHERE id = $1`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                                              Record
		stage                                            string
		formData, sections, verdict, completion, recsRaw []byte
		deepAnalysis                                     sql.NullString
		unlockedAt                                       sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.ClientKey, &stage, &formData, &rec.TotalScore, &sections,
		&verdict, &completion, &rec.ExecutiveSummary, &rec.PremiumUnlocked, &deepAnalysis,
		&recsRaw, &rec.CreatedAt, &unlockedAt)
	if err != nil {
		return nil, err
	}

	rec.Stage = catalog.Stage(stage)
	if err := json.Unmarshal(formData, &rec.Answers); err != nil {
		return nil, fmt.Errorf("decode form data: %w", err)
	}
	if err := json.Unmarshal(sections, &rec.Sections); err != nil {
		return nil, fmt.Errorf("decode section scores: %w", err)
	}
	if err := json.Unmarshal(verdict, &rec.Verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if err := json.Unmarshal(completion, &rec.Completion); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	if len(recsRaw) > 0 {
		if err := json.Unmarshal(recsRaw, &rec.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	rec.DeepAnalysis = deepAnalysis.String
	if unlockedAt.Valid {
		t := unlockedAt.Time
		rec.UnlockedAt = &t
	}
	return &rec, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewEvaluationNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("get", err)
	}
	return rec, nil
}

// MarkUnlocked flips premium_unlocked and writes the payment row in one
// transaction. The update only matches a locked row, so concurrent unlocks
// of the same evaluation cannot both succeed.
func (s *PostgresStore) MarkUnlocked(ctx context.Context, u Unlock) (*Record, error) {
	recs, err := json.Marshal(u.Recommendations)
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE vc_evaluations
		SET premium_unlocked = TRUE, deep_analysis = $2, recommendations = $3, unlocked_at = $4
		WHERE id = $1 AND premium_unlocked = FALSE`,
		u.EvaluationID, u.DeepAnalysis, recs, u.At,
	)
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}
	if affected == 0 {
		var exists bool
		err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM vc_evaluations WHERE id = $1)`, u.EvaluationID).Scan(&exists)
		if err != nil {
			return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
		}
		if !exists {
			return nil, apperrors.NewEvaluationNotFoundError(u.EvaluationID)
		}
		return nil, apperrors.NewPremiumAlreadyUnlockedError(u.EvaluationID)
	}

	p := u.Payment
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vc_payment_records (
			id, evaluation_id, payment_intent_id, amount_cents, currency, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, u.EvaluationID, p.PaymentIntentID, p.AmountCents, p.Currency, p.Status, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, intentUsedError(p.PaymentIntentID, "")
		}
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", fmt.Errorf("insert payment record: %w", err))
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, selectRecord, u.EvaluationID))
	if err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewEvaluationStoreFailedError("unlock", err)
	}
	return rec, nil
}
