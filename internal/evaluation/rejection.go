package evaluation

import (
	"fmt"
	"strings"

	apperrors "vc-readiness/internal/common/errors"
)

// RejectionKind tells which gate stopped a submission.
type RejectionKind string

const (
	RejectedValidation RejectionKind = "validation"
	RejectedAntiGaming RejectionKind = "anti_gaming"
)

// Rejection is returned instead of a score when a submission fails a gate.
type Rejection struct {
	Kind             RejectionKind
	ValidationErrors []string
	AntiGamingFlags  []string
}

func (r *Rejection) Error() string {
	switch r.Kind {
	case RejectedValidation:
		return fmt.Sprintf("validation failed: %s", strings.Join(r.ValidationErrors, ", "))
	default:
		return fmt.Sprintf("anti-gaming rejected: %s", strings.Join(r.AntiGamingFlags, " "))
	}
}

func (r *Rejection) ToStandardError() *apperrors.StandardError {
	if r.Kind == RejectedValidation {
		return apperrors.NewValidationFailedError(r.ValidationErrors)
	}
	return apperrors.NewAntiGamingRejectedError(r.AntiGamingFlags)
}
