// Package validator checks a submission's answers against the catalog:
// required-answer completeness plus per-field format and range rules.
package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"vc-readiness/internal/catalog"
)

// Long-text answers must fall inside these bounds, counted in characters.
const (
	MinTextLength = 20
	MaxTextLength = 1000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result lists missing required field labels and format problems, both in
// catalog order.
type Result struct {
	Valid         bool     `json:"valid"`
	MissingFields []string `json:"missing_fields"`
	FormatErrors  []string `json:"format_errors"`
}

// Errors returns the missing field labels followed by the format errors.
func (r Result) Errors() []string {
	out := make([]string, 0, len(r.MissingFields)+len(r.FormatErrors))
	out = append(out, r.MissingFields...)
	return append(out, r.FormatErrors...)
}

type Validator struct {
	catalog *catalog.Catalog
}

func New(cat *catalog.Catalog) *Validator {
	return &Validator{catalog: cat}
}

// Validate fails when a required field of an applicable section is absent,
// null, an empty string or an empty list, or when a present answer breaks
// its field's format rule. Fields outside the stage are not checked.
func (v *Validator) Validate(answers catalog.Answers, stage catalog.Stage) Result {
	missing := []string{}
	problems := []string{}
	for _, section := range v.catalog.SectionsFor(stage) {
		for _, f := range section.Fields {
			if f.Required && !answers.IsCompleted(f.ID) {
				missing = append(missing, f.Label)
				continue
			}
			if !answers.IsPresent(f.ID) {
				continue
			}
			if msg := checkFormat(f, answers[f.ID]); msg != "" {
				problems = append(problems, msg)
			}
		}
	}
	return Result{
		Valid:         len(missing) == 0 && len(problems) == 0,
		MissingFields: missing,
		FormatErrors:  problems,
	}
}

// checkFormat returns a user-facing message, or "" when value fits f.
func checkFormat(f catalog.Field, value interface{}) string {
	switch f.Type {
	case catalog.FieldNumber:
		n, ok := catalog.AsNumber(value)
		if !ok {
			return fmt.Sprintf("Invalid numeric value for '%s'.", f.Label)
		}
		if (f.Min != nil && n < *f.Min) || (f.Max != nil && n > *f.Max) {
			return rangeMessage(f)
		}
	case catalog.FieldEmail:
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Sprintf("Invalid email format in '%s'.", f.Label)
		}
	case catalog.FieldTextarea:
		s, ok := catalog.AsString(value)
		if n := utf8.RuneCountInString(s); !ok || n < MinTextLength || n > MaxTextLength {
			return fmt.Sprintf("Text for '%s' must be between %d and %d characters.", f.Label, MinTextLength, MaxTextLength)
		}
	}
	return ""
}

func rangeMessage(f catalog.Field) string {
	switch {
	case f.Min != nil && f.Max != nil:
		return fmt.Sprintf("Value for '%s' must be between %s and %s.", f.Label, formatBound(*f.Min), formatBound(*f.Max))
	case f.Min != nil:
		return fmt.Sprintf("Value for '%s' must be at least %s.", f.Label, formatBound(*f.Min))
	default:
		return fmt.Sprintf("Value for '%s' must be at most %s.", f.Label, formatBound(*f.Max))
	}
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
