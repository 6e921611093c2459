// Package scoring turns questionnaire answers into sub-scores, section
// averages, a weighted total, a verdict and completion percentages. Every
// function here is pure.
package scoring

import (
	"regexp"
	"strings"

	"vc-readiness/internal/catalog"
)

// Default sub-scores used when no rule is more specific.
const (
	DefaultScore        = 6.0
	UnknownNumericScore = 7.0
	LadderFloor         = 4.0
)

// Step is one rung of a numeric ladder: values at or past Threshold score Score.
type Step struct {
	Threshold float64
	Score     float64
}

// Ladder scores a numeric metric. Steps are checked in order; the first
// satisfied step wins, otherwise Floor applies.
type Ladder struct {
	LowerIsBetter bool
	Steps         []Step
	Floor         float64
}

// Score returns the ladder score for v.
func (l Ladder) Score(v float64) float64 {
	for _, s := range l.Steps {
		if l.LowerIsBetter && v <= s.Threshold {
			return s.Score
		}
		if !l.LowerIsBetter && v >= s.Threshold {
			return s.Score
		}
	}
	return l.Floor
}

// DefaultLadders are the per-metric ladders for the launched-stage numbers.
var DefaultLadders = map[string]Ladder{
	"cac": {LowerIsBetter: true, Floor: LadderFloor, Steps: []Step{
		{Threshold: 50, Score: 10}, {Threshold: 100, Score: 8}, {Threshold: 200, Score: 6},
	}},
	"ltv": {Floor: LadderFloor, Steps: []Step{
		{Threshold: 500, Score: 10}, {Threshold: 300, Score: 8}, {Threshold: 150, Score: 6},
	}},
	"growth-rate": {Floor: LadderFloor, Steps: []Step{
		{Threshold: 15, Score: 10}, {Threshold: 10, Score: 8}, {Threshold: 5, Score: 6},
	}},
	"gross-margin": {Floor: LadderFloor, Steps: []Step{
		{Threshold: 80, Score: 10}, {Threshold: 60, Score: 8}, {Threshold: 40, Score: 6},
	}},
	"churn-rate": {LowerIsBetter: true, Floor: LadderFloor, Steps: []Step{
		{Threshold: 2, Score: 10}, {Threshold: 5, Score: 8}, {Threshold: 10, Score: 6},
	}},
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type typeRule func(s *FieldScorer, f catalog.Field, value interface{}) float64

// FieldScorer maps one answer to a sub-score in [0,10]. Lookup order is the
// catalog scoring matrix, then the rule registered for the field type.
type FieldScorer struct {
	catalog *catalog.Catalog
	ladders map[string]Ladder
	rules   map[catalog.FieldType]typeRule
}

// NewFieldScorer builds a scorer with DefaultLadders.
func NewFieldScorer(cat *catalog.Catalog) *FieldScorer {
	return &FieldScorer{
		catalog: cat,
		ladders: DefaultLadders,
		rules: map[catalog.FieldType]typeRule{
			catalog.FieldNumber:   scoreNumber,
			catalog.FieldTextarea: scoreLongText,
			catalog.FieldCheckbox: scoreSelections,
			catalog.FieldEmail:    scoreEmail,
		},
	}
}

// Score never fails. Unrecognised input degrades to a default.
func (s *FieldScorer) Score(f catalog.Field, value interface{}) float64 {
	if _, isList := catalog.AsList(value); !isList {
		if str, ok := catalog.AsString(value); ok {
			if score, ok := s.catalog.MatrixScore(f.ID, str); ok {
				return float64(score)
			}
		}
	}

	if rule, ok := s.rules[f.Type]; ok {
		return rule(s, f, value)
	}
	return DefaultScore
}

func scoreNumber(s *FieldScorer, f catalog.Field, value interface{}) float64 {
	ladder, known := s.ladders[f.ID]
	n, ok := catalog.AsNumber(value)
	switch {
	case known && ok:
		return ladder.Score(n)
	case known:
		return ladder.Floor
	default:
		return UnknownNumericScore
	}
}

func scoreLongText(_ *FieldScorer, _ catalog.Field, value interface{}) float64 {
	text, _ := catalog.AsString(value)
	words := len(strings.Fields(text))
	switch {
	case words >= 50:
		return 9
	case words >= 25:
		return 7
	case words >= 10:
		return 5
	default:
		return 3
	}
}

func scoreSelections(_ *FieldScorer, _ catalog.Field, value interface{}) float64 {
	count := 0
	if list, ok := catalog.AsList(value); ok {
		count = len(list)
	} else if str, ok := catalog.AsString(value); ok && str != "" {
		count = 1
	}
	switch {
	case count >= 3:
		return 9
	case count >= 2:
		return 7
	case count >= 1:
		return 5
	default:
		return 2
	}
}

func scoreEmail(_ *FieldScorer, _ catalog.Field, value interface{}) float64 {
	str, ok := value.(string)
	if ok && emailPattern.MatchString(str) {
		return 8
	}
	return 3
}
