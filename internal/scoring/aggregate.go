package scoring

import (
	"math"

	"vc-readiness/internal/catalog"
)

// SectionScore is one section's average field score (0..10).
type SectionScore struct {
	SectionID      string  `json:"section_id"`
	Title          string  `json:"title"`
	Weight         float64 `json:"weight"`
	Score          float64 `json:"score"`
	AnsweredFields int     `json:"answered_fields"`
	TotalFields    int     `json:"total_fields"`
}

// Breakdown is the result of scoring one submission.
type Breakdown struct {
	TotalScore float64        `json:"total_score"`
	Verdict    Verdict        `json:"verdict"`
	Sections   []SectionScore `json:"sections"`
}

// SectionScores flattens the breakdown into section id -> score.
func (b Breakdown) SectionScores() map[string]float64 {
	out := make(map[string]float64, len(b.Sections))
	for _, s := range b.Sections {
		out[s.SectionID] = s.Score
	}
	return out
}

// Aggregator combines field sub-scores into section averages and a weighted total.
type Aggregator struct {
	catalog *catalog.Catalog
	fields  *FieldScorer
}

func NewAggregator(cat *catalog.Catalog) *Aggregator {
	return &Aggregator{catalog: cat, fields: NewFieldScorer(cat)}
}

// Score computes the weighted total over the sections applicable to stage.
//
// Sections without any present answer are left out of both the numerator and
// the denominator, so the total is renormalised over answered sections only.
// A single strong section can therefore produce a high total on a partial
// submission. This is the intended scoring policy.
func (a *Aggregator) Score(answers catalog.Answers, stage catalog.Stage) Breakdown {
	var numerator, denominator float64
	sections := a.catalog.SectionsFor(stage)
	out := Breakdown{Sections: make([]SectionScore, 0, len(sections))}

	for _, section := range sections {
		var sum float64
		answered := 0
		for _, f := range section.Fields {
			if !answers.IsPresent(f.ID) {
				continue
			}
			sum += a.fields.Score(f, answers[f.ID])
			answered++
		}

		ss := SectionScore{
			SectionID:   section.ID,
			Title:       section.Title,
			Weight:      section.Weight,
			TotalFields: len(section.Fields),
		}
		if answered > 0 {
			avg := sum / float64(answered)
			numerator += avg * (section.Weight / 10)
			denominator += section.Weight
			ss.Score = round1(avg)
			ss.AnsweredFields = answered
		}
		out.Sections = append(out.Sections, ss)
	}

	total := 0.0
	if denominator > 0 {
		total = numerator / denominator * 100
	}
	out.TotalScore, out.Verdict = summarize(total)
	return out
}

// summarize clamps the raw total to 0..100 and returns it rounded to one
// decimal along with the verdict for the unrounded value. 89.96 is reported
// as 90.0 but stays a Strong Candidate.
func summarize(raw float64) (float64, Verdict) {
	clamped := math.Min(100, math.Max(0, raw))
	return round1(clamped), VerdictFor(clamped)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
