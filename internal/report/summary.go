// Package report writes the executive summary shown with every score, the
// premium deep analysis and the funding-round recommendations.
package report

import (
	"strings"
	"time"

	"vc-readiness/internal/catalog"
	"vc-readiness/internal/scoring"
)

var executiveSummaries = map[string]string{
	scoring.CategoryUnicorn: "This startup demonstrates exceptional potential across all key metrics. The founding team combines deep domain expertise with proven execution capabilities, addressing a massive market opportunity with breakthrough innovation. Strong competitive moats and validated traction indicate unicorn-scale potential.",

	scoring.CategoryStrong: "A compelling investment opportunity with strong fundamentals. The team shows solid experience and technical capabilities, targeting a substantial market with clear customer pain points. Well-defined business model with promising early validation metrics.",

	scoring.CategoryPromising: "Shows meaningful potential but requires focused execution improvements. Core concept is sound with identifiable market opportunity, though competitive positioning and go-to-market strategy need strengthening. Good foundation for seed-stage investment.",

	scoring.CategoryEarly: "Early-stage potential with foundational elements in place. Market opportunity exists but validation is limited. Team capabilities are developing and business model requires refinement. Suitable for pre-seed or accelerator programs.",

	scoring.CategoryNotReady: "Significant foundational work needed before investment readiness. Core assumptions require validation, team composition needs strengthening, and market approach requires substantial refinement. Focus on customer development and product-market fit validation.",
}

// Generator renders report text from answers and scores.
type Generator struct {
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewGenerator(cat *catalog.Catalog) *Generator {
	return &Generator{catalog: cat, now: time.Now}
}

// ExecutiveSummary picks the text for the verdict category and appends
// observations about team, market size and traction.
func (g *Generator) ExecutiveSummary(verdict scoring.Verdict, answers catalog.Answers) string {
	summary, ok := executiveSummaries[verdict.Category]
	if !ok {
		summary = executiveSummaries[scoring.CategoryNotReady]
	}
	if obs := observations(answers); obs != "" {
		summary += " " + obs
	}
	return summary
}

func observations(answers catalog.Answers) string {
	var out []string

	switch exp, _ := answers.String("founder-experience"); exp {
	case "serial-entrepreneurs", "industry-veterans":
		out = append(out, "Strong founding team with proven track record")
	case "first-time":
		out = append(out, "First-time entrepreneurs may benefit from experienced advisors")
	}

	switch tam, _ := answers.String("market-size-tam"); tam {
	case "1b-10b", "over-10b":
		out = append(out, "addresses substantial market opportunity")
	case "under-100m":
		out = append(out, "limited market size may constrain scalability")
	}

	switch count, _ := answers.String("customer-count"); count {
	case "101-500", "500+":
		out = append(out, "demonstrates meaningful customer traction")
	}

	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, ". ") + "."
}

// label returns the option label for a choice answer, the raw value with
// dashes spaced out otherwise, or "Unknown".
func (g *Generator) label(answers catalog.Answers, fieldID string) string {
	value, ok := answers.String(fieldID)
	if !ok {
		return "Unknown"
	}
	if f, ok := g.catalog.Field(fieldID); ok {
		if idx := f.OptionIndex(value); idx >= 0 {
			return f.Options[idx].Label
		}
	}
	return strings.ReplaceAll(value, "-", " ")
}
