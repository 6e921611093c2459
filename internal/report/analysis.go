package report

import (
	"fmt"
	"strings"

	"vc-readiness/internal/catalog"
)

// AnalysisInput is everything the deep analysis reads.
type AnalysisInput struct {
	TotalScore    float64
	SectionScores map[string]float64
	Answers       catalog.Answers
	Stage         catalog.Stage
}

type band struct {
	strong, solid, weak [2]string
}

func (b band) pick(score float64) string {
	switch {
	case score >= 8:
		return b.strong[0] + " " + b.strong[1]
	case score >= 6:
		return b.solid[0] + " " + b.solid[1]
	default:
		return b.weak[0] + " " + b.weak[1]
	}
}

var (
	teamBand = band{
		strong: [2]string{"The founding team demonstrates strong complementary skills and deep market understanding.", "Technical capabilities are well-established and domain expertise provides significant competitive advantages."},
		solid:  [2]string{"Solid team foundation with room for strategic strengthening.", "Consider adding advisors or team members to fill capability gaps, particularly in areas of limited experience."},
		weak:   [2]string{"Team composition requires significant strengthening before investment readiness.", "Focus on recruiting co-founders with complementary skills and proven industry experience."},
	}
	marketBand = band{
		strong: [2]string{"Excellent market positioning with substantial addressable opportunity and favorable timing.", "Market dynamics support aggressive growth strategies and venture-scale returns."},
		solid:  [2]string{"Reasonable market opportunity with moderate growth potential.", "Market timing appears favorable, though competitive dynamics require careful navigation."},
		weak:   [2]string{"Limited market opportunity may constrain venture scalability.", "Consider pivoting to larger adjacent markets or developing strategies to expand addressable market size."},
	}
	fitBand = band{
		strong: [2]string{"Strong product-market fit indicators with clear customer value proposition.", "Solution differentiation provides sustainable competitive advantages."},
		solid:  [2]string{"Promising product-market alignment with validation evidence.", "Continue iterating based on customer feedback to strengthen value proposition."},
		weak:   [2]string{"Product-market fit requires validation and refinement.", "Focus on customer development and rapid experimentation to achieve stronger alignment."},
	}
	competitionBand = band{
		strong: [2]string{"Strong competitive differentiation with multiple defensible advantages.", "Market position should be sustainable against competitive threats."},
		solid:  [2]string{"Moderate competitive advantages requiring continued development.", "Focus on strengthening network effects and customer switching costs."},
		weak:   [2]string{"Limited competitive differentiation increases vulnerability to competition.", "Urgent need to develop sustainable moats and unique positioning."},
	}
	businessBand = band{
		strong: [2]string{"Highly scalable business model with clear path to profitability.", "Revenue streams are diversified and unit economics support venture-scale growth."},
		solid:  [2]string{"Viable business model with good scalability potential.", "Unit economics projections are reasonable though require real-world validation."},
		weak:   [2]string{"Business model requires fundamental refinement for venture viability.", "Focus on improving unit economics and developing scalable revenue streams."},
	}
	unitEconomicsBand = band{
		strong: [2]string{"Excellent unit economics with strong LTV:CAC ratio and low churn rates.", "Financial metrics support aggressive growth investment and scaling strategies."},
		solid:  [2]string{"Solid unit economics foundation with room for optimization.", "Focus on improving customer retention and reducing acquisition costs."},
		weak:   [2]string{"Unit economics require significant improvement for sustainable growth.", "Critical to optimize CAC and LTV before scaling marketing investments."},
	}
)

// DeepAnalysis renders the premium report as markdown-style text.
func (g *Generator) DeepAnalysis(in AnalysisInput) string {
	a := in.Answers
	score := func(id string) float64 { return in.SectionScores[id] }

	parts := []string{
		fmt.Sprintf("**COMPREHENSIVE VC ANALYSIS - SCORE: %s/100**\n", formatScore(in.TotalScore)),
		fmt.Sprintf("*Evaluation Date: %s*\n", g.now().Format("January 02, 2006")),
	}

	section := func(title, id, body string) {
		heading := fmt.Sprintf("**%s (%.1f/10)**", title, score(id))
		if len(parts) > 2 {
			heading = "\n" + heading
		}
		parts = append(parts, heading, body)
	}

	section("FOUNDING TEAM ASSESSMENT", "founding-team",
		fmt.Sprintf("Team composition shows %s founders with %s experience. ",
			raw(a, "team-size"), strings.ToLower(g.label(a, "founder-experience")))+
			teamBand.pick(score("founding-team")))

	section("MARKET OPPORTUNITY ANALYSIS", "market-opportunity",
		fmt.Sprintf("Target market size (%s) with %s growth trends. ",
			g.label(a, "market-size-tam"), strings.ToLower(g.label(a, "market-growth")))+
			marketBand.pick(score("market-opportunity")))

	section("PRODUCT-MARKET FIT EVALUATION", "problem-solution-fit",
		fmt.Sprintf("Addresses %s customer pain points with %s solution approach. ",
			strings.ToLower(g.label(a, "problem-severity")), strings.ToLower(g.label(a, "solution-uniqueness")))+
			fitBand.pick(score("problem-solution-fit")))

	moats := 0
	if list, ok := catalog.AsList(a["defensibility"]); ok {
		moats = len(list)
	}
	section("COMPETITIVE POSITIONING", "competitive-advantage",
		fmt.Sprintf("Competitive positioning with %d identified moats and %s intellectual property protection. ",
			moats, strings.ToLower(g.label(a, "ip-protection")))+
			competitionBand.pick(score("competitive-advantage")))

	section("BUSINESS MODEL VIABILITY", "business-model",
		fmt.Sprintf("Business model based on %s with %s scalability characteristics. ",
			strings.ToLower(g.label(a, "revenue-model")), strings.ToLower(g.label(a, "scalability")))+
			businessBand.pick(score("business-model")))

	if in.Stage == catalog.StageLaunched {
		section("UNIT ECONOMICS ANALYSIS", "unit-economics",
			unitEconomicsLine(a)+unitEconomicsBand.pick(score("unit-economics")))
	}

	parts = append(parts, "\n**INVESTMENT RECOMMENDATION**", InvestmentRecommendation(in.TotalScore, in.Stage))
	return strings.Join(parts, "\n\n")
}

func unitEconomicsLine(a catalog.Answers) string {
	cac, hasCAC := a.Number("cac")
	ltv, hasLTV := a.Number("ltv")
	ratio := 0.0
	if hasCAC && hasLTV && cac > 0 {
		ratio = ltv / cac
	}
	return fmt.Sprintf("Unit economics show $%s CAC, $%s LTV (ratio: %.1f:1), and %s%% monthly churn. ",
		raw(a, "cac"), raw(a, "ltv"), ratio, raw(a, "churn-rate"))
}

func raw(a catalog.Answers, fieldID string) string {
	if v, ok := a.String(fieldID); ok {
		return v
	}
	return "Unknown"
}

// InvestmentRecommendation maps the total score to a recommendation with
// stage-specific next steps.
func InvestmentRecommendation(score float64, stage catalog.Stage) string {
	var rec string
	switch {
	case score >= 85:
		rec = "**STRONG BUY RECOMMENDATION** - This startup merits immediate consideration for lead or co-lead investment. " +
			"All key metrics indicate venture-scale potential with experienced team and validated market opportunity."
	case score >= 75:
		rec = "**QUALIFIED RECOMMENDATION** - Suitable for investment consideration with standard due diligence. " +
			"Strong fundamentals with minor areas for improvement during growth phase."
	case score >= 65:
		rec = "**CONDITIONAL RECOMMENDATION** - Consider for seed investment with active engagement and milestone tracking. " +
			"Good potential but requires hands-on support to achieve venture-scale outcomes."
	case score >= 55:
		rec = "**WATCH LIST** - Monitor progress over 6-12 months before investment consideration. " +
			"Foundational elements present but significant execution risk remains."
	default:
		rec = "**PASS RECOMMENDATION** - Not suitable for venture investment in current form. " +
			"Fundamental issues require resolution before considering any investment."
	}

	if stage == catalog.StageIdea {
		return rec + "\n\n**Next Steps**: Focus on customer validation, MVP development, and early traction metrics before Series A readiness."
	}
	return rec + "\n\n**Next Steps**: Optimize unit economics, scale customer acquisition, and prepare for growth stage metrics tracking."
}

func formatScore(v float64) string {
	return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.1f", v), "0"), ".")
}
