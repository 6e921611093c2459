package report

import "vc-readiness/internal/catalog"

// Recommendations is the funding guidance unlocked with the premium report.
type Recommendations struct {
	InvestmentReadiness string   `json:"investment_readiness"`
	ValuationRange      string   `json:"valuation_range"`
	RecommendedRound    string   `json:"recommended_round"`
	NextSteps           []string `json:"next_steps"`
}

// Recommend picks guidance by score band (>=80, >=60, below) and stage.
func Recommend(score float64, stage catalog.Stage) Recommendations {
	launched := stage == catalog.StageLaunched
	pick := func(l, i string) string {
		if launched {
			return l
		}
		return i
	}

	switch {
	case score >= 80:
		return Recommendations{
			InvestmentReadiness: pick("Series A Ready", "Seed Ready"),
			ValuationRange:      pick("$10M+", "$3-10M"),
			RecommendedRound:    pick("Series A", "Seed"),
			NextSteps: []string{
				"Prepare comprehensive due diligence materials",
				"Develop 18-month growth projections",
				"Build strategic advisor network",
				"Establish key performance metrics dashboard",
			},
		}
	case score >= 60:
		return Recommendations{
			InvestmentReadiness: pick("Seed Ready", "Pre-Seed Ready"),
			ValuationRange:      pick("$3-10M", "$0.5-3M"),
			RecommendedRound:    pick("Seed", "Pre-Seed"),
			NextSteps: []string{
				"Focus on customer validation and early traction",
				"Strengthen competitive moats and IP protection",
				"Prepare detailed financial projections",
				"Build strategic partnerships in target industry",
			},
		}
	default:
		return Recommendations{
			InvestmentReadiness: pick("Pre-Seed", "Bootstrap/Accelerator"),
			ValuationRange:      pick("$0.5-3M", "$0.1-1M"),
			RecommendedRound:    pick("Pre-Seed", "Bootstrap"),
			NextSteps: []string{
				"Validate product-market fit with target customers",
				"Develop minimum viable product (MVP)",
				"Establish clear value proposition and pricing",
				"Build founding team and advisory board",
			},
		}
	}
}
