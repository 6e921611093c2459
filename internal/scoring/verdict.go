package scoring

// Verdict is the tier label derived from a total score.
type Verdict struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
}

const (
	CategoryUnicorn   = "unicorn"
	CategoryStrong    = "strong"
	CategoryPromising = "promising"
	CategoryEarly     = "early"
	CategoryNotReady  = "not-ready"
)

var verdictTiers = []struct {
	min     float64
	verdict Verdict
}{
	{90, Verdict{Text: "Unicorn Potential", Category: CategoryUnicorn, Emoji: "🦄"}},
	{80, Verdict{Text: "Strong Candidate", Category: CategoryStrong, Emoji: "🚀"}},
	{70, Verdict{Text: "Promising but Needs Work", Category: CategoryPromising, Emoji: "📈"}},
	{60, Verdict{Text: "Early Potential", Category: CategoryEarly, Emoji: "🔧"}},
}

var notReady = Verdict{Text: "Not Investment-Ready", Category: CategoryNotReady, Emoji: "⚠️"}

// VerdictFor checks tiers highest first; lower bounds are inclusive.
func VerdictFor(score float64) Verdict {
	for _, tier := range verdictTiers {
		if score >= tier.min {
			return tier.verdict
		}
	}
	return notReady
}
