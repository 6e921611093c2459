package scoring

import (
	"math"

	"vc-readiness/internal/catalog"
)

// Completion holds per-section and overall completion percentages (0..100).
type Completion struct {
	PerSection map[string]int `json:"per_section"`
	Overall    int            `json:"overall"`
}

// ComputeCompletion counts completed fields per applicable section. A
// percentage only reads 100 when nothing is missing; a value that would
// round up to 100 is held at 99. Overall is the unweighted mean of the
// section percentages.
func ComputeCompletion(answers catalog.Answers, stage catalog.Stage, cat *catalog.Catalog) Completion {
	sections := cat.SectionsFor(stage)
	out := Completion{PerSection: make(map[string]int, len(sections))}
	if len(sections) == 0 {
		return out
	}

	sum := 0
	allComplete := true
	for _, section := range sections {
		done := 0
		for _, f := range section.Fields {
			if answers.IsCompleted(f.ID) {
				done++
			}
		}
		pct := percent(done, len(section.Fields))
		out.PerSection[section.ID] = pct
		sum += pct
		if done < len(section.Fields) {
			allComplete = false
		}
	}

	overall := int(math.Round(float64(sum) / float64(len(sections))))
	if overall >= 100 && !allComplete {
		overall = 99
	}
	out.Overall = overall
	return out
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	pct := int(math.Round(float64(done) * 100 / float64(total)))
	if pct >= 100 && done < total {
		return 99
	}
	return pct
}
