package notify

import (
	"fmt"
	"strconv"
	"strings"
)

func templateData(e Event) map[string]interface{} {
	return map[string]interface{}{
		"evaluationId": e.EvaluationID,
		"stage":        e.Stage,
		"totalScore":   e.TotalScore,
		"verdict":      e.Verdict,
		"category":     e.Category,
	}
}

// renderTemplate substitutes {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case float64:
			value = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
		default:
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func render(e Event) (subject, body string, err error) {
	tmpl, ok := templates[e.Type]
	if !ok {
		return "", "", fmt.Errorf("template not found for event type: %s", e.Type)
	}
	data := templateData(e)
	return renderTemplate(tmpl["subject"], data), renderTemplate(tmpl["body"], data), nil
}
