package evaluation

import (
	"regexp"
	"strings"

	"vc-readiness/internal/catalog"
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// SanitizeString strips HTML tags then escapes the remaining markup characters.
func SanitizeString(s string) string {
	return htmlEscaper.Replace(tagPattern.ReplaceAllString(s, ""))
}

// SanitizeAnswers returns a copy with every string value, including list
// items, sanitised. Non-string values pass through unchanged.
func SanitizeAnswers(answers catalog.Answers) catalog.Answers {
	out := make(catalog.Answers, len(answers))
	for k, v := range answers {
		switch t := v.(type) {
		case string:
			out[k] = SanitizeString(t)
		case []string:
			items := make([]string, len(t))
			for i, item := range t {
				items[i] = SanitizeString(item)
			}
			out[k] = items
		case []interface{}:
			items := make([]interface{}, len(t))
			for i, item := range t {
				if s, ok := item.(string); ok {
					items[i] = SanitizeString(s)
					continue
				}
				items[i] = item
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}
