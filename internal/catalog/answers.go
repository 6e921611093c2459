package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Answers maps field id to the submitted value: string, number, list of
// strings or nil. Decoded JSON lists arrive as []interface{}.
type Answers map[string]interface{}

// IsPresent reports whether a value was given: not absent, nil or "".
// An empty list is present.
func (a Answers) IsPresent(fieldID string) bool {
	v, ok := a[fieldID]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

// IsCompleted is IsPresent plus non-empty for lists.
func (a Answers) IsCompleted(fieldID string) bool {
	if !a.IsPresent(fieldID) {
		return false
	}
	if list, ok := AsList(a[fieldID]); ok {
		return len(list) > 0
	}
	return true
}

// String returns the value as a string when it is a scalar.
func (a Answers) String(fieldID string) (string, bool) {
	if !a.IsPresent(fieldID) {
		return "", false
	}
	return AsString(a[fieldID])
}

// Number returns the value as a float when it is numeric or a numeric string.
func (a Answers) Number(fieldID string) (float64, bool) {
	if !a.IsPresent(fieldID) {
		return 0, false
	}
	return AsNumber(a[fieldID])
}

// Clone returns a shallow copy with list values copied.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if list, ok := AsList(v); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// AsList converts []string and []interface{} values to []string.
func AsList(v interface{}) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	default:
		return nil, false
	}
}

// AsString formats scalar values. Numbers use the shortest representation
// ("2" for 2.0) so they can match option values.
func AsString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// AsNumber converts numbers and numeric strings.
func AsNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
