package literal

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Serialize converts a JSON-compatible value into a CheckMK Python-literal
// string. The conversion follows CheckMK's value_raw conventions:
//
//   - JSON arrays become tuples, since that is what CheckMK rule values use.
//   - A 2-element array whose first element is a string and whose second is
//     an array becomes the common ("kind", (warn, crit)) tagged tuple.
//   - A 2-element array of two numbers becomes a plain threshold pair.
//   - Dicts use single-quoted keys, booleans are spelled True/False and null
//     becomes None.
//   - A string that already starts like a literal is passed through verbatim
//     so callers can embed pre-formatted values.
//
// Serialize is a pure function and safe for concurrent use.
func Serialize(v any) string {
	switch v := v.(type) {
	case *Map:
		parts := make([]string, 0, v.Len())
		for _, k := range v.keys {
			parts = append(parts, quoteString(k)+": "+Serialize(v.values[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case map[string]any:
		// Plain maps carry no order; sort keys so output stays deterministic.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, quoteString(k)+": "+Serialize(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		return serializeSequence(v)
	case string:
		if looksLikeLiteral(v) {
			return v
		}
		return quoteString(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case nil:
		return "None"
	default:
		// Degraded path for values outside the JSON model; produces a
		// best-effort rendering instead of failing.
		return fmt.Sprintf("%v", v)
	}
}

func serializeSequence(seq []any) string {
	if len(seq) == 2 {
		// ("kind", (...)) pattern, checked before the numeric pair.
		if tag, ok := seq[0].(string); ok {
			if _, isSeq := seq[1].([]any); isSeq {
				return "(" + quoteString(tag) + ", " + Serialize(seq[1]) + ")"
			}
		}
		if isNumber(seq[0]) && isNumber(seq[1]) {
			return "(" + Serialize(seq[0]) + ", " + Serialize(seq[1]) + ")"
		}
	}
	elems := make([]string, len(seq))
	for i, e := range seq {
		elems[i] = Serialize(e)
	}
	// A one-tuple needs the trailing comma, otherwise the parentheses read
	// as grouping.
	if len(elems) == 1 {
		return "(" + elems[0] + ",)"
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, int, int64, float64:
		return true
	}
	return false
}

// looksLikeLiteral reports whether s already reads as a Python literal and
// should be transmitted without quoting.
func looksLikeLiteral(s string) bool {
	trimmed := strings.TrimSpace(s)
	for _, prefix := range []string{"{", "(", "[", "True", "False", "None"} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

func quoteString(s string) string {
	if strings.ContainsAny(s, `'\`) {
		s = strings.ReplaceAll(s, `\`, `\\`)
		s = strings.ReplaceAll(s, `'`, `\'`)
	}
	return "'" + s + "'"
}

func formatFloat(f float64) string {
	// Whole floats keep their ".0" so the API can tell them apart from
	// integers, matching how CheckMK spells float thresholds.
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
