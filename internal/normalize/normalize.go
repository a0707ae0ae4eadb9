// Package normalize converts a merged quote submission into the flat
// snake_case wire format the quotes table expects. All functions are pure:
// inputs are never mutated and no call can fail.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Field lists are declared statically so the shape of the normalized record
// stays reviewable in one place. These are the only fields that receive type
// coercion; the empty-string catch-all covers everything else.
var (
	// NumericFields are coerced to float64 or null
	NumericFields = []string{
		"specific_budget",
		"down_payment",
		"annual_revenue",
		"trade_in_value",
	}

	// IntegerFields are coerced to int64 or null
	IntegerFields = []string{
		"trade_in_year",
		"trade_in_hours",
	}

	// DateFields are nulled when empty, otherwise left as the caller's string
	DateFields = []string{
		"delivery_date",
		"preferred_date",
		"latest_date",
	}
)

// ToSnakeCase converts a camelCase key to snake_case.
// "zipCode" becomes "zip_code"; keys without uppercase letters pass through.
func ToSnakeCase(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteByte(byte(r - 'A' + 'a'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TransformKeys recursively converts map keys to snake_case. It descends into
// nested maps and into maps inside slices; non-object slice elements and
// scalars pass through unchanged.
func TransformKeys(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, val := range v {
			out[ToSnakeCase(key)] = TransformKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = TransformKeys(item)
		}
		return out
	default:
		return value
	}
}

// Normalize applies the typed coercion rules and the empty-string catch-all
// to a flat snake_case record. The input map is not modified; the coercion
// field lists always end up present in the output, null when empty or absent.
// Malformed numeric text becomes null rather than an error.
func Normalize(record map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(record)+4)
	for k, v := range record {
		out[k] = v
	}

	for _, field := range NumericFields {
		out[field] = coerceNumber(out[field])
	}

	for _, field := range IntegerFields {
		out[field] = coerceInteger(out[field])
	}

	for _, field := range DateFields {
		if isEmpty(out[field]) {
			out[field] = nil
		}
	}

	// Null-safety net for every key the typed passes did not touch
	for k, v := range out {
		if s, ok := v.(string); ok && s == "" {
			out[k] = nil
		}
	}

	return out
}

func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func coerceNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		return finiteOrNil(n)
	case float32:
		return finiteOrNil(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if n == "" {
			return nil
		}
		// ParseFloat accepts "NaN" and "Inf"; the quotes table holds
		// JSON-representable numbers only
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		return finiteOrNil(f)
	default:
		return nil
	}
}

func finiteOrNil(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// coerceInteger follows base-10 leading-digit parsing: "2018" and 2018.9
// both become 2018, anything without a leading integer becomes null.
func coerceInteger(v interface{}) interface{} {
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		return int64(n)
	case int64:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return int64(n)
	case string:
		if n == "" {
			return nil
		}
		i, ok := parseLeadingInt(strings.TrimSpace(n))
		if !ok {
			return nil
		}
		return i
	default:
		return nil
	}
}

func parseLeadingInt(s string) (int64, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == end {
		return 0, false
	}
	i, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}
