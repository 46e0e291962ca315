// internal/normalize/coerce.go
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Str coerces a decoded JSON value to a trimmed string. Numeric ids are
// formatted without an exponent so "42" and 42 resolve identically.
func Str(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// Number coerces a decoded JSON value to a float64. Null, missing,
// non-numeric strings, NaN and infinities all become 0 so that no NaN
// ever reaches downstream arithmetic or comparisons.
func Number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

// Bool coerces a decoded JSON value to a bool. Strings "true" and "1"
// count as true; numbers count as true when non-zero.
func Bool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		return s == "true" || s == "1"
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}

// Time coerces a decoded JSON value to a time.Time. Strings are tried
// against the formats seen from upstream; numbers are unix seconds, or
// unix milliseconds when too large to be a plausible seconds value.
// Unparseable values yield the zero time.
func Time(v any) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02",
		} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return time.Time{}
	case float64:
		return unixTime(int64(t))
	case int64:
		return unixTime(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return unixTime(n)
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}

// FirstString returns the first key whose value coerces to a non-empty
// string, in candidate order.
func FirstString(r Raw, keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s := Str(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// FirstNumber returns the first key that is present with a non-nil
// value, coerced to a number. The second return reports presence, which
// callers use to tell an upstream-supplied 0 apart from an absent field.
func FirstNumber(r Raw, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return Number(v), true
		}
	}
	return 0, false
}

// FirstTime returns the first key whose value coerces to a non-zero
// time, in candidate order.
func FirstTime(r Raw, keys ...string) time.Time {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if ts := Time(v); !ts.IsZero() {
				return ts
			}
		}
	}
	return time.Time{}
}

// Child returns a nested object value as a Raw, when present.
func Child(r Raw, key string) (Raw, bool) {
	v, ok := r[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// List returns a nested array value as a slice of Raw, skipping
// elements that are not objects.
func List(r Raw, key string) []Raw {
	v, ok := r[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Raw, 0, len(arr))
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func unixTime(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	// Heuristic: values above 1e12 are unix milliseconds.
	if n > 1_000_000_000_000 {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}
