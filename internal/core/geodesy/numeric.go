package geodesy

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a survey cell to a float. Numbers pass through
// unchanged. Strings are trimmed, the first comma is read as a decimal
// point, and the rest must be a float literal. Anything else, including
// empty strings and nil, yields NaN. It never panics.
func ParseNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return math.NaN()
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		return parseString(string(n))
	case string:
		return parseString(n)
	case *string:
		if n == nil {
			return math.NaN()
		}
		return parseString(*n)
	case *float64:
		if n == nil {
			return math.NaN()
		}
		return *n
	default:
		return math.NaN()
	}
}

// ParseOptional is ParseNumber with an explicit presence flag. Non-finite
// results are reported as missing.
func ParseOptional(v any) (float64, bool) {
	f := ParseNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
