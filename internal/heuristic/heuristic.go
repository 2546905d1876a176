// Package heuristic holds the default per-item scoring function. The
// submission core treats the heuristic as an opaque boundary; this is the
// reference implementation wired in at startup.
package heuristic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const tolerance = 1e-6

// Score grades a single answer against its gold label and returns 1 or 0.
// Values that both parse as numbers compare within a small tolerance;
// everything else compares as a normalized string (trimmed, case-folded).
func Score(answer, label any) float64 {
	an, aok := toNumber(answer)
	ln, lok := toNumber(label)
	if aok && lok {
		if math.Abs(an-ln) <= tolerance {
			return 1
		}
		return 0
	}
	if normalize(answer) == normalize(label) {
		return 1
	}
	return 0
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func normalize(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return strings.ToLower(strings.TrimSpace(s))
}
