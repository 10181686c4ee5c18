// Package particle provides value parsing helpers for particle field configuration.
package particle

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// ParseRange parses a range string from particle configuration.
// Supports two formats:
//   - Fixed value: "2.5" → min=2.5, max=2.5
//   - Range: "[1 3]" → min=1, max=3
//
// A reversed range ("[3 1]") is normalized so that min <= max.
// NaN and infinite values are rejected.
func ParseRange(s string) (min, max float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, fmt.Errorf("empty range")
	}

	if !strings.HasPrefix(s, "[") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid value %q: %w", s, err)
		}
		if !isFinite(v) {
			return 0, 0, fmt.Errorf("value %q must be finite", s)
		}
		return v, v, nil
	}

	if !strings.HasSuffix(s, "]") {
		return 0, 0, fmt.Errorf("unterminated range %q", s)
	}

	parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("range %q must have exactly two values", s)
	}

	min, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range min %q: %w", parts[0], err)
	}
	max, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range max %q: %w", parts[1], err)
	}

	if !isFinite(min) || !isFinite(max) {
		return 0, 0, fmt.Errorf("range %q must be finite", s)
	}

	if min > max {
		min, max = max, min
	}
	return min, max, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// RandomInRange returns a random float64 in the range [min, max] drawn from rng.
func RandomInRange(rng *rand.Rand, min, max float64) float64 {
	if min >= max {
		return min
	}
	return min + rng.Float64()*(max-min)
}
