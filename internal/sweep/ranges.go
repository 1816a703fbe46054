// Package sweep drives the prover or verifier across a grid of payload
// sizes, fractions, difficulties or modes and iterations.
//
// The driver is strictly sequential. Every run is guarded against
// interruption, its log is kept under the result directory and its metrics
// are appended to the result store before the next run starts.
package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// IntRangeSpec is an inclusive integer range written "min:max:step".
type IntRangeSpec struct {
	Min, Max, Step int
}

// ParseIntRangeSpec parses "min:max:step". Blanks around each field are
// ignored and step must be positive.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return IntRangeSpec{}, fmt.Errorf("range %q: want min:max:step", s)
	}
	var v [3]int
	for i, name := range []string{"min", "max", "step"} {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil {
			return IntRangeSpec{}, fmt.Errorf("range %q: bad %s: %w", s, name, err)
		}
		v[i] = n
	}
	if v[2] <= 0 {
		return IntRangeSpec{}, fmt.Errorf("range %q: step %d is not positive", s, v[2])
	}
	return IntRangeSpec{Min: v[0], Max: v[1], Step: v[2]}, nil
}

// maxValues bounds any generated list so a typo cannot schedule a
// week-long sweep.
const maxValues = 1000

// GenerateIntRange expands an inclusive range. It returns nil for an empty
// or backwards range, a non-positive step, or more than maxValues values.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	n := (max-min)/step + 1
	if n > maxValues {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = min + i*step
	}
	return out
}

// ParseCSVInts parses a comma-separated list of integers.
func ParseCSVInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseIntParamList parses a comma-separated list of integers or a
// "min:max:step" range specification.
func ParseIntParamList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	if strings.Contains(s, ":") {
		spec, err := ParseIntRangeSpec(s)
		if err != nil {
			return nil, err
		}
		v := GenerateIntRange(spec.Min, spec.Max, spec.Step)
		if v == nil {
			return nil, fmt.Errorf("range %q is empty or longer than %d values", s, maxValues)
		}
		return v, nil
	}
	return ParseCSVInts(s)
}

// ParseFractionList parses fraction denominators. Each element may be written
// as "4" or "1/4".
func ParseFractionList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if num, den, ok := strings.Cut(p, "/"); ok {
			if strings.TrimSpace(num) != "1" {
				return nil, fmt.Errorf("invalid fraction '%s': numerator must be 1", p)
			}
			p = strings.TrimSpace(den)
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid fraction '%s': %w", p, err)
		}
		if v < 1 {
			return nil, fmt.Errorf("invalid fraction '%s': denominator must be positive", p)
		}
		out = append(out, v)
	}
	return out, nil
}
