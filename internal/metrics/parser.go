package metrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/beholders/benchsweep/internal/monitoring"
)

// Known carries the values the sweep knows about a run before it starts.
// They fill the row when the engine fails and its output cannot be trusted.
type Known struct {
	Run        string // identifies the run in diagnostics
	FileSize   int64
	ChunkCount int64
	Axis       string
	Fraction   string
	SecretKey  string
}

// Defaults are the placeholders recorded for failed runs.
type Defaults struct {
	Sentinel string
	NFisch   int64
	M        int64
}

// Parser extracts a RunResult from one run's captured output.
type Parser interface {
	Parse(output string, exitCode int, known Known) RunResult
}

// LineParser implements Parser with a Grammar.
type LineParser struct {
	grammar  Grammar
	defaults Defaults
}

// NewParser returns a LineParser for g.
func NewParser(g Grammar, d Defaults) *LineParser {
	if d.Sentinel == "" {
		d.Sentinel = "ERROR"
	}
	return &LineParser{grammar: g, defaults: d}
}

// Parse never fails. A non-zero exit code skips extraction entirely and
// yields a Failure row; on success, missing or malformed lines leave their
// field blank and are logged as warnings.
func (p *LineParser) Parse(output string, exitCode int, known Known) RunResult {
	r := RunResult{
		Axis:      known.Axis,
		Fraction:  known.Fraction,
		SecretKey: known.SecretKey,
		ExitCode:  exitCode,
	}

	if exitCode != 0 {
		r.Status = StatusFailure
		r.FileSize = Int64(known.FileSize)
		r.ChunkCount = Int64(known.ChunkCount)
		r.NFisch = Int64(p.defaults.NFisch)
		r.M = Int64(p.defaults.M)
		r.InitTime = Timing{Sentinel: p.defaults.Sentinel}
		r.ProvingTime = Timing{Sentinel: p.defaults.Sentinel}
		r.FK20Time = Timing{Sentinel: p.defaults.Sentinel}
		return r
	}

	r.Status = StatusSuccess
	raw := p.grammar.Scan(output)
	for _, rule := range p.grammar.Rules {
		text, ok := raw[rule.Field]
		if !ok {
			if !rule.Optional {
				monitoring.Warnf("%s: no %q line in output (grammar %s)", known.Run, rule.Field, p.grammar.Version)
			}
			continue
		}
		if !p.assign(&r, rule.Field, text) {
			monitoring.Warnf("%s: cannot parse %s value %q", known.Run, rule.Field, text)
		}
	}
	return r
}

func (p *LineParser) assign(r *RunResult, f Field, text string) bool {
	switch f {
	case FieldFileSize:
		n, ok := ParseSize(text)
		if ok {
			r.FileSize = Int64(n)
		}
		return ok
	case FieldNumChunks, FieldNFisch, FieldM:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return false
		}
		switch f {
		case FieldNumChunks:
			r.ChunkCount = Int64(n)
		case FieldNFisch:
			r.NFisch = Int64(n)
		default:
			r.M = Int64(n)
		}
		return true
	case FieldInitTime, FieldFK20Time, FieldProvingTime:
		s, ok := ParseSeconds(text)
		if !ok {
			return false
		}
		switch f {
		case FieldInitTime:
			r.InitTime = Seconds(s)
		case FieldFK20Time:
			r.FK20Time = Seconds(s)
		default:
			r.ProvingTime = Seconds(s)
		}
		return true
	}
	return false
}

// ParseSize reads a byte count printed either as a bare integer
// ("131072", "131072 bytes") or in human form ("128 KiB", "1 MiB").
func ParseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	fields := strings.Fields(s)
	if n, err := strconv.ParseInt(fields[0], 10, 64); err == nil {
		if len(fields) == 1 || strings.EqualFold(fields[1], "bytes") || strings.EqualFold(fields[1], "b") {
			return n, true
		}
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n > 1<<62 {
		return 0, false
	}
	return int64(n), true
}

var durationToken = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(ns|µs|μs|us|ms|s)?`)

// ParseSeconds reduces a human duration such as "12.345678s", "2.345ms" or
// "Proving time: 780µs (wall)" to decimal seconds. Only the first number in
// s is considered; a bare number is taken as seconds. The decimal point is
// shifted textually so that "2.345ms" yields exactly 0.002345.
func ParseSeconds(s string) (float64, bool) {
	m := durationToken.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	num, unit := m[1], m[2]
	shift := 0
	switch unit {
	case "ms":
		shift = 3
	case "µs", "μs", "us":
		shift = 6
	case "ns":
		shift = 9
	}
	v, err := strconv.ParseFloat(shiftDecimal(num, shift), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// shiftDecimal divides the unsigned decimal num by 10^places without
// going through floating point.
func shiftDecimal(num string, places int) string {
	if places == 0 {
		return num
	}
	intPart, frac, _ := strings.Cut(num, ".")
	for len(intPart) <= places {
		intPart = "0" + intPart
	}
	cut := len(intPart) - places
	return intPart[:cut] + "." + intPart[cut:] + frac
}
