// Package metrics turns the prover's console output into RunResult records.
//
// The engine has no machine-readable output; it prints a handful of labelled
// lines. Those labels are collected into a Grammar so that a change in the
// engine's wording means a new Grammar value, not a change to the sweep.
package metrics

import (
	"regexp"
	"strings"
)

// Field identifies one value the grammar can extract.
type Field int

const (
	FieldFileSize Field = iota
	FieldNumChunks
	FieldNFisch
	FieldM
	FieldInitTime
	FieldFK20Time
	FieldProvingTime
)

func (f Field) String() string {
	switch f {
	case FieldFileSize:
		return "file size"
	case FieldNumChunks:
		return "num chunks"
	case FieldNFisch:
		return "nfisch"
	case FieldM:
		return "m"
	case FieldInitTime:
		return "initialization time"
	case FieldFK20Time:
		return "fk20 time"
	case FieldProvingTime:
		return "proving time"
	}
	return "unknown"
}

// Rule locates one field. Pattern is applied to each line; the first
// submatch is the raw value.
type Rule struct {
	Field    Field
	Pattern  *regexp.Regexp
	Optional bool // absence is not worth a warning
}

// Grammar is a versioned set of extraction rules.
type Grammar struct {
	Version string
	Rules   []Rule
}

// GrammarV1 matches the engine's current output:
//
//	File size: 131072
//	Num chunks: 4096
//	... nfisch: 10 ... m: 16
//	Initialization time: 2.345ms
//	FK20 time: 0.5s
//	Proving time: 1.234567s
var GrammarV1 = Grammar{
	Version: "v1",
	Rules: []Rule{
		{Field: FieldFileSize, Pattern: regexp.MustCompile(`File size:\s*(.+?)\s*$`)},
		{Field: FieldNumChunks, Pattern: regexp.MustCompile(`Num chunks:\s*(-?\d+)`)},
		{Field: FieldNFisch, Pattern: regexp.MustCompile(`\bnfisch:\s*(-?\d+)`)},
		{Field: FieldM, Pattern: regexp.MustCompile(`\bm:\s*(-?\d+)`)},
		{Field: FieldInitTime, Pattern: regexp.MustCompile(`Initialization time:\s*(.+?)\s*$`)},
		{Field: FieldFK20Time, Pattern: regexp.MustCompile(`FK20 time:\s*(.+?)\s*$`), Optional: true},
		{Field: FieldProvingTime, Pattern: regexp.MustCompile(`Proving time:\s*(.+?)\s*$`)},
	},
}

// Scan walks output line by line and returns the first raw match per field.
// Later duplicates are ignored.
func (g Grammar) Scan(output string) map[Field]string {
	found := make(map[Field]string, len(g.Rules))
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, r := range g.Rules {
			if _, ok := found[r.Field]; ok {
				continue
			}
			if m := r.Pattern.FindStringSubmatch(line); m != nil {
				found[r.Field] = m[1]
			}
		}
	}
	return found
}
