package metrics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/testutil"
)

func captureWarnings(t *testing.T) *[]string {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.SetLogger(original) })

	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	return &lines
}

var defaults = Defaults{Sentinel: "ERROR", NFisch: 10, M: 16}

func TestLineParser_SampleTranscript(t *testing.T) {
	warnings := captureWarnings(t)
	p := NewParser(GrammarV1, defaults)

	got := p.Parse(testutil.SampleTranscript.String(), 0, Known{
		Run: "pow_128KiB_f1_d14_i1", FileSize: 131072, ChunkCount: 4096,
		Axis: "14", Fraction: "1", SecretKey: "data/sk.bin",
	})

	want := RunResult{
		FileSize:    Int64(131072),
		ChunkCount:  Int64(4096),
		NFisch:      Int64(10),
		Axis:        "14",
		M:           Int64(16),
		InitTime:    Seconds(0.002345),
		ProvingTime: Seconds(1.234567),
		Fraction:    "1",
		SecretKey:   "data/sk.bin",
		Status:      StatusSuccess,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, *warnings, "FK20 line is optional and must not warn")
	assert.Equal(t, "0.002345", got.InitTime.String())
	assert.Equal(t, "1.234567", got.ProvingTime.String())
}

func TestLineParser_FailureUsesSentinels(t *testing.T) {
	p := NewParser(GrammarV1, defaults)

	// Output is ignored on failure, even when it looks complete.
	got := p.Parse(testutil.SampleTranscript.String(), 2, Known{
		FileSize: 131072, ChunkCount: 4096, Axis: "16", Fraction: "1/4", SecretKey: "sk.bin",
	})

	assert.Equal(t, StatusFailure, got.Status)
	assert.Equal(t, 2, got.ExitCode)
	require.NotNil(t, got.FileSize)
	assert.Equal(t, int64(131072), *got.FileSize)
	require.NotNil(t, got.ChunkCount)
	assert.Equal(t, int64(4096), *got.ChunkCount)
	assert.Equal(t, int64(10), *got.NFisch)
	assert.Equal(t, int64(16), *got.M)
	assert.Equal(t, "ERROR", got.InitTime.String())
	assert.Equal(t, "ERROR", got.ProvingTime.String())
	assert.False(t, got.ProvingTime.Valid)
	assert.Equal(t, "1/4", got.Fraction)
}

func TestLineParser_MissingLinesAreBlank(t *testing.T) {
	warnings := captureWarnings(t)
	p := NewParser(GrammarV1, defaults)

	out := "File size: 262144\nsomething went sideways\n"
	got := p.Parse(out, 0, Known{Run: "r1", FileSize: 262144, ChunkCount: 8192})

	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, int64(262144), *got.FileSize)
	assert.Nil(t, got.ChunkCount, "success rows never borrow static values")
	assert.Nil(t, got.NFisch)
	assert.Nil(t, got.M)
	assert.Equal(t, "", got.InitTime.String())
	assert.Equal(t, "", got.ProvingTime.String())

	joined := strings.Join(*warnings, "\n")
	for _, f := range []string{"num chunks", "nfisch", "initialization time", "proving time"} {
		assert.Contains(t, joined, f)
	}
	assert.NotContains(t, joined, "fk20")
}

func TestLineParser_MalformedValues(t *testing.T) {
	warnings := captureWarnings(t)
	p := NewParser(GrammarV1, defaults)

	out := strings.Join([]string{
		"File size: lots",
		"Num chunks: 4096",
		"Initialization time: soon",
		"Proving time: 3.5s",
	}, "\n")
	got := p.Parse(out, 0, Known{Run: "r2"})

	assert.Nil(t, got.FileSize)
	assert.Equal(t, int64(4096), *got.ChunkCount)
	assert.False(t, got.InitTime.Valid)
	assert.Equal(t, 3.5, got.ProvingTime.Seconds)
	assert.NotEmpty(t, *warnings)
}

func TestLineParser_NoiseAndDuplicates(t *testing.T) {
	captureWarnings(t)
	p := NewParser(GrammarV1, defaults)

	out := "\r\n[2026-10-19T10:00:00Z INFO] Algorithm: 7\r\n" +
		"[INFO] File size: 128 KiB\r\n" +
		"[INFO] Num chunks: 4096\r\n" +
		"nfisch: 12\r\n" +
		"m: 8\r\n" +
		"Initialization time: 2.345ms\r\n" +
		"FK20 time: 780µs\r\n" +
		"Proving time: 7.212863475s\r\n" +
		"Proving time: 99s\r\n"
	got := p.Parse(out, 0, Known{})

	assert.Equal(t, int64(131072), *got.FileSize)
	assert.Equal(t, int64(12), *got.NFisch)
	assert.Equal(t, int64(8), *got.M, "Algorithm: must not be read as m:")
	assert.Equal(t, 0.002345, got.InitTime.Seconds)
	assert.Equal(t, 0.00078, got.FK20Time.Seconds)
	assert.Equal(t, 7.212863475, got.ProvingTime.Seconds, "first occurrence wins")
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.345678s", 12.345678, true},
		{"0.002345s", 0.002345, true},
		{"2.345ms", 0.002345, true},
		{"1500ms", 1.5, true},
		{"780µs", 0.00078, true},
		{"780us", 0.00078, true},
		{"42ns", 0.000000042, true},
		{"1.25", 1.25, true},
		{"took 3.5 s overall", 3.5, true},
		{"soon", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSeconds(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"131072", 131072, true},
		{"131072 bytes", 131072, true},
		{"128 KiB", 131072, true},
		{"1 MiB", 1048576, true},
		{"  4096  ", 4096, true},
		{"", 0, false},
		{"lots", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSize(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunResult_MiningTime(t *testing.T) {
	r := RunResult{ProvingTime: Seconds(2.5), FK20Time: Seconds(0.5)}
	assert.Equal(t, "2", r.MiningTime().String())

	r = RunResult{ProvingTime: Seconds(2.5)}
	assert.Equal(t, "", r.MiningTime().String())

	r = RunResult{ProvingTime: Timing{Sentinel: "ERROR"}, FK20Time: Timing{Sentinel: "ERROR"}}
	assert.Equal(t, "ERROR", r.MiningTime().String())
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "", FormatInt(nil))
	assert.Equal(t, "4096", FormatInt(Int64(4096)))
}

func TestGrammarScan_Fields(t *testing.T) {
	raw := GrammarV1.Scan("nfisch: 10, m: 16\n")
	assert.Equal(t, map[Field]string{FieldNFisch: "10", FieldM: "16"}, raw)
	assert.Equal(t, "proving time", FieldProvingTime.String())
	assert.Equal(t, "unknown", Field(99).String())
}
