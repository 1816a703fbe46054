// Package testutil provides shared test utilities and fixtures.
//
// It holds the fake prover transcripts and fake executables used by the
// sweep, metrics and report tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Transcript describes the stdout of one successful prover run.
type Transcript struct {
	FileSize    string
	NumChunks   int
	NFisch      int
	M           int
	InitTime    string
	FK20Time    string
	ProvingTime string
}

// SampleTranscript is the reference output used across packages: a 128 KiB
// payload proved with nfisch=10 and m=16.
var SampleTranscript = Transcript{
	FileSize:    "131072",
	NumChunks:   4096,
	NFisch:      10,
	M:           16,
	InitTime:    "0.002345s",
	ProvingTime: "1.234567s",
}

// String renders the transcript with log noise interleaved, the way the
// engine prints it.
func (tr Transcript) String() string {
	var b strings.Builder
	b.WriteString("Loading trusted setup...\n")
	fmt.Fprintf(&b, "File size: %s\n", tr.FileSize)
	fmt.Fprintf(&b, "Num chunks: %d\n", tr.NumChunks)
	fmt.Fprintf(&b, "[params] nfisch: %d, m: %d\n", tr.NFisch, tr.M)
	fmt.Fprintf(&b, "Initialization time: %s\n", tr.InitTime)
	if tr.FK20Time != "" {
		fmt.Fprintf(&b, "FK20 time: %s\n", tr.FK20Time)
	}
	b.WriteString("mining...\n")
	fmt.Fprintf(&b, "Proving time: %s\n", tr.ProvingTime)
	return b.String()
}

// WriteExecutable writes a /bin/sh script into dir and returns its path.
func WriteExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write executable %s: %v", path, err)
	}
	return path
}
