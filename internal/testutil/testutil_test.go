package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleTranscript(t *testing.T) {
	t.Parallel()

	out := SampleTranscript.String()
	for _, want := range []string{
		"File size: 131072",
		"Num chunks: 4096",
		"nfisch: 10",
		"m: 16",
		"Initialization time: 0.002345s",
		"Proving time: 1.234567s",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "FK20", "FK20 line is omitted when unset")

	tr := SampleTranscript
	tr.FK20Time = "0.5s"
	assert.Contains(t, tr.String(), "FK20 time: 0.5s")
}

func TestWriteExecutable(t *testing.T) {
	t.Parallel()

	path := WriteExecutable(t, t.TempDir(), "engine", "echo ok")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0111, "mode %v is not executable", info.Mode())

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho ok\n", string(body))
}
