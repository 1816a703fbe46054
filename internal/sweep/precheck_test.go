package sweep

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beholders/benchsweep/internal/fsutil"
)

func TestCheckPreconditions(t *testing.T) {
	verifier := []AxisPoint{{Mode: ModeVerifier}}
	prover := DifficultyAxis([]int{8, 10})

	testCases := []struct {
		name     string
		axis     []AxisPoint
		verifier bool
		remove   string
		wantKind string
	}{
		{"all present", prover, false, "", ""},
		{"verifier all present", verifier, true, "", ""},
		{"binary", prover, false, "bin/beholders", "executable"},
		{"secret key", prover, false, "data/sk.bin", "secret key"},
		{"public key", verifier, true, "data/pk.bin", "public key"},
		{"payload", prover, false, "data/data256.bin", "payload"},
		{"setup", prover, false, "data/setup_8192.bin", "trusted setup"},
		{"commitment", verifier, true, "data/com128.bin", "commitment"},
		{"signature", verifier, true, "data/sig256.bin", "signature"},
		// Provers produce commitments, they do not need them.
		{"prover ignores signature", prover, true, "data/sig256.bin", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := fsutil.NewMemoryFileSystem()
			layout := testLayout(KindRole)
			grid := Grid{Sizes: []int{128, 256}, Axis: tc.axis, Iterations: 1}
			seedInputs(t, fs, layout, grid.Sizes, tc.verifier)
			if tc.remove != "" {
				require.NoError(t, fs.Remove(tc.remove))
			}

			err := CheckPreconditions(fs, layout, grid)
			if tc.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			var pre *PreconditionError
			require.True(t, errors.As(err, &pre), "want *PreconditionError, got %v", err)
			assert.Equal(t, tc.wantKind, pre.Kind)
			assert.Equal(t, tc.remove, pre.Path)
			assert.Contains(t, err.Error(), tc.remove)
		})
	}
}

func TestCheckPreconditions_BinaryIsDirectory(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	layout := testLayout(KindPow)
	grid := Grid{Sizes: []int{128}, Axis: DifficultyAxis([]int{8}), Iterations: 1}
	seedInputs(t, fs, layout, grid.Sizes, false)
	layout.Binary = "bin"
	require.NoError(t, fs.MkdirAll("bin", 0755))

	var pre *PreconditionError
	require.ErrorAs(t, CheckPreconditions(fs, layout, grid), &pre)
	assert.Equal(t, "executable", pre.Kind)
}

func TestCheckPreconditions_BareNameUsesPath(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	fs := fsutil.NewMemoryFileSystem()
	layout := testLayout(KindPow)
	grid := Grid{Sizes: []int{128}, Axis: DifficultyAxis([]int{8}), Iterations: 1}
	seedInputs(t, fs, layout, grid.Sizes, false)
	layout.Binary = "beholders"

	var looked string
	lookPath = func(file string) (string, error) {
		looked = file
		return "/usr/local/bin/" + file, nil
	}
	require.NoError(t, CheckPreconditions(fs, layout, grid))
	assert.Equal(t, "beholders", looked)

	lookPath = func(file string) (string, error) { return "", errors.New("not found") }
	var pre *PreconditionError
	require.ErrorAs(t, CheckPreconditions(fs, layout, grid), &pre)
	assert.Equal(t, "beholders", pre.Path)
}
