package sweep

import (
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beholders/benchsweep/internal/config"
)

func TestParseFlags_Pow(t *testing.T) {
	var out strings.Builder
	c, err := ParseFlags("pow-sweep", KindPow, []string{
		"--num-iterations", "3", "--continue", "--sizes", "128:512:128", "--difficulties", "8,12",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumIterations)
	assert.True(t, c.Continue)
	assert.Equal(t, "128:512:128", c.Sizes)
	assert.Equal(t, "8,12", c.Difficulties)
	assert.Empty(t, out.String())
}

func TestParseFlags_Errors(t *testing.T) {
	testCases := []struct {
		name string
		kind Kind
		args []string
		msg  string
	}{
		{"missing iterations", KindPow, nil, "--num-iterations"},
		{"zero iterations", KindPow, []string{"--num-iterations", "0"}, "--num-iterations"},
		{"not a number", KindPow, []string{"--num-iterations", "many"}, "invalid value"},
		{"both state flags", KindPow, []string{"--num-iterations", "1", "--overwrite", "--continue"}, "mutually exclusive"},
		{"stray argument", KindPow, []string{"--num-iterations", "1", "extra"}, "unexpected arguments"},
		{"no role", KindRole, []string{"--num-iterations", "1"}, "exactly one"},
		{"both roles", KindRole, []string{"--num-iterations", "1", "--prover", "--verifier"}, "exactly one"},
		{"role flag on pow", KindPow, []string{"--num-iterations", "1", "--prover"}, "not defined"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			_, err := ParseFlags("tool", tc.kind, tc.args, &out)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %v", err)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Contains(t, out.String(), "Usage: tool")
		})
	}
}

func TestParseFlags_HelpAndVersion(t *testing.T) {
	var out strings.Builder
	_, err := ParseFlags("role-sweep", KindRole, []string{"--help"}, &out)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, out.String(), "(--prover | --verifier)")
	assert.Contains(t, out.String(), "-bit-difficulty")

	c, err := ParseFlags("role-sweep", KindRole, []string{"--version"}, &out)
	require.NoError(t, err)
	assert.True(t, c.Version)
}

func TestCLI_ApplyAndBuildOptions(t *testing.T) {
	var out strings.Builder
	c, err := ParseFlags("pow-sweep", KindPow, []string{
		"--num-iterations", "2", "--bin", "/opt/beholders", "--results-dir", "out",
		"--sizes", "256,1024", "--difficulties", "8:12:2", "--fractions", "1/2",
	}, &out)
	require.NoError(t, err)

	cfg := config.EmptySweepConfig()
	require.NoError(t, c.Apply(cfg))
	opts := c.BuildOptions(cfg)

	assert.Equal(t, "/opt/beholders", opts.Layout.Binary)
	assert.Equal(t, filepath.Join("out", "pow"), opts.Layout.ResultsDir)
	assert.Equal(t, "data", opts.Layout.DataDir)
	assert.Equal(t, []int{256, 1024}, opts.Grid.Sizes)
	assert.Equal(t, []int{2}, opts.Grid.Fractions)
	assert.Equal(t, DifficultyAxis([]int{8, 10, 12}), opts.Grid.Axis)
	assert.Equal(t, 2, opts.Grid.Iterations)
	assert.Equal(t, int64(DefaultMinFractionBytes), opts.MinFractionBytes)
	assert.Equal(t, 24, opts.Grid.Len())
}

func TestCLI_RoleAxis(t *testing.T) {
	var out strings.Builder
	prover, err := ParseFlags("role-sweep", KindRole, []string{"--num-iterations", "1", "--prover", "--bit-difficulty", "16"}, &out)
	require.NoError(t, err)
	cfg := config.EmptySweepConfig()
	require.NoError(t, prover.Apply(cfg))
	assert.Equal(t, []AxisPoint{{Mode: ModeProver, Difficulty: 16}}, prover.BuildOptions(cfg).Grid.Axis)

	verifier, err := ParseFlags("role-sweep", KindRole, []string{"--num-iterations", "1", "--verifier"}, &out)
	require.NoError(t, err)
	cfg = config.EmptySweepConfig()
	require.NoError(t, verifier.Apply(cfg))
	assert.Equal(t, []AxisPoint{{Mode: ModeVerifier}}, verifier.BuildOptions(cfg).Grid.Axis)

	// Without --bit-difficulty the configured default applies.
	p2, err := ParseFlags("role-sweep", KindRole, []string{"--num-iterations", "1", "--prover"}, &out)
	require.NoError(t, err)
	cfg = config.EmptySweepConfig()
	require.NoError(t, p2.Apply(cfg))
	assert.Equal(t, []AxisPoint{{Mode: ModeProver, Difficulty: 14}}, p2.BuildOptions(cfg).Grid.Axis)
}

func TestCLI_ApplyRejectsBadLists(t *testing.T) {
	for _, args := range [][]string{
		{"--sizes", "a,b"},
		{"--difficulties", "16:8:2"},
		{"--fractions", "2/3"},
		{"--difficulties", "300"},
	} {
		var out strings.Builder
		c, err := ParseFlags("pow-sweep", KindPow, append([]string{"--num-iterations", "1"}, args...), &out)
		require.NoError(t, err)
		err = c.Apply(config.EmptySweepConfig())
		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "%v: want *ConfigurationError, got %v", args, err)
	}
}
