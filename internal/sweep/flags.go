package sweep

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/beholders/benchsweep/internal/config"
)

// CLI holds the parsed command line of a sweep tool.
type CLI struct {
	Tool string
	Kind Kind

	NumIterations int
	Overwrite     bool
	Continue      bool
	Prover        bool
	Verifier      bool

	ConfigPath   string
	Binary       string
	DataDir      string
	ResultsDir   string
	Sizes        string
	Difficulties string
	Difficulty   int
	Fractions    string
	DBPath       string
	Version      bool
}

// ParseFlags parses args for the given tool. On a usage error it prints the
// problem and the usage text to output and returns a *ConfigurationError.
// --help prints the usage and returns flag.ErrHelp.
func ParseFlags(tool string, kind Kind, args []string, output io.Writer) (*CLI, error) {
	c := &CLI{Tool: tool, Kind: kind, Difficulty: -1}
	fs := flag.NewFlagSet(tool, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.IntVar(&c.NumIterations, "num-iterations", 0, "Number of iterations per grid point (required)")
	fs.BoolVar(&c.Overwrite, "overwrite", false, "Delete an existing result directory before starting")
	fs.BoolVar(&c.Continue, "continue", false, "Resume in an existing result directory, skipping finished runs")
	fs.StringVar(&c.ConfigPath, "config", "", "Sweep config file (.json/.yaml); defaults to "+config.DefaultConfigPath+" when present")
	fs.StringVar(&c.Binary, "bin", "", "Path to the prover/verifier executable")
	fs.StringVar(&c.DataDir, "data-dir", "", "Directory holding payloads, setups and keys")
	fs.StringVar(&c.ResultsDir, "results-dir", "", "Root of the result directories; each mode writes to <root>/pow, <root>/prover or <root>/verifier")
	fs.StringVar(&c.Sizes, "sizes", "", "Payload sizes in KiB: comma list (128,256) or range min:max:step")
	fs.StringVar(&c.Fractions, "fractions", "", "Fraction denominators to sweep besides the full payload, e.g. 2,4 or 1/2,1/4")
	fs.StringVar(&c.DBPath, "db", "", "Also record results in this SQLite database")
	fs.BoolVar(&c.Version, "version", false, "Print version and exit")

	switch kind {
	case KindPow:
		fs.StringVar(&c.Difficulties, "difficulties", "", "Bit difficulties: comma list or range min:max:step")
	case KindRole:
		fs.BoolVar(&c.Prover, "prover", false, "Benchmark the prover")
		fs.BoolVar(&c.Verifier, "verifier", false, "Benchmark the verifier")
		fs.IntVar(&c.Difficulty, "bit-difficulty", -1, "Bit difficulty for prover runs (default from config)")
	}

	fs.Usage = func() {
		role := ""
		if kind == KindRole {
			role = " (--prover | --verifier)"
		}
		fmt.Fprintf(fs.Output(), "Usage: %s --num-iterations N%s [--overwrite | --continue] [options]\n\nOptions:\n", tool, role)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &ConfigurationError{Msg: err.Error()}
	}
	if c.Version {
		return c, nil
	}

	if err := c.validate(fs.Args()); err != nil {
		fmt.Fprintf(fs.Output(), "%s: %v\n", tool, err)
		fs.Usage()
		return nil, err
	}
	return c, nil
}

func (c *CLI) validate(rest []string) error {
	if len(rest) > 0 {
		return configErrorf("unexpected arguments: %v", rest)
	}
	if c.NumIterations <= 0 {
		return configErrorf("--num-iterations must be a positive integer")
	}
	if c.Overwrite && c.Continue {
		return configErrorf("--overwrite and --continue are mutually exclusive")
	}
	if c.Kind == KindRole && c.Prover == c.Verifier {
		return configErrorf("exactly one of --prover or --verifier is required")
	}
	return nil
}

// Apply overlays the flags that were set onto cfg.
func (c *CLI) Apply(cfg *config.SweepConfig) error {
	setString := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	setString(&cfg.Binary, c.Binary)
	setString(&cfg.DataDir, c.DataDir)
	setString(&cfg.ResultsDir, c.ResultsDir)

	if c.Sizes != "" {
		v, err := ParseIntParamList(c.Sizes)
		if err != nil {
			return &ConfigurationError{Msg: fmt.Sprintf("--sizes: %v", err)}
		}
		cfg.SizesKiB = v
	}
	if c.Difficulties != "" {
		v, err := ParseIntParamList(c.Difficulties)
		if err != nil {
			return &ConfigurationError{Msg: fmt.Sprintf("--difficulties: %v", err)}
		}
		cfg.BitDifficulties = v
	}
	if c.Fractions != "" {
		v, err := ParseFractionList(c.Fractions)
		if err != nil {
			return &ConfigurationError{Msg: fmt.Sprintf("--fractions: %v", err)}
		}
		cfg.Fractions = v
	}
	if c.Difficulty >= 0 {
		d := c.Difficulty
		cfg.FixedDifficulty = &d
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigurationError{Msg: err.Error()}
	}
	return nil
}

// modeDir names the result directory of the tool's mode under the results
// root, so prover, verifier and difficulty sweeps never share logs or CSV.
func (c *CLI) modeDir() string {
	switch {
	case c.Kind == KindPow:
		return "pow"
	case c.Verifier:
		return string(ModeVerifier)
	}
	return string(ModeProver)
}

// BuildOptions resolves the layout and grid for the tool from cfg. The
// result directory state is filled in later by ResolveState.
func (c *CLI) BuildOptions(cfg *config.SweepConfig) Options {
	layout := Layout{
		Kind:       c.Kind,
		Binary:     cfg.GetBinary(),
		DataDir:    cfg.GetDataDir(),
		ResultsDir: filepath.Join(cfg.GetResultsDir(), c.modeDir()),
		SecretKey:  cfg.GetSecretKey(),
		PublicKey:  cfg.GetPublicKey(),
	}

	var axis []AxisPoint
	switch {
	case c.Kind == KindPow:
		axis = DifficultyAxis(cfg.GetBitDifficulties())
	case c.Verifier:
		axis = []AxisPoint{{Mode: ModeVerifier}}
	default:
		axis = []AxisPoint{{Mode: ModeProver, Difficulty: cfg.GetFixedDifficulty()}}
	}

	return Options{
		Grid: Grid{
			Sizes:      cfg.GetSizesKiB(),
			Fractions:  cfg.GetFractions(),
			Axis:       axis,
			Iterations: c.NumIterations,
		},
		Layout:           layout,
		MinFractionBytes: cfg.GetMinFractionBytes(),
	}
}
