package sweep

import (
	"fmt"
	"iter"
	"strconv"
)

// ChunkBytes is the size of one field element in the payload.
const ChunkBytes = 32

// MinSetupChunks is the smallest trusted setup the engine accepts.
const MinSetupChunks = 64

// Mode selects the engine subcommand.
type Mode string

const (
	ModeProver   Mode = "prover"
	ModeVerifier Mode = "verifier"
)

// AxisPoint is one value of the grid's middle axis: a bit difficulty for
// the pow sweep or a role for the role sweep. Prover points always carry the
// difficulty passed to the engine.
type AxisPoint struct {
	Mode       Mode
	Difficulty int
}

// DifficultyAxis returns prover points for each difficulty.
func DifficultyAxis(difficulties []int) []AxisPoint {
	axis := make([]AxisPoint, len(difficulties))
	for i, d := range difficulties {
		axis[i] = AxisPoint{Mode: ModeProver, Difficulty: d}
	}
	return axis
}

// RunConfiguration is one point of the grid.
type RunConfiguration struct {
	SizeKiB    int
	Fraction   int // denominator; 1 is the full payload
	Mode       Mode
	Difficulty int
	Iteration  int // 1-based
}

// MasterBytes is the size of the master payload.
func (c RunConfiguration) MasterBytes() int64 {
	return int64(c.SizeKiB) * 1024
}

// PayloadBytes is the number of bytes handed to the engine.
func (c RunConfiguration) PayloadBytes() int64 {
	return c.MasterBytes() / int64(c.fraction())
}

// ChunkCount is the number of field elements in the payload.
func (c RunConfiguration) ChunkCount() int64 {
	return c.PayloadBytes() / ChunkBytes
}

// SetupChunks is the chunk count the trusted setup file is keyed by. The
// setup is sized for the master payload and serves every fraction of it.
func (c RunConfiguration) SetupChunks() int64 {
	return c.MasterBytes() / ChunkBytes
}

// FractionLabel renders the fraction as "1" or "1/<den>".
func (c RunConfiguration) FractionLabel() string {
	if c.fraction() == 1 {
		return "1"
	}
	return "1/" + strconv.Itoa(c.Fraction)
}

func (c RunConfiguration) fraction() int {
	if c.Fraction < 1 {
		return 1
	}
	return c.Fraction
}

func (c RunConfiguration) String() string {
	s := fmt.Sprintf("%s %dKiB f%s", c.Mode, c.SizeKiB, c.FractionLabel())
	if c.Mode == ModeProver {
		s += fmt.Sprintf(" d%d", c.Difficulty)
	}
	return s + fmt.Sprintf(" i%d", c.Iteration)
}

// Grid is the Cartesian product size × fraction × axis × iteration, walked
// in that nesting order. Fractions lists denominators other than 1; the full
// payload is always visited first.
type Grid struct {
	Sizes      []int
	Fractions  []int
	Axis       []AxisPoint
	Iterations int
}

func (g Grid) fractions() []int {
	out := []int{1}
	for _, f := range g.Fractions {
		if f != 1 {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of grid points.
func (g Grid) Len() int {
	if g.Iterations <= 0 {
		return 0
	}
	return len(g.Sizes) * len(g.fractions()) * len(g.Axis) * g.Iterations
}

// At returns the i-th grid point. It panics if i is out of range.
func (g Grid) At(i int) RunConfiguration {
	if i < 0 || i >= g.Len() {
		panic(fmt.Sprintf("sweep: grid index %d out of range [0,%d)", i, g.Len()))
	}
	fracs := g.fractions()

	iteration := i % g.Iterations
	i /= g.Iterations
	axis := g.Axis[i%len(g.Axis)]
	i /= len(g.Axis)
	fraction := fracs[i%len(fracs)]
	i /= len(fracs)

	return RunConfiguration{
		SizeKiB:    g.Sizes[i],
		Fraction:   fraction,
		Mode:       axis.Mode,
		Difficulty: axis.Difficulty,
		Iteration:  iteration + 1,
	}
}

// All yields every grid point in order. The sequence may be ranged over
// more than once.
func (g Grid) All() iter.Seq2[int, RunConfiguration] {
	return func(yield func(int, RunConfiguration) bool) {
		n := g.Len()
		for i := 0; i < n; i++ {
			if !yield(i, g.At(i)) {
				return
			}
		}
	}
}

// Validate checks the grid against the engine's sizing rules before any
// file is touched.
func (g Grid) Validate(minFractionBytes int64) error {
	if g.Iterations <= 0 {
		return configErrorf("number of iterations must be positive, got %d", g.Iterations)
	}
	if len(g.Sizes) == 0 {
		return configErrorf("no payload sizes given")
	}
	if len(g.Axis) == 0 {
		return configErrorf("no difficulties or mode given")
	}

	seen := make(map[int]bool, len(g.Sizes))
	for _, s := range g.Sizes {
		if s <= 0 {
			return configErrorf("payload size must be positive, got %d KiB", s)
		}
		if seen[s] {
			return configErrorf("payload size %d KiB listed twice", s)
		}
		seen[s] = true
		chunks := int64(s) * 1024 / ChunkBytes
		if !isPowerOfTwo(chunks) || chunks < MinSetupChunks {
			return configErrorf("payload size %d KiB needs a setup of %d chunks; setups must be a power of two of at least %d", s, chunks, MinSetupChunks)
		}
	}

	// Repeated points would share an artifact path.
	points := make(map[AxisPoint]bool, len(g.Axis))
	for _, p := range g.Axis {
		switch p.Mode {
		case ModeProver:
			if p.Difficulty < 0 {
				return configErrorf("bit difficulty must not be negative, got %d", p.Difficulty)
			}
		case ModeVerifier:
			if len(g.fractions()) > 1 {
				return configErrorf("fractions are only supported for prover runs")
			}
			p.Difficulty = 0
		default:
			return configErrorf("unknown mode %q", p.Mode)
		}
		if points[p] {
			if p.Mode == ModeVerifier {
				return configErrorf("verifier listed twice")
			}
			return configErrorf("bit difficulty %d listed twice", p.Difficulty)
		}
		points[p] = true
	}

	dens := make(map[int]bool)
	for _, f := range g.fractions()[1:] {
		if dens[f] {
			return configErrorf("fraction 1/%d listed twice", f)
		}
		dens[f] = true
		for _, s := range g.Sizes {
			if _, err := FractionLength(int64(s)*1024, f, minFractionBytes); err != nil {
				return &ConfigurationError{Msg: err.Error()}
			}
		}
	}
	return nil
}
