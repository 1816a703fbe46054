package sweep

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the two sweep tools.
type Kind int

const (
	// KindPow sweeps bit difficulties with the prover.
	KindPow Kind = iota
	// KindRole runs either the prover or the verifier at a fixed difficulty.
	KindRole
)

// AxisLabel is the value recorded in the axis column of the result store.
func (k Kind) AxisLabel(cfg RunConfiguration) string {
	if k == KindPow {
		return strconv.Itoa(cfg.Difficulty)
	}
	return string(cfg.Mode)
}

// Layout maps grid points to paths and argument vectors.
type Layout struct {
	Kind       Kind
	Binary     string
	DataDir    string
	ResultsDir string
	SecretKey  string // file name inside DataDir
	PublicKey  string // file name inside DataDir
}

// Artifact is the run log for cfg. Distinct grid points never share a name.
func (l Layout) Artifact(cfg RunConfiguration) string {
	var name string
	switch l.Kind {
	case KindPow:
		name = fmt.Sprintf("pow_%dKiB_f%d_d%d_i%d.txt", cfg.SizeKiB, cfg.fraction(), cfg.Difficulty, cfg.Iteration)
	default:
		name = fmt.Sprintf("%s_%dKiB_f%d_i%d.txt", cfg.Mode, cfg.SizeKiB, cfg.fraction(), cfg.Iteration)
	}
	return filepath.Join(l.ResultsDir, name)
}

var (
	powArtifactRe  = regexp.MustCompile(`^pow_(\d+)KiB_f(\d+)_d(\d+)_i(\d+)\.txt$`)
	roleArtifactRe = regexp.MustCompile(`^(prover|verifier)_(\d+)KiB_f(\d+)_i(\d+)\.txt$`)
)

// ParseArtifact recovers the grid point and tool from a run log name, with
// or without the .failed suffix. It is the inverse of Artifact.
func ParseArtifact(name string) (cfg RunConfiguration, kind Kind, failed bool, ok bool) {
	name = filepath.Base(name)
	if trimmed, found := strings.CutSuffix(name, ".failed"); found {
		name, failed = trimmed, true
	}
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	if m := powArtifactRe.FindStringSubmatch(name); m != nil {
		cfg = RunConfiguration{
			SizeKiB:    atoi(m[1]),
			Fraction:   atoi(m[2]),
			Mode:       ModeProver,
			Difficulty: atoi(m[3]),
			Iteration:  atoi(m[4]),
		}
		return cfg, KindPow, failed, true
	}
	if m := roleArtifactRe.FindStringSubmatch(name); m != nil {
		cfg = RunConfiguration{
			SizeKiB:   atoi(m[2]),
			Fraction:  atoi(m[3]),
			Mode:      Mode(m[1]),
			Iteration: atoi(m[4]),
		}
		return cfg, KindRole, failed, true
	}
	return RunConfiguration{}, 0, false, false
}

// FailedArtifact is where the log of a failed run is kept.
func (l Layout) FailedArtifact(cfg RunConfiguration) string {
	return l.Artifact(cfg) + ".failed"
}

// ResultsFile is the cumulative CSV.
func (l Layout) ResultsFile() string {
	return filepath.Join(l.ResultsDir, "results.csv")
}

// MasterPayload is the full payload for a size.
func (l Layout) MasterPayload(sizeKiB int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("data%d.bin", sizeKiB))
}

// FractionDir holds derived fractional payloads for the current sweep.
func (l Layout) FractionDir() string {
	return filepath.Join(l.ResultsDir, ".fractions")
}

// Payload is the file handed to the engine for cfg.
func (l Layout) Payload(cfg RunConfiguration) string {
	if cfg.fraction() == 1 {
		return l.MasterPayload(cfg.SizeKiB)
	}
	return filepath.Join(l.FractionDir(), fmt.Sprintf("data%d_f%d.bin", cfg.SizeKiB, cfg.Fraction))
}

// Setup is the trusted setup file keyed by chunk count.
func (l Layout) Setup(chunks int64) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("setup_%d.bin", chunks))
}

// Key is the key file used by mode.
func (l Layout) Key(mode Mode) string {
	if mode == ModeVerifier {
		return filepath.Join(l.DataDir, l.PublicKey)
	}
	return filepath.Join(l.DataDir, l.SecretKey)
}

// Commitment is written by the prover and read by the verifier.
func (l Layout) Commitment(sizeKiB int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("com%d.bin", sizeKiB))
}

// Signature is written by the prover and read by the verifier.
func (l Layout) Signature(sizeKiB int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("sig%d.bin", sizeKiB))
}

// Args builds the engine's argument vector for cfg, excluding the binary.
func (l Layout) Args(cfg RunConfiguration) []string {
	if cfg.Mode == ModeVerifier {
		return []string{
			"verify",
			"--setup", l.Setup(cfg.SetupChunks()),
			"--data", l.Payload(cfg),
			"--pk", l.Key(ModeVerifier),
			"--commitment", l.Commitment(cfg.SizeKiB),
			"--signature", l.Signature(cfg.SizeKiB),
		}
	}
	com, sig := l.proofOutputs(cfg)
	return []string{
		"prove",
		"--setup", l.Setup(cfg.SetupChunks()),
		"--data", l.Payload(cfg),
		"--sk", l.Key(ModeProver),
		"--bit-difficulty", strconv.Itoa(cfg.Difficulty),
		"--commitment-out", com,
		"--signature-out", sig,
	}
}

// proofOutputs are the commitment and signature paths the prover writes.
// Fractional proofs go next to their payload so they never clobber the
// verifier's inputs.
func (l Layout) proofOutputs(cfg RunConfiguration) (com, sig string) {
	if cfg.fraction() == 1 {
		return l.Commitment(cfg.SizeKiB), l.Signature(cfg.SizeKiB)
	}
	return filepath.Join(l.FractionDir(), fmt.Sprintf("com%d_f%d.bin", cfg.SizeKiB, cfg.Fraction)),
		filepath.Join(l.FractionDir(), fmt.Sprintf("sig%d_f%d.bin", cfg.SizeKiB, cfg.Fraction))
}

// FractionFiles lists the files derived for, or produced from, a fractional
// payload. It returns nil for full payloads.
func (l Layout) FractionFiles(cfg RunConfiguration) []string {
	if cfg.fraction() == 1 {
		return nil
	}
	com, sig := l.proofOutputs(cfg)
	return []string{l.Payload(cfg), com, sig}
}
