package sweep

import (
	"os/exec"
	"strings"

	"github.com/beholders/benchsweep/internal/fsutil"
)

// lookPath resolves bare command names through $PATH.
var lookPath = exec.LookPath

// CheckPreconditions verifies that every input the grid needs exists before
// anything runs. It only stats files. The first missing artifact is
// reported as a *PreconditionError.
func CheckPreconditions(fs fsutil.FileSystem, layout Layout, grid Grid) error {
	if err := checkBinary(fs, layout.Binary); err != nil {
		return err
	}

	modes := make(map[Mode]bool)
	for _, p := range grid.Axis {
		modes[p.Mode] = true
	}
	if modes[ModeProver] {
		if err := need(fs, "secret key", layout.Key(ModeProver)); err != nil {
			return err
		}
	}
	if modes[ModeVerifier] {
		if err := need(fs, "public key", layout.Key(ModeVerifier)); err != nil {
			return err
		}
	}

	for _, size := range grid.Sizes {
		cfg := RunConfiguration{SizeKiB: size, Fraction: 1}
		if err := need(fs, "payload", layout.MasterPayload(size)); err != nil {
			return err
		}
		if err := need(fs, "trusted setup", layout.Setup(cfg.SetupChunks())); err != nil {
			return err
		}
		if modes[ModeVerifier] {
			if err := need(fs, "commitment", layout.Commitment(size)); err != nil {
				return err
			}
			if err := need(fs, "signature", layout.Signature(size)); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkBinary(fs fsutil.FileSystem, bin string) error {
	if bin == "" {
		return &PreconditionError{Kind: "executable", Path: "(none configured)"}
	}
	if !strings.ContainsRune(bin, '/') {
		if _, err := lookPath(bin); err != nil {
			return &PreconditionError{Kind: "executable", Path: bin}
		}
		return nil
	}
	info, err := fs.Stat(bin)
	if err != nil || info.IsDir() {
		return &PreconditionError{Kind: "executable", Path: bin}
	}
	return nil
}

func need(fs fsutil.FileSystem, kind, path string) error {
	info, err := fs.Stat(path)
	if err != nil || info.IsDir() {
		return &PreconditionError{Kind: kind, Path: path}
	}
	return nil
}
