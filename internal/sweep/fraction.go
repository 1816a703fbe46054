package sweep

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/beholders/benchsweep/internal/fsutil"
)

// DefaultMinFractionBytes is the smallest fractional payload: 64 field
// elements, the smallest setup the engine accepts.
const DefaultMinFractionBytes = MinSetupChunks * ChunkBytes

func isPowerOfTwo(n int64) bool {
	return n > 0 && n&(n-1) == 0
}

// FractionLength returns the byte length of the 1/den prefix of a master
// payload of masterBytes. The result must divide exactly, be a power of two
// and be at least minBytes.
func FractionLength(masterBytes int64, den int, minBytes int64) (int64, error) {
	if den < 1 {
		return 0, fmt.Errorf("fraction 1/%d: denominator must be positive", den)
	}
	if masterBytes%int64(den) != 0 {
		return 0, fmt.Errorf("fraction 1/%d of %d bytes is not a whole number of bytes", den, masterBytes)
	}
	n := masterBytes / int64(den)
	if !isPowerOfTwo(n) {
		return 0, fmt.Errorf("fraction 1/%d of %d bytes is %d bytes, not a power of two", den, masterBytes, n)
	}
	if n < minBytes {
		return 0, fmt.Errorf("fraction 1/%d of %d bytes is %d bytes, below the minimum of %d", den, masterBytes, n, minBytes)
	}
	return n, nil
}

// DeriveFraction writes the first length bytes of master to dest.
func DeriveFraction(fs fsutil.FileSystem, master, dest string, length int64) error {
	data, err := fs.ReadFile(master)
	if err != nil {
		return fmt.Errorf("read master payload: %w", err)
	}
	if int64(len(data)) < length {
		return fmt.Errorf("master payload %s holds %s, need %s", master,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(length)))
	}
	if err := fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create fraction directory: %w", err)
	}
	if err := fs.WriteFile(dest, data[:length], 0644); err != nil {
		return fmt.Errorf("write fraction %s: %w", dest, err)
	}
	return nil
}
