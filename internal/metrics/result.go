package metrics

import (
	"strconv"
)

// Status records whether the engine exited cleanly.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Timing is a duration in seconds that may be absent or replaced by the
// error sentinel of a failed run.
type Timing struct {
	Seconds  float64
	Valid    bool
	Sentinel string
}

// Seconds returns a valid Timing.
func Seconds(s float64) Timing {
	return Timing{Seconds: s, Valid: true}
}

// String renders the cell value: the sentinel, the decimal seconds, or blank.
func (t Timing) String() string {
	switch {
	case t.Sentinel != "":
		return t.Sentinel
	case t.Valid:
		return strconv.FormatFloat(t.Seconds, 'f', -1, 64)
	}
	return ""
}

// RunResult is one row of the result store.
type RunResult struct {
	FileSize    *int64
	ChunkCount  *int64
	NFisch      *int64
	Axis        string // bit difficulty or prover/verifier label
	M           *int64
	InitTime    Timing
	ProvingTime Timing
	FK20Time    Timing
	Fraction    string
	SecretKey   string
	Status      Status
	ExitCode    int
}

// MiningTime is the proving time net of the FK20 precomputation. It is only
// valid when both inputs are.
func (r RunResult) MiningTime() Timing {
	if !r.ProvingTime.Valid || !r.FK20Time.Valid {
		return Timing{Sentinel: r.ProvingTime.Sentinel}
	}
	return Seconds(r.ProvingTime.Seconds - r.FK20Time.Seconds)
}

// FormatInt renders an optional integer cell.
func FormatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
