package results

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/beholders/benchsweep/internal/metrics"
)

// Stat is the sample mean and standard deviation of one timing.
type Stat struct {
	N      int
	Mean   float64
	StdDev float64
}

// Group aggregates the iterations of one (size, axis, fraction) point.
type Group struct {
	FileSize int64
	Axis     string
	Fraction string
	Runs     int
	Failures int
	Init     Stat
	Proving  Stat
	FK20     Stat
	Mining   Stat
}

type groupKey struct {
	size     int64
	axis     string
	fraction string
}

// Summarise groups rows by file size, axis and fraction and computes timing
// statistics over the successful iterations. Groups are sorted by file size,
// then by axis (numerically when both axis values are numbers) and fraction.
func Summarise(rows []metrics.RunResult) []Group {
	type acc struct {
		g                        Group
		init, prov, fk20, mining []float64
	}
	byKey := make(map[groupKey]*acc)
	var order []groupKey

	for _, r := range rows {
		var size int64
		if r.FileSize != nil {
			size = *r.FileSize
		}
		k := groupKey{size: size, axis: r.Axis, fraction: r.Fraction}
		a, ok := byKey[k]
		if !ok {
			a = &acc{g: Group{FileSize: size, Axis: r.Axis, Fraction: r.Fraction}}
			byKey[k] = a
			order = append(order, k)
		}
		a.g.Runs++
		if r.Status == metrics.StatusFailure {
			a.g.Failures++
			continue
		}
		if r.InitTime.Valid {
			a.init = append(a.init, r.InitTime.Seconds)
		}
		if r.ProvingTime.Valid {
			a.prov = append(a.prov, r.ProvingTime.Seconds)
		}
		if r.FK20Time.Valid {
			a.fk20 = append(a.fk20, r.FK20Time.Seconds)
		}
		if m := r.MiningTime(); m.Valid {
			a.mining = append(a.mining, m.Seconds)
		}
	}

	out := make([]Group, 0, len(order))
	for _, k := range order {
		a := byKey[k]
		a.g.Init = describe(a.init)
		a.g.Proving = describe(a.prov)
		a.g.FK20 = describe(a.fk20)
		a.g.Mining = describe(a.mining)
		out = append(out, a.g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FileSize != out[j].FileSize {
			return out[i].FileSize < out[j].FileSize
		}
		if out[i].Axis != out[j].Axis {
			return axisLess(out[i].Axis, out[j].Axis)
		}
		return fractionDen(out[i].Fraction) < fractionDen(out[j].Fraction)
	})
	return out
}

func describe(xs []float64) Stat {
	switch len(xs) {
	case 0:
		return Stat{}
	case 1:
		return Stat{N: 1, Mean: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Stat{N: len(xs), Mean: mean, StdDev: std}
}

func axisLess(a, b string) bool {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return x < y
	}
	return a < b
}

// fractionDen orders "1" before "1/2" before "1/4".
func fractionDen(label string) int {
	if len(label) > 2 && label[:2] == "1/" {
		if n, err := strconv.Atoi(label[2:]); err == nil {
			return n
		}
	}
	return 1
}
