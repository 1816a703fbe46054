// Package report turns sweep results back into something a person can read:
// summary tables, a LaTeX table for papers, charts, and a debug server over
// the results database.
package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/results"
	"github.com/beholders/benchsweep/internal/sweep"
)

// ErrNoData is returned when a source yields no usable rows.
var ErrNoData = errors.New("no benchmark results")

// Dataset is a set of result rows sharing one column layout.
type Dataset struct {
	Source  string
	Schema  results.Schema
	Rows    []metrics.RunResult
	Skipped []string // log files that could not be used
}

// Groups summarises the rows per (size, axis, fraction).
func (d Dataset) Groups() []results.Group {
	return results.Summarise(d.Rows)
}

// LoadLogs parses every run log in dir. Logs written by the sweep tools
// carry their grid point in the file name; logs with other names are parsed
// on their content alone. Successful runs without a file size or proving
// time are skipped, as are directories mixing pow and role logs.
func LoadLogs(fs fsutil.FileSystem, dir string, parser metrics.Parser) (Dataset, error) {
	ds := Dataset{Source: dir, Schema: results.PowSchema}

	var names []string
	for _, pattern := range []string{"*.txt", "*.txt.failed"} {
		matches, err := fs.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return ds, fmt.Errorf("list run logs: %w", err)
		}
		names = append(names, matches...)
	}
	sort.Strings(names)

	var kinds []sweep.Kind
	for _, name := range names {
		data, err := fs.ReadFile(name)
		if err != nil {
			return ds, fmt.Errorf("read run log: %w", err)
		}

		known := metrics.Known{Run: filepath.Base(name), Fraction: "1"}
		exitCode := 0
		cfg, kind, failed, ok := sweep.ParseArtifact(name)
		if ok {
			known.FileSize = cfg.PayloadBytes()
			known.ChunkCount = cfg.ChunkCount()
			known.Axis = kind.AxisLabel(cfg)
			known.Fraction = cfg.FractionLabel()
			if failed {
				// The engine's status is not in the log; any non-zero code marks the row.
				exitCode = 1
			}
			if !containsKind(kinds, kind) {
				kinds = append(kinds, kind)
			}
		} else if failed {
			continue
		}

		row := parser.Parse(string(data), exitCode, known)
		if row.Status == metrics.StatusSuccess && (row.FileSize == nil || !row.ProvingTime.Valid) {
			monitoring.Warnf("could not parse %s", filepath.Base(name))
			ds.Skipped = append(ds.Skipped, name)
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}

	switch {
	case len(kinds) > 1:
		return ds, fmt.Errorf("%s mixes pow and role run logs", dir)
	case len(kinds) == 1 && kinds[0] == sweep.KindRole:
		ds.Schema = results.RoleSchema
	}
	if len(ds.Rows) == 0 {
		return ds, fmt.Errorf("%s: %w", dir, ErrNoData)
	}
	sortBySize(ds.Rows)
	return ds, nil
}

func containsKind(kinds []sweep.Kind, k sweep.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

func sortBySize(rows []metrics.RunResult) {
	size := func(r metrics.RunResult) int64 {
		if r.FileSize == nil {
			return 0
		}
		return *r.FileSize
	}
	sort.SliceStable(rows, func(i, j int) bool { return size(rows[i]) < size(rows[j]) })
}

// LoadCSV reads a results file written by a sweep tool.
func LoadCSV(fs fsutil.FileSystem, path string) (Dataset, error) {
	f, err := fs.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	rows, schema, err := results.ReadCSV(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("%s: %w", path, ErrNoData)
	}
	return Dataset{Source: path, Schema: schema, Rows: rows}, nil
}

// LoadSweep reads one recorded sweep from the store. An empty id selects the
// most recent sweep.
func LoadSweep(store *results.Store, id, sentinel string) (Dataset, error) {
	sweeps, err := store.Sweeps()
	if err != nil {
		return Dataset{}, err
	}
	if len(sweeps) == 0 {
		return Dataset{}, ErrNoData
	}

	info := sweeps[len(sweeps)-1]
	if id != "" {
		found := false
		for _, s := range sweeps {
			if s.ID == id {
				info, found = s, true
				break
			}
		}
		if !found {
			return Dataset{}, fmt.Errorf("sweep %s not found", id)
		}
	}

	rows, err := store.Runs(info.ID, sentinel)
	if err != nil {
		return Dataset{}, err
	}
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("sweep %s: %w", info.ID, ErrNoData)
	}
	return Dataset{Source: info.Tool + " " + info.ID, Schema: info.Schema, Rows: rows}, nil
}
