// Package results persists sweep rows: the cumulative CSV that the sweep
// tools append to, an optional SQLite mirror, and the summaries built from
// either.
package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
)

// Schema fixes the column layout. Only the axis column differs between the
// two sweep tools.
type Schema struct {
	AxisColumn string
}

var (
	// PowSchema is used by the difficulty sweep.
	PowSchema = Schema{AxisColumn: "bit_difficulty"}
	// RoleSchema is used by the prover/verifier sweep.
	RoleSchema = Schema{AxisColumn: "mode"}
)

// Header returns the header row.
func (s Schema) Header() []string {
	return []string{
		"file_size", "chunks", "nfisch", s.AxisColumn, "mvalue",
		"init_time", "proving_time", "fraction", "secret_key",
	}
}

// Record renders r as a row.
func (s Schema) Record(r metrics.RunResult) []string {
	return []string{
		metrics.FormatInt(r.FileSize),
		metrics.FormatInt(r.ChunkCount),
		metrics.FormatInt(r.NFisch),
		r.Axis,
		metrics.FormatInt(r.M),
		r.InitTime.String(),
		r.ProvingTime.String(),
		r.Fraction,
		r.SecretKey,
	}
}

// CSVSink appends rows to a single CSV file. The header is written only
// when the file is empty, so a continued sweep keeps appending below the
// rows of the interrupted one. Every row is flushed and synced before Write
// returns.
type CSVSink struct {
	file   fsutil.File
	w      *csv.Writer
	schema Schema
}

// OpenCSVSink opens path for appending.
func OpenCSVSink(fs fsutil.FileSystem, path string, schema Schema) (*CSVSink, error) {
	empty := true
	if info, err := fs.Stat(path); err == nil && info.Size() > 0 {
		empty = false
		if err := checkHeader(fs, path, schema); err != nil {
			return nil, err
		}
	}

	f, err := fs.OpenAppend(path)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	s := &CSVSink{file: f, w: csv.NewWriter(f), schema: schema}
	if empty {
		if err := s.w.Write(schema.Header()); err != nil {
			f.Close()
			return nil, fmt.Errorf("write results header: %w", err)
		}
		if err := s.flush(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return s, nil
}

func checkHeader(fs fsutil.FileSystem, path string, schema Schema) error {
	data, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read results file: %w", err)
	}
	first, _, _ := bytes.Cut(data, []byte("\n"))
	got := strings.TrimRight(string(first), "\r")
	want := strings.Join(schema.Header(), ",")
	if got != want {
		return fmt.Errorf("results file %s has header %q, expected %q", path, got, want)
	}
	return nil
}

// Write appends one row and makes it durable.
func (s *CSVSink) Write(r metrics.RunResult) error {
	if err := s.w.Write(s.schema.Record(r)); err != nil {
		return fmt.Errorf("write result row: %w", err)
	}
	return s.flush()
}

func (s *CSVSink) flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync results: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *CSVSink) Close() error {
	s.w.Flush()
	return s.file.Close()
}

// ReadCSV parses a results file written by CSVSink. Cells that are neither
// blank nor numbers are taken as the error sentinel and mark the row as
// failed.
func ReadCSV(r io.Reader) ([]metrics.RunResult, Schema, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 9
	header, err := cr.Read()
	if err == io.EOF {
		return nil, Schema{}, fmt.Errorf("results file is empty")
	}
	if err != nil {
		return nil, Schema{}, fmt.Errorf("read header: %w", err)
	}
	schema := Schema{AxisColumn: header[3]}
	if strings.Join(header, ",") != strings.Join(schema.Header(), ",") {
		return nil, Schema{}, fmt.Errorf("unrecognised results header %q", strings.Join(header, ","))
	}

	var rows []metrics.RunResult
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, schema, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, parseRecord(rec))
	}
	return rows, schema, nil
}

func parseRecord(rec []string) metrics.RunResult {
	r := metrics.RunResult{
		FileSize:    parseIntCell(rec[0]),
		ChunkCount:  parseIntCell(rec[1]),
		NFisch:      parseIntCell(rec[2]),
		Axis:        rec[3],
		M:           parseIntCell(rec[4]),
		InitTime:    parseTimingCell(rec[5]),
		ProvingTime: parseTimingCell(rec[6]),
		Fraction:    rec[7],
		SecretKey:   rec[8],
		Status:      metrics.StatusSuccess,
	}
	if r.InitTime.Sentinel != "" || r.ProvingTime.Sentinel != "" {
		r.Status = metrics.StatusFailure
	}
	return r
}

func parseIntCell(s string) *int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return metrics.Int64(v)
}

func parseTimingCell(s string) metrics.Timing {
	s = strings.TrimSpace(s)
	if s == "" {
		return metrics.Timing{}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return metrics.Seconds(v)
	}
	return metrics.Timing{Sentinel: s}
}
