// Command bench-report summarises benchmark results. It reads run logs, a
// results CSV or a recorded sweep from the results database, prints a
// summary table and optionally writes a LaTeX table, a PNG plot and an
// interactive chart. With -serve it exposes the database over HTTP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/beholders/benchsweep/internal/config"
	"github.com/beholders/benchsweep/internal/fsutil"
	"github.com/beholders/benchsweep/internal/metrics"
	"github.com/beholders/benchsweep/internal/report"
	"github.com/beholders/benchsweep/internal/results"
	"github.com/beholders/benchsweep/internal/security"
	"github.com/beholders/benchsweep/internal/version"
)

const tool = "bench-report"

type options struct {
	logsDir    string
	csvPath    string
	dbPath     string
	sweepID    string
	importRows bool
	latexPath  string
	pngPath    string
	htmlPath   string
	serveAddr  string
	configPath string
	version    bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet(tool, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.logsDir, "logs", "", "directory of run logs to summarise")
	fs.StringVar(&o.csvPath, "csv", "", "results CSV to summarise")
	fs.StringVar(&o.dbPath, "db", "", "results database (source, import target or -serve backend)")
	fs.StringVar(&o.sweepID, "sweep", "", "sweep ID to read from -db (default latest)")
	fs.BoolVar(&o.importRows, "import", false, "record rows read from -logs or -csv into -db as a new sweep")
	fs.StringVar(&o.latexPath, "latex", "", "write a LaTeX table to this file")
	fs.StringVar(&o.pngPath, "png", "", "write a proving time plot to this PNG file")
	fs.StringVar(&o.htmlPath, "html", "", "write an interactive proving time chart to this HTML file")
	fs.StringVar(&o.serveAddr, "serve", "", "serve the -db debug pages on this address, e.g. localhost:8090")
	fs.StringVar(&o.configPath, "config", "", "sweep config supplying the failure sentinel and defaults")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.version {
		return &o, nil
	}

	if o.logsDir != "" && o.csvPath != "" {
		return nil, errors.New("-logs and -csv are mutually exclusive")
	}
	if o.logsDir == "" && o.csvPath == "" && o.dbPath == "" {
		return nil, errors.New("one of -logs, -csv or -db is required")
	}
	if o.importRows && (o.dbPath == "" || (o.logsDir == "" && o.csvPath == "")) {
		return nil, errors.New("-import needs -db and one of -logs or -csv")
	}
	if o.serveAddr != "" && o.dbPath == "" {
		return nil, errors.New("-serve needs -db")
	}
	return &o, nil
}

func writeFile(path string, render func(io.Writer, report.Dataset) error, ds report.Dataset) error {
	if err := security.CheckOutputPath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func summarise(o *options, store *results.Store, ds report.Dataset, stdout io.Writer) error {
	if o.importRows {
		id, err := store.Import(tool, ds.Schema, ds.Source, ds.Rows)
		if err != nil {
			return fmt.Errorf("import into %s: %w", o.dbPath, err)
		}
		log.Printf("imported %d rows as sweep %s", len(ds.Rows), id)
	}
	fmt.Fprintf(stdout, "%s (%d runs)\n\n", ds.Source, len(ds.Rows))
	if err := report.WriteTable(stdout, ds); err != nil {
		return err
	}
	for _, out := range []struct {
		path   string
		render func(io.Writer, report.Dataset) error
	}{
		{o.latexPath, report.WriteLaTeX},
		{o.pngPath, report.WritePlot},
		{o.htmlPath, report.WriteHTML},
	} {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.render, ds); err != nil {
			return err
		}
		log.Printf("wrote %s", out.path)
	}
	return nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if o.version {
		fmt.Fprintln(stdout, version.String(tool))
		return nil
	}

	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return err
	}
	sentinel := cfg.GetErrorSentinel()

	var store *results.Store
	if o.dbPath != "" {
		if store, err = results.OpenStore(o.dbPath); err != nil {
			return err
		}
		defer store.Close()
	}

	var ds report.Dataset
	switch {
	case o.logsDir != "":
		parser := metrics.NewParser(metrics.GrammarV1, metrics.Defaults{
			Sentinel: sentinel,
			NFisch:   int64(cfg.GetFailureNFisch()),
			M:        int64(cfg.GetFailureMValue()),
		})
		ds, err = report.LoadLogs(fsutil.OSFileSystem{}, o.logsDir, parser)
	case o.csvPath != "":
		ds, err = report.LoadCSV(fsutil.OSFileSystem{}, o.csvPath)
	default:
		ds, err = report.LoadSweep(store, o.sweepID, sentinel)
	}
	switch {
	case err == nil:
		if err := summarise(o, store, ds, stdout); err != nil {
			return err
		}
	case errors.Is(err, report.ErrNoData) && o.serveAddr != "" && o.logsDir == "" && o.csvPath == "":
		// An empty database is still worth serving.
		log.Printf("%s: no sweeps recorded yet", o.dbPath)
	default:
		return err
	}

	if o.serveAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	if err := report.AttachDebugRoutes(mux, store, o.dbPath, sentinel); err != nil {
		return err
	}
	log.Printf("serving results database at http://%s/debug/", o.serveAddr)
	return http.ListenAndServe(o.serveAddr, mux)
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("%s: %v", tool, err)
	}
}
