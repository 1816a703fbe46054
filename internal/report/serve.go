package report

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/beholders/benchsweep/internal/httputil"
	"github.com/beholders/benchsweep/internal/monitoring"
	"github.com/beholders/benchsweep/internal/results"
	"github.com/beholders/benchsweep/internal/security"
)

// AttachDebugRoutes mounts the results browser on mux under /debug/: a
// tailsql console over the store, the list of recorded sweeps, per-sweep
// charts and tables, and a database snapshot download.
func AttachDebugRoutes(mux *http.ServeMux, store *results.Store, dbPath, sentinel string) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(dbPath), store.DB(), &tailsql.DBOptions{
		Label: "Benchmark results",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("sweeps", "Recorded sweeps (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sweeps, err := store.Sweeps()
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, sweeps)
	}))

	sweepView := func(contentType string, render func(io.Writer, Dataset) error) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ds, err := LoadSweep(store, r.URL.Query().Get("sweep"), sentinel)
			if errors.Is(err, ErrNoData) {
				httputil.WriteError(w, http.StatusNotFound, err.Error())
				return
			}
			if err != nil {
				httputil.WriteError(w, http.StatusBadRequest, err.Error())
				return
			}
			w.Header().Set("Content-Type", contentType)
			if err := render(w, ds); err != nil {
				monitoring.Warnf("render %s: %v", r.URL.Path, err)
			}
		})
	}
	debug.Handle("chart", "Proving time chart of a sweep (?sweep=ID, default latest)", sweepView("text/html; charset=utf-8", WriteHTML))
	debug.Handle("plot.png", "Proving time plot of a sweep (?sweep=ID)", sweepView("image/png", WritePlot))
	debug.Handle("summary", "Summary table of a sweep (?sweep=ID)", sweepView("text/plain; charset=utf-8", WriteTable))
	debug.Handle("latex", "LaTeX table of a sweep (?sweep=ID)", sweepView("text/plain; charset=utf-8", WriteLaTeX))

	debug.Handle("backup", "Download a snapshot of the results database", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := fmt.Sprintf("%s-backup-%d.db", security.SafeFileName(strings.TrimSuffix(filepath.Base(dbPath), filepath.Ext(dbPath))), time.Now().UnixNano())
		backupPath := filepath.Join(os.TempDir(), name)
		if err := security.CheckWithin(backupPath, os.TempDir()); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := store.DB().Exec("VACUUM INTO ?", backupPath); err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("create backup: %v", err))
			return
		}
		defer func() {
			if err := os.Remove(backupPath); err != nil {
				monitoring.Warnf("remove backup file: %v", err)
			}
		}()

		backupFile, err := os.Open(backupPath)
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("open backup: %v", err))
			return
		}
		defer backupFile.Close()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, backupFile); err != nil {
			monitoring.Warnf("send backup: %v", err)
		}
	}))
	return nil
}
