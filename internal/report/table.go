package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/beholders/benchsweep/internal/results"
)

func formatStat(s results.Stat) string {
	switch s.N {
	case 0:
		return "-"
	case 1:
		return fmt.Sprintf("%.4f", s.Mean)
	}
	return fmt.Sprintf("%.4f ± %.4f", s.Mean, s.StdDev)
}

// WriteTable prints one line per grid point with mean ± standard deviation
// of every timing over its successful iterations.
func WriteTable(w io.Writer, ds Dataset) error {
	groups := ds.Groups()
	if len(groups) == 0 {
		return ErrNoData
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File size\t%s\tFraction\tRuns\tFailed\tInit (s)\tFK20 (s)\tProving (s)\tMining (s)\n", ds.Schema.AxisColumn)
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			humanize.IBytes(uint64(g.FileSize)), g.Axis, g.Fraction, g.Runs, g.Failures,
			formatStat(g.Init), formatStat(g.FK20), formatStat(g.Proving), formatStat(g.Mining))
	}
	return tw.Flush()
}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
)

func latexMean(s results.Stat) string {
	if s.N == 0 {
		return "--"
	}
	return fmt.Sprintf("%.6f", s.Mean)
}

// WriteLaTeX writes a booktabs tabular of mean timings per grid point,
// indexed by file size in KiB.
func WriteLaTeX(w io.Writer, ds Dataset) error {
	groups := ds.Groups()
	if len(groups) == 0 {
		return ErrNoData
	}

	var b strings.Builder
	b.WriteString("\\begin{tabular}{rllrrrr}\n\\toprule\n")
	fmt.Fprintf(&b, "File Size (KiB) & %s & Fraction & Initialization Time (s) & FK20 Time (s) & Proving Time (s) & Mining Time (s) \\\\\n",
		latexEscaper.Replace(ds.Schema.AxisColumn))
	b.WriteString("\\midrule\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "%d & %s & %s & %s & %s & %s & %s \\\\\n",
			g.FileSize/1024, latexEscaper.Replace(g.Axis), latexEscaper.Replace(g.Fraction),
			latexMean(g.Init), latexMean(g.FK20), latexMean(g.Proving), latexMean(g.Mining))
	}
	b.WriteString("\\bottomrule\n\\end{tabular}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
