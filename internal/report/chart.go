package report

import (
	"fmt"
	"image/color"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/beholders/benchsweep/internal/results"
)

// series is one line of a proving-time chart: every size measured at one
// axis value and fraction.
type series struct {
	label  string
	points []results.Group
}

// provingSeries splits the groups into chart lines, dropping groups with no
// successful iteration. Line order follows the first appearance of each
// label, which is ascending axis order.
func provingSeries(ds Dataset) ([]series, []int64) {
	var (
		out   []series
		index = make(map[string]int)
		sizes []int64
		seen  = make(map[int64]bool)
	)
	for _, g := range ds.Groups() {
		if g.Proving.N == 0 {
			continue
		}
		label := fmt.Sprintf("%s=%s", ds.Schema.AxisColumn, g.Axis)
		if g.Fraction != "" && g.Fraction != "1" {
			label += " (" + g.Fraction + ")"
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, series{label: label})
		}
		out[i].points = append(out[i].points, g)
		if !seen[g.FileSize] {
			seen[g.FileSize] = true
			sizes = append(sizes, g.FileSize)
		}
	}
	return out, sizes
}

// WritePlot renders mean proving time against payload size as a PNG.
func WritePlot(w io.Writer, ds Dataset) error {
	lines, _ := provingSeries(ds)
	if len(lines) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = "Proving time by payload size"
	p.X.Label.Text = "Payload size (KiB)"
	p.Y.Label.Text = "Proving time (s)"

	colors := generateColors(len(lines))
	for i, s := range lines {
		pts := make(plotter.XYs, 0, len(s.points))
		for _, g := range s.points {
			pts = append(pts, plotter.XY{X: float64(g.FileSize) / 1024, Y: g.Proving.Mean})
		}
		line, scatter, err := plotter.NewLinePoints(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		scatter.Color = colors[i]
		p.Add(line, scatter)
		p.Legend.Add(s.label, line, scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// WriteHTML renders the same chart as an interactive echarts page.
func WriteHTML(w io.Writer, ds Dataset) error {
	lines, sizes := provingSeries(ds)
	if len(lines) == 0 {
		return ErrNoData
	}
	slices.Sort(sizes)

	labels := make([]string, len(sizes))
	for i, s := range sizes {
		labels[i] = humanize.IBytes(uint64(s))
	}

	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Benchmark results", Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Proving time", Subtitle: fmt.Sprintf("%s, %d runs", ds.Source, len(ds.Rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Payload size", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Proving time (s)", NameLocation: "middle", NameGap: 45}),
	)
	chart.SetXAxis(labels)

	for _, s := range lines {
		bySize := make(map[int64]results.Group, len(s.points))
		for _, g := range s.points {
			bySize[g.FileSize] = g
		}
		data := make([]opts.LineData, len(sizes))
		for i, size := range sizes {
			if g, ok := bySize[size]; ok {
				data[i] = opts.LineData{Value: g.Proving.Mean}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		chart.AddSeries(s.label, data)
	}
	return chart.Render(w)
}

// generateColors spreads n line colours evenly around the hue circle.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255), uint8(hueToRGB(p, q, h) * 255), uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
