// Package chart draws PNG charts straight from a table. It never modifies
// the table and does not read analysis records.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
	"github.com/KaramelBytes/insightloom-cli/internal/utils"
)

const (
	maxHistograms = 5
	maxBarCharts  = 5
	maxBoxPlots   = 10
	maxPieCharts  = 3
	maxPieSlices  = 10
	histBins      = 20
	barTopN       = 10
)

var (
	skyBlue    = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	lightGreen = color.RGBA{R: 144, G: 238, B: 144, A: 255}
)

// Options controls chart output.
type Options struct {
	Width, Height vg.Length
	// DateRatio is passed to analysis.Classify; 0 uses the default.
	DateRatio float64
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 10 * vg.Inch
	}
	if h <= 0 {
		h = 6 * vg.Inch
	}
	return w, h
}

// Render writes the charts of tbl into dir and returns the written paths in
// drawing order: histograms, bar charts, the correlation heatmap, box plots
// and pie charts.
func Render(tbl *dataset.Table, dir string, opt Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	ratio := opt.DateRatio
	if ratio <= 0 {
		ratio = analysis.DefaultDateRatio
	}
	var nums, cats []*dataset.Column
	for _, col := range tbl.Columns() {
		switch analysis.Classify(col, ratio) {
		case analysis.ClassNumeric:
			nums = append(nums, col)
		case analysis.ClassCategorical:
			if col.Type() == dataset.Text {
				cats = append(cats, col)
			}
		}
	}

	w, h := opt.size()
	var saved []string
	save := func(p *plot.Plot, name string) error {
		path := filepath.Join(dir, name)
		if err := p.Save(w, h, path); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		saved = append(saved, path)
		return nil
	}

	for i, col := range head(nums, maxHistograms) {
		p, ok, err := histogram(col)
		if err != nil {
			return saved, err
		}
		if ok {
			if err := save(p, "histogram_"+fileStem(col, i)+".png"); err != nil {
				return saved, err
			}
		}
	}
	for i, col := range head(cats, maxBarCharts) {
		p, ok, err := barChart(col)
		if err != nil {
			return saved, err
		}
		if ok {
			if err := save(p, "barchart_"+fileStem(col, i)+".png"); err != nil {
				return saved, err
			}
		}
	}
	if len(nums) > 1 {
		p, err := heatmap(nums)
		if err != nil {
			return saved, err
		}
		if err := save(p, "correlation_heatmap.png"); err != nil {
			return saved, err
		}
	}
	if len(nums) > 0 {
		p, ok, err := boxPlots(head(nums, maxBoxPlots))
		if err != nil {
			return saved, err
		}
		if ok {
			if err := save(p, "boxplots.png"); err != nil {
				return saved, err
			}
		}
	}
	for i, col := range head(cats, maxPieCharts) {
		counts := countValues(col.Strings())
		if len(counts) == 0 || len(counts) > maxPieSlices {
			continue
		}
		if err := save(pieChart(col.Name(), counts), "piechart_"+fileStem(col, i)+".png"); err != nil {
			return saved, err
		}
	}
	return saved, nil
}

func head(cols []*dataset.Column, n int) []*dataset.Column {
	if len(cols) > n {
		return cols[:n]
	}
	return cols
}

func fileStem(col *dataset.Column, i int) string {
	if s := utils.Slug(col.Name()); s != "" {
		return s
	}
	return fmt.Sprintf("column-%d", i+1)
}

// finite drops infinities, which the plotters reject.
func finite(vals []float64) plotter.Values {
	out := make(plotter.Values, 0, len(vals))
	for _, v := range vals {
		if !math.IsInf(v, 0) && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func histogram(col *dataset.Column) (*plot.Plot, bool, error) {
	vals := finite(col.Floats())
	if len(vals) == 0 {
		return nil, false, nil
	}
	p := plot.New()
	p.Title.Text = "Distribution of " + col.Name()
	p.X.Label.Text = col.Name()
	p.Y.Label.Text = "Frequency"
	h, err := plotter.NewHist(vals, histBins)
	if err != nil {
		return nil, false, fmt.Errorf("histogram %s: %w", col.Name(), err)
	}
	h.FillColor = skyBlue
	p.Add(plotter.NewGrid(), h)
	return p, true, nil
}

type valueCount struct {
	value string
	count int
}

// countValues orders values by count descending, first-seen order on ties.
func countValues(vals []string) []valueCount {
	idx := make(map[string]int)
	var out []valueCount
	for _, v := range vals {
		if i, ok := idx[v]; ok {
			out[i].count++
			continue
		}
		idx[v] = len(out)
		out = append(out, valueCount{value: v, count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].count > out[j].count })
	return out
}

func barChart(col *dataset.Column) (*plot.Plot, bool, error) {
	counts := countValues(col.Strings())
	if len(counts) == 0 {
		return nil, false, nil
	}
	if len(counts) > barTopN {
		counts = counts[:barTopN]
	}
	vals := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	labels := plotter.XYLabels{XYs: make(plotter.XYs, len(counts)), Labels: make([]string, len(counts))}
	for i, c := range counts {
		vals[i] = float64(c.count)
		names[i] = c.value
		labels.XYs[i] = plotter.XY{X: float64(i), Y: float64(c.count)}
		labels.Labels[i] = fmt.Sprint(c.count)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top %d Categories in %s", barTopN, col.Name())
	p.X.Label.Text = col.Name()
	p.Y.Label.Text = "Count"
	bars, err := plotter.NewBarChart(vals, vg.Points(24))
	if err != nil {
		return nil, false, fmt.Errorf("bar chart %s: %w", col.Name(), err)
	}
	bars.Color = lightGreen
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, false, fmt.Errorf("bar labels %s: %w", col.Name(), err)
	}
	p.Add(plotter.NewGrid(), bars, text)
	p.NominalX(names...)
	return p, true, nil
}

// corrGrid is the pairwise-complete correlation matrix of the numeric
// columns. Undefined coefficients are drawn as 0.
type corrGrid struct {
	r [][]float64
}

func (g corrGrid) Dims() (c, r int)   { return len(g.r), len(g.r) }
func (g corrGrid) Z(c, r int) float64 { return g.r[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func correlationMatrix(cols []*dataset.Column) corrGrid {
	n := len(cols)
	g := corrGrid{r: make([][]float64, n)}
	for i := range g.r {
		g.r[i] = make([]float64, n)
		g.r[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var xs, ys []float64
			for row := 0; row < cols[i].Len(); row++ {
				x, okx := cols[i].Float(row)
				y, oky := cols[j].Float(row)
				if okx && oky {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if r, ok := analysis.Pearson(xs, ys); ok {
				g.r[i][j], g.r[j][i] = r, r
			}
		}
	}
	return g
}

func heatmap(cols []*dataset.Column) (*plot.Plot, error) {
	grid := correlationMatrix(cols)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	hm := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	hm.Min, hm.Max = -1, 1

	var labels plotter.XYLabels
	for r := range grid.r {
		for c := range grid.r[r] {
			labels.XYs = append(labels.XYs, plotter.XY{X: float64(c), Y: float64(r)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%.2f", grid.r[r][c]))
		}
	}
	text, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	p := plot.New()
	p.Title.Text = "Correlation Heatmap"
	p.Add(hm, text)
	p.NominalX(names...)
	p.NominalY(names...)
	return p, nil
}

func boxPlots(cols []*dataset.Column) (*plot.Plot, bool, error) {
	p := plot.New()
	p.Title.Text = "Box Plots for Numerical Columns"
	var names []string
	for _, col := range cols {
		vals := finite(col.Floats())
		if len(vals) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(len(names)), vals)
		if err != nil {
			return nil, false, fmt.Errorf("box plot %s: %w", col.Name(), err)
		}
		p.Add(box)
		names = append(names, col.Name())
	}
	if len(names) == 0 {
		return nil, false, nil
	}
	p.Add(plotter.NewGrid())
	p.NominalX(names...)
	return p, true, nil
}
