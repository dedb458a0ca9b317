package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pie draws one wedge per value, counterclockwise from 12 o'clock.
type pie struct {
	counts []float64
	colors []color.Color
}

func (pc pie) Plot(c draw.Canvas, _ *plot.Plot) {
	var total float64
	for _, v := range pc.counts {
		total += v
	}
	if total == 0 {
		return
	}
	center := vg.Point{X: (c.Min.X + c.Max.X) / 2, Y: (c.Min.Y + c.Max.Y) / 2}
	radius := min(c.Max.X-c.Min.X, c.Max.Y-c.Min.Y) * 0.45
	start := math.Pi / 2
	for i, v := range pc.counts {
		sweep := 2 * math.Pi * v / total
		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, sweep)
		path.Close()
		c.SetColor(pc.colors[i])
		c.Fill(path)
		start += sweep
	}
}

// swatch is the legend thumbnail of a wedge.
type swatch struct{ color color.Color }

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.SetColor(s.color)
	c.Fill(c.Rectangle.Path())
}

func pieChart(name string, counts []valueCount) *plot.Plot {
	n := len(counts)
	colors := palette.Rainbow(max(n, 2), palette.Blue, palette.Red, 0.6, 0.9, 1).Colors()
	pc := pie{counts: make([]float64, n), colors: colors}
	var total int
	for i, c := range counts {
		pc.counts[i] = float64(c.count)
		total += c.count
	}

	p := plot.New()
	p.Title.Text = "Distribution of " + name
	p.HideAxes()
	p.Add(pc)
	p.Legend.Top = true
	for i, c := range counts {
		pct := float64(c.count) * 100 / float64(total)
		p.Legend.Add(fmt.Sprintf("%s (%.1f%%)", c.value, pct), swatch{color: colors[i]})
	}
	return p
}
