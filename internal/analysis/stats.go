package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

// Quantile returns the q-quantile of sorted using linear interpolation
// between the closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// welford accumulates mean and the sum of squared deviations in one pass.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

// moments returns the mean and the ddof=1 variance term of vals. Finite
// inputs are scaled by their largest magnitude first so values near
// math.MaxFloat64 do not overflow the accumulators.
func moments(vals []float64) (m, std float64, ok bool) {
	if len(vals) == 0 {
		return 0, 0, false
	}
	scale := 0.0
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			scale = 1
			break
		}
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	if scale == 0 {
		scale = 1
	}
	var w welford
	for _, v := range vals {
		if scale == 1 {
			w.add(v)
		} else {
			w.add(v / scale)
		}
	}
	m = w.mean * scale
	if w.n < 2 {
		return m, 0, false
	}
	return m, math.Sqrt(w.m2/float64(w.n-1)) * scale, true
}

func mean(vals []float64) float64 {
	m, _, _ := moments(vals)
	return m
}

// sampleStd returns the ddof=1 standard deviation, or false when it is undefined.
func sampleStd(vals []float64) (float64, bool) {
	_, sd, ok := moments(vals)
	return sd, ok
}

func sortedCopy(vals []float64) []float64 {
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	return cp
}

// Pearson returns the correlation coefficient of two aligned samples.
// It reports false when fewer than two observations exist or either side
// has zero variance.
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// pairwiseComplete collects the rows where both numeric columns hold a value.
func pairwiseComplete(a, b *dataset.Column) (xs, ys []float64) {
	for i := 0; i < a.Len(); i++ {
		x, okx := a.Float(i)
		y, oky := b.Float(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// frequency counts labels and orders them by count descending, keeping
// first-seen order for ties.
func frequency(labels []string) []Frequency {
	idx := make(map[string]int)
	var out []Frequency
	for _, l := range labels {
		if i, ok := idx[l]; ok {
			out[i].Count++
			continue
		}
		idx[l] = len(out)
		out = append(out, Frequency{Label: l, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
