package analysis

import "strings"

// OutlierMethod selects how outlier bounds are computed.
type OutlierMethod string

const (
	MethodIQR    OutlierMethod = "iqr"
	MethodZScore OutlierMethod = "zscore"
)

const (
	DefaultIQRThreshold    = 1.5
	DefaultZScoreThreshold = 3.0
)

// resolveMethod normalizes a method name. Unknown names resolve to IQR and
// report false.
func resolveMethod(s string) (OutlierMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iqr":
		return MethodIQR, true
	case "zscore", "z-score", "z":
		return MethodZScore, true
	}
	return MethodIQR, false
}

func (m OutlierMethod) defaultThreshold() float64 {
	if m == MethodZScore {
		return DefaultZScoreThreshold
	}
	return DefaultIQRThreshold
}

// Params bundles every tunable of the passes.
type Params struct {
	CorrelationThreshold float64
	OutlierMethod        string
	// OutlierThreshold of 0 selects the method default.
	OutlierThreshold   float64
	OutlierSampleLimit int
	TopN               int
	DateDetectRatio    float64
	// DateDistributionMin is the number of dates a column must exceed before
	// weekday, month and year distributions are reported.
	DateDistributionMin int
	Workers             int
	// Passes restricts RunAll; empty runs every pass.
	Passes []Kind
}

func DefaultParams() Params {
	return Params{
		CorrelationThreshold: 0.5,
		OutlierMethod:        string(MethodIQR),
		OutlierSampleLimit:   10,
		TopN:                 5,
		DateDetectRatio:      DefaultDateRatio,
		DateDistributionMin:  10,
		Workers:              4,
	}
}

// normalized fills zero values with defaults. Thresholds are left alone
// because 0 is meaningful for them.
func (p Params) normalized() Params {
	d := DefaultParams()
	if p.OutlierSampleLimit <= 0 {
		p.OutlierSampleLimit = d.OutlierSampleLimit
	}
	if p.TopN <= 0 {
		p.TopN = d.TopN
	}
	if p.DateDetectRatio <= 0 || p.DateDetectRatio > 1 {
		p.DateDetectRatio = d.DateDetectRatio
	}
	if p.DateDistributionMin <= 0 {
		p.DateDistributionMin = d.DateDistributionMin
	}
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	return p
}

func (p Params) wants(k Kind) bool {
	if len(p.Passes) == 0 {
		return true
	}
	for _, x := range p.Passes {
		if x == k {
			return true
		}
	}
	return false
}

// selected returns the kinds p runs, in report order.
func (p Params) selected() []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if p.wants(k) {
			out = append(out, k)
		}
	}
	return out
}
