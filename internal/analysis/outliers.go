package analysis

import (
	"fmt"
	"math"
)

func (e *Engine) outliers(sheet string, p Params) (*OutlierResult, []Diagnostic) {
	method, known := resolveMethod(p.OutlierMethod)
	threshold := p.OutlierThreshold
	if threshold <= 0 {
		threshold = method.defaultThreshold()
	}
	res := &OutlierResult{Method: method, Threshold: threshold}
	sc, d := e.resolve(KindOutliers, sheet)
	if d != nil {
		return res, e.fail(KindOutliers, sheet, d)
	}
	var diags []Diagnostic
	if !known {
		diags = append(diags, Diagnostic{
			Code:    DiagUnknownMethod,
			Message: fmt.Sprintf("unknown method %q, using IQR instead", p.OutlierMethod),
		})
	}
	cols := sc.columns(ClassNumeric)
	if len(cols) == 0 {
		diags = append(diags, Diagnostic{Code: DiagUnsupportedColumnSet, Message: "no numerical columns found"})
		e.commit(KindOutliers, sc.key, res, diags)
		return res, diags
	}
	for _, col := range cols {
		vals := col.Floats()
		var lower, upper float64
		switch method {
		case MethodZScore:
			sd, ok := sampleStd(vals)
			if !ok || sd == 0 {
				diags = append(diags, Diagnostic{
					Code:    DiagDegenerateInput,
					Column:  col.Name(),
					Message: "zero standard deviation, column skipped",
				})
				continue
			}
			m := mean(vals)
			lower, upper = m-threshold*sd, m+threshold*sd
			res.addColumn(col.Name(), vals, lower, upper, p.OutlierSampleLimit, func(v float64) bool {
				return math.Abs(v-m)/sd > threshold
			})
		default:
			sorted := sortedCopy(vals)
			q1 := Quantile(sorted, 0.25)
			q3 := Quantile(sorted, 0.75)
			iqr := q3 - q1
			lower, upper = q1-threshold*iqr, q3+threshold*iqr
			res.addColumn(col.Name(), vals, lower, upper, p.OutlierSampleLimit, func(v float64) bool {
				return v < lower || v > upper
			})
		}
	}
	e.commit(KindOutliers, sc.key, res, diags)
	return res, diags
}

// addColumn records the values matching flagged, keeping at most limit of
// them in original order. Columns without outliers are left out.
func (r *OutlierResult) addColumn(name string, vals []float64, lower, upper float64, limit int, flagged func(float64) bool) {
	co := ColumnOutliers{Column: name, Lower: lower, Upper: upper}
	for _, v := range vals {
		if !flagged(v) {
			continue
		}
		co.Count++
		if len(co.Values) < limit {
			co.Values = append(co.Values, v)
		}
	}
	if co.Count == 0 {
		return
	}
	co.Percentage = percent(co.Count, len(vals))
	r.Columns = append(r.Columns, co)
}
