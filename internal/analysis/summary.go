package analysis

import "fmt"

func (e *Engine) overview(sheet string) (*OverviewResult, []Diagnostic) {
	res := &OverviewResult{}
	sc, d := e.resolve(KindOverview, sheet)
	if d != nil {
		return res, e.fail(KindOverview, sheet, d)
	}
	res.Rows = sc.table.Rows()
	res.Columns = sc.table.NumCols()
	res.ColumnNames = sc.table.ColumnNames()
	res.Sheets = sc.sheets
	for i, col := range sc.table.Columns() {
		res.Types = append(res.Types, ColumnType{
			Name:     col.Name(),
			Declared: col.Type().String(),
			Class:    sc.classes[i].String(),
			Missing:  col.NullCount(),
		})
	}
	e.commit(KindOverview, sc.key, res, nil)
	return res, nil
}

func (e *Engine) summary(sheet string) (*SummaryResult, []Diagnostic) {
	res := &SummaryResult{}
	sc, d := e.resolve(KindSummary, sheet)
	if d != nil {
		return res, e.fail(KindSummary, sheet, d)
	}
	cols := sc.columns(ClassNumeric)
	if len(cols) == 0 {
		diags := []Diagnostic{{Code: DiagUnsupportedColumnSet, Message: "no numerical columns found"}}
		e.commit(KindSummary, sc.key, res, diags)
		return res, diags
	}
	for _, col := range cols {
		vals := col.Floats()
		sorted := sortedCopy(vals)
		st := ColumnStats{
			Column: col.Name(),
			Count:  len(vals),
			Mean:   mean(vals),
			Min:    sorted[0],
			Q1:     Quantile(sorted, 0.25),
			Median: Quantile(sorted, 0.5),
			Q3:     Quantile(sorted, 0.75),
			Max:    sorted[len(sorted)-1],
		}
		if sd, ok := sampleStd(vals); ok {
			st.Std = &sd
		}
		res.Columns = append(res.Columns, st)
	}
	e.commit(KindSummary, sc.key, res, nil)
	return res, nil
}

func (e *Engine) correlations(sheet string, p Params) (*CorrelationResult, []Diagnostic) {
	res := &CorrelationResult{Threshold: p.CorrelationThreshold}
	sc, d := e.resolve(KindCorrelation, sheet)
	if d != nil {
		return res, e.fail(KindCorrelation, sheet, d)
	}
	cols := sc.columns(ClassNumeric)
	if len(cols) < 2 {
		diags := []Diagnostic{{Code: DiagUnsupportedColumnSet, Message: "need at least 2 numerical columns to calculate correlations"}}
		e.commit(KindCorrelation, sc.key, res, diags)
		return res, diags
	}
	var diags []Diagnostic
	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			xs, ys := pairwiseComplete(cols[i], cols[j])
			r, ok := Pearson(xs, ys)
			if !ok {
				diags = append(diags, Diagnostic{
					Code:    DiagDegenerateInput,
					Column:  cols[i].Name() + " - " + cols[j].Name(),
					Message: fmt.Sprintf("correlation undefined over %d complete rows", len(xs)),
				})
				continue
			}
			if abs(r) >= p.CorrelationThreshold {
				res.Pairs = append(res.Pairs, CorrelationPair{
					A:            cols[i].Name(),
					B:            cols[j].Name(),
					Coefficient:  r,
					Observations: len(xs),
				})
			}
		}
	}
	e.commit(KindCorrelation, sc.key, res, diags)
	return res, diags
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
