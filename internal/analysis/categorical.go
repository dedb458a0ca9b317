package analysis

import (
	"strconv"
	"time"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

func (e *Engine) categorical(sheet string, p Params) (*CategoricalResult, []Diagnostic) {
	res := &CategoricalResult{TopN: p.TopN}
	sc, d := e.resolve(KindCategorical, sheet)
	if d != nil {
		return res, e.fail(KindCategorical, sheet, d)
	}
	cols := sc.columns(ClassCategorical)
	if len(cols) == 0 {
		diags := []Diagnostic{{Code: DiagUnsupportedColumnSet, Message: "no categorical columns found"}}
		e.commit(KindCategorical, sc.key, res, diags)
		return res, diags
	}
	for _, col := range cols {
		vals := categoryLabels(col)
		freq := frequency(vals)
		cp := CategoryProfile{
			Column:         col.Name(),
			Unique:         len(freq),
			Missing:        col.NullCount(),
			MissingPercent: percent(col.NullCount(), col.Len()),
			Top:            []CategoryCount{},
		}
		shown := 0
		for i, f := range freq {
			if i >= p.TopN {
				break
			}
			cp.Top = append(cp.Top, CategoryCount{Value: f.Label, Count: f.Count, Percent: percent(f.Count, len(vals))})
			shown += f.Count
		}
		if rest := len(vals) - shown; rest > 0 {
			cp.Other = CategoryCount{Value: "Other", Count: rest, Percent: percent(rest, len(vals))}
		}
		res.Columns = append(res.Columns, cp)
	}
	e.commit(KindCategorical, sc.key, res, nil)
	return res, nil
}

// categoryLabels renders the non-null cells of any column as strings.
// Columns that fall back to categorical because they are empty may have any
// declared type.
func categoryLabels(col *dataset.Column) []string {
	switch col.Type() {
	case dataset.Text:
		return col.Strings()
	case dataset.Numeric:
		vals := col.Floats()
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		return out
	case dataset.DateTime:
		vals := col.Times()
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = v.Format(time.RFC3339)
		}
		return out
	}
	var out []string
	for i := 0; i < col.Len(); i++ {
		if b, ok := col.Bool(i); ok {
			out = append(out, strconv.FormatBool(b))
		}
	}
	return out
}
