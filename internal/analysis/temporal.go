package analysis

import "strconv"

func (e *Engine) dates(sheet string, p Params) (*TemporalResult, []Diagnostic) {
	p = p.normalized()
	res := &TemporalResult{}
	sc, d := e.resolve(KindTemporal, sheet)
	if d != nil {
		return res, e.fail(KindTemporal, sheet, d)
	}
	cols := sc.columns(ClassTemporal)
	if len(cols) == 0 {
		diags := []Diagnostic{{Code: DiagUnsupportedColumnSet, Message: "no date columns found"}}
		e.commit(KindTemporal, sc.key, res, diags)
		return res, diags
	}
	for _, col := range cols {
		times := temporalValues(col)
		missing := col.Len() - len(times)
		dp := DateProfile{
			Column:         col.Name(),
			Missing:        missing,
			MissingPercent: percent(missing, col.Len()),
		}
		if len(times) > 0 {
			lo, hi := times[0], times[0]
			for _, t := range times[1:] {
				if t.Before(lo) {
					lo = t
				}
				if t.After(hi) {
					hi = t
				}
			}
			days := dayDiff(lo, hi)
			dp.Min, dp.Max, dp.RangeDays = &lo, &hi, &days
		}
		if len(times) > p.DateDistributionMin {
			weekdays := make([]string, len(times))
			months := make([]string, len(times))
			years := make([]string, len(times))
			for i, t := range times {
				weekdays[i] = t.Weekday().String()
				months[i] = t.Month().String()
				years[i] = strconv.Itoa(t.Year())
			}
			dp.Weekdays = frequency(weekdays)
			dp.Months = frequency(months)
			dp.Years = frequency(years)
		}
		res.Columns = append(res.Columns, dp)
	}
	e.commit(KindTemporal, sc.key, res, nil)
	return res, nil
}
