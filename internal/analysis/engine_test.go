package analysis

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

func mustTable(t *testing.T, name string, cols ...*dataset.Column) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New(name, cols...)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return tbl
}

func newTestEngine(t *testing.T, tables ...*dataset.Table) *Engine {
	t.Helper()
	wb := dataset.NewWorkbook("test.xlsx", "/tmp/test.xlsx")
	for _, tbl := range tables {
		if err := wb.Add(tbl); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	e := NewEngine(nil, DefaultParams())
	e.Load(wb)
	return e
}

func hasCode(diags []Diagnostic, code DiagnosticCode) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}

func salesTable(t *testing.T) *dataset.Table {
	return mustTable(t, "Sales",
		dataset.NewNumeric("units", []float64{1, 2, 3, 4, 1000}, nil),
		dataset.NewNumeric("price", []float64{10, 8, 6, 4, 0}, []bool{true, true, true, true, false}),
		dataset.NewText("region", []string{"A", "A", "B", "C", ""}, []bool{true, true, true, true, false}),
		dataset.NewBoolean("paid", []bool{true, false, true, true, false}, nil),
	)
}

func TestSummaryStatistics(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	res, diags := e.SummaryStatistics("")
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	names := res.ColumnNames()
	if !reflect.DeepEqual(names, []string{"units", "price"}) {
		t.Fatalf("columns = %v", names)
	}
	units := res.Columns[0]
	if units.Count != 5 || !almostEqual(units.Mean, 202) || units.Min != 1 || units.Max != 1000 {
		t.Fatalf("units = %+v", units)
	}
	if units.Q1 != 2 || units.Median != 3 || units.Q3 != 4 {
		t.Fatalf("quartiles = %v %v %v", units.Q1, units.Median, units.Q3)
	}
	for _, c := range res.Columns {
		if !(c.Min <= c.Q1 && c.Q1 <= c.Median && c.Median <= c.Q3 && c.Q3 <= c.Max) {
			t.Fatalf("%s quartiles not monotonic: %+v", c.Column, c)
		}
	}
	price := res.Columns[1]
	if price.Count != 4 || price.Std == nil {
		t.Fatalf("price = %+v", price)
	}
	if _, ok := e.Store().Get(KindSummary, DefaultSheet); !ok {
		t.Fatalf("summary record not stored under default")
	}
}

func TestSummaryStdUndefinedForSingleValue(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s", dataset.NewNumeric("x", []float64{5, 0}, []bool{true, false})))
	res, _ := e.SummaryStatistics("")
	if res.Columns[0].Std != nil {
		t.Fatalf("std = %v, want nil", *res.Columns[0].Std)
	}
}

func TestSummaryWithoutNumericColumns(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s", dataset.NewText("name", []string{"a", "b"}, nil)))
	res, diags := e.SummaryStatistics("")
	if len(res.Columns) != 0 || !hasCode(diags, DiagUnsupportedColumnSet) {
		t.Fatalf("res = %+v diags = %v", res, diags)
	}
	if rec, ok := e.Store().Get(KindSummary, DefaultSheet); !ok || len(rec.Diagnostics) != 1 {
		t.Fatalf("empty record should still be stored: %+v", rec)
	}
}

func TestCorrelationsAntiCorrelated(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewNumeric("a", []float64{1, 2, 3}, nil),
		dataset.NewNumeric("b", []float64{3, 2, 1}, nil),
		dataset.NewNumeric("flat", []float64{7, 7, 7}, nil),
	))
	res, diags := e.Correlations("", 0.5)
	if len(res.Pairs) != 1 {
		t.Fatalf("pairs = %+v", res.Pairs)
	}
	p := res.Pairs[0]
	if p.Key() != "a - b" || !almostEqual(p.Coefficient, -1) || p.Observations != 3 {
		t.Fatalf("pair = %+v", p)
	}
	if r, ok := res.Lookup("b", "a"); !ok || !almostEqual(r, -1) {
		t.Fatalf("Lookup reversed = %v, %v", r, ok)
	}
	if !hasCode(diags, DiagDegenerateInput) || len(diags) != 2 {
		t.Fatalf("diags = %v, want two degenerate pairs", diags)
	}
	for _, d := range diags {
		if d.Column != "a - flat" && d.Column != "b - flat" {
			t.Fatalf("unexpected diagnostic column %q", d.Column)
		}
	}
}

func TestCorrelationsPairwiseComplete(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewNumeric("x", []float64{1, 2, 3, 4, 0}, []bool{true, true, true, true, false}),
		dataset.NewNumeric("y", []float64{2, 4, 0, 8, 10}, []bool{true, true, false, true, true}),
	))
	res, _ := e.Correlations("", 0.9)
	if len(res.Pairs) != 1 || res.Pairs[0].Observations != 3 || !almostEqual(res.Pairs[0].Coefficient, 1) {
		t.Fatalf("pairs = %+v", res.Pairs)
	}
}

func TestCorrelationsThresholdAndSingleColumn(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewNumeric("x", []float64{1, 2, 3, 4}, nil),
		dataset.NewNumeric("y", []float64{1, 3, 2, 4}, nil),
	))
	res, _ := e.Correlations("", 0.9)
	if len(res.Pairs) != 0 {
		t.Fatalf("r = 0.8 should be below 0.9: %+v", res.Pairs)
	}
	single := newTestEngine(t, mustTable(t, "s", dataset.NewNumeric("x", []float64{1, 2}, nil)))
	if _, diags := single.Correlations("", 0.5); !hasCode(diags, DiagUnsupportedColumnSet) {
		t.Fatalf("diags = %v", diags)
	}
}

func TestOutliersIQR(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewNumeric("five", []float64{1, 2, 3, 4, 1000}, nil),
		dataset.NewNumeric("four", []float64{1, 2, 3, 100, 0}, []bool{true, true, true, true, false}),
		dataset.NewNumeric("calm", []float64{1, 2, 3, 4, 0}, []bool{true, true, true, true, false}),
	))
	res, diags := e.Outliers("", "iqr", 0)
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	if res.Method != MethodIQR || res.Threshold != DefaultIQRThreshold {
		t.Fatalf("method = %v threshold = %v", res.Method, res.Threshold)
	}
	five, ok := res.Column("five")
	if !ok || five.Count != 1 || five.Values[0] != 1000 || !almostEqual(five.Percentage, 20) {
		t.Fatalf("five = %+v", five)
	}
	four, ok := res.Column("four")
	if !ok || !almostEqual(four.Upper, 65.5) || four.Values[0] != 100 {
		t.Fatalf("four = %+v", four)
	}
	for _, c := range res.Columns {
		for _, v := range c.Values {
			if !(v < c.Lower || v > c.Upper) {
				t.Fatalf("%s: %v inside [%v, %v]", c.Column, v, c.Lower, c.Upper)
			}
		}
	}
	if _, ok := res.Column("calm"); ok {
		t.Fatalf("column without outliers should be omitted")
	}
}

func TestOutliersSampleLimit(t *testing.T) {
	vals := make([]float64, 0, 100)
	for i := 0; i < 80; i++ {
		vals = append(vals, 10)
	}
	for i := 0; i < 20; i++ {
		vals = append(vals, float64(1000+i))
	}
	e := newTestEngine(t, mustTable(t, "s", dataset.NewNumeric("v", vals, nil)))
	res, _ := e.Outliers("", "iqr", 0)
	c, ok := res.Column("v")
	if !ok || c.Count != 20 || len(c.Values) != 10 || c.Values[0] != 1000 || c.Values[9] != 1009 {
		t.Fatalf("column = %+v", c)
	}
}

func TestOutliersZScore(t *testing.T) {
	vals := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 50}
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewNumeric("v", vals, nil),
		dataset.NewNumeric("flat", []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}, nil),
	))
	res, diags := e.Outliers("", "zscore", 0)
	if res.Method != MethodZScore || res.Threshold != DefaultZScoreThreshold {
		t.Fatalf("method = %v threshold = %v", res.Method, res.Threshold)
	}
	if c, ok := res.Column("v"); !ok || c.Count != 1 || c.Values[0] != 50 {
		t.Fatalf("v = %+v", c)
	}
	if _, ok := res.Column("flat"); ok {
		t.Fatalf("zero std column must not report outliers")
	}
	if len(diags) != 1 || diags[0].Code != DiagDegenerateInput || diags[0].Column != "flat" {
		t.Fatalf("diags = %v", diags)
	}
}

func TestOutliersUnknownMethodFallsBackToIQR(t *testing.T) {
	log, hook := test.NewNullLogger()
	e := NewEngine(log, DefaultParams())
	wb := dataset.NewWorkbook("x.csv", "")
	if err := wb.Add(mustTable(t, "x", dataset.NewNumeric("v", []float64{1, 2, 3, 4, 1000}, nil))); err != nil {
		t.Fatal(err)
	}
	e.Load(wb)
	hook.Reset()

	res, diags := e.Outliers("", "median", 0)
	if res.Method != MethodIQR || res.Threshold != DefaultIQRThreshold {
		t.Fatalf("method = %v threshold = %v", res.Method, res.Threshold)
	}
	if _, ok := res.Column("v"); !ok {
		t.Fatalf("IQR fallback should still flag 1000")
	}
	if !hasCode(diags, DiagUnknownMethod) {
		t.Fatalf("diags = %v", diags)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Data["code"] != string(DiagUnknownMethod) {
		t.Fatalf("log entry = %+v", entry)
	}
	if entry.Data["run_id"] != e.RunID() {
		t.Fatalf("run_id field = %v", entry.Data["run_id"])
	}
}

func TestCategoricalTopN(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	res, diags := e.Categorical("", 2)
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	cp, ok := res.Column("region")
	if !ok {
		t.Fatalf("region missing: %+v", res)
	}
	if cp.Unique != 3 || cp.Missing != 1 || !almostEqual(cp.MissingPercent, 20) {
		t.Fatalf("profile = %+v", cp)
	}
	want := []CategoryCount{{"A", 2, 50}, {"B", 1, 25}}
	if !reflect.DeepEqual(cp.Top, want) {
		t.Fatalf("top = %+v, want %+v", cp.Top, want)
	}
	if cp.Other.Count != 1 || !almostEqual(cp.Other.Percent, 25) {
		t.Fatalf("other = %+v", cp.Other)
	}
	total := cp.Other.Percent
	for _, c := range cp.Top {
		total += c.Percent
	}
	if !almostEqual(total, 100) || cp.Unique < len(cp.Top) {
		t.Fatalf("percentages sum to %v", total)
	}
	if _, ok := res.Column("paid"); ok {
		t.Fatalf("boolean columns are not categorical")
	}
}

func TestCategoricalEmptyColumn(t *testing.T) {
	e := newTestEngine(t, mustTable(t, "s", dataset.NewNumeric("blank", []float64{0, 0}, []bool{false, false})))
	res, _ := e.Categorical("", 5)
	cp, ok := res.Column("blank")
	if !ok || cp.Unique != 0 || len(cp.Top) != 0 || cp.Missing != 2 || cp.MissingPercent != 100 {
		t.Fatalf("profile = %+v", cp)
	}
}

func TestDateColumns(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	many := make([]time.Time, 12)
	for i := range many {
		many[i] = start.AddDate(0, 0, i*7)
	}
	text := []string{"2023-05-01", "2023-05-10", "2023-06-01", "unknown", ""}
	e := newTestEngine(t, mustTable(t, "s",
		dataset.NewDateTime("weekly", many, nil),
		dataset.NewText("shipped", append(text, make([]string, 7)...),
			[]bool{true, true, true, true, false, false, false, false, false, false, false, false}),
	))
	res, diags := e.DateColumns("")
	if len(diags) != 0 {
		t.Fatalf("diags = %v", diags)
	}
	weekly, ok := res.Column("weekly")
	if !ok || weekly.RangeDays == nil || *weekly.RangeDays != 77 {
		t.Fatalf("weekly = %+v", weekly)
	}
	if !weekly.Min.Equal(start) || !weekly.Max.Equal(many[11]) {
		t.Fatalf("bounds = %v %v", weekly.Min, weekly.Max)
	}
	if len(weekly.Weekdays) != 1 || weekly.Weekdays[0] != (Frequency{"Monday", 12}) {
		t.Fatalf("weekdays = %+v", weekly.Weekdays)
	}
	if len(weekly.Months) != 3 || weekly.Months[0].Label != "January" || len(weekly.Years) != 1 {
		t.Fatalf("months = %+v years = %+v", weekly.Months, weekly.Years)
	}

	shipped, ok := res.Column("shipped")
	if !ok || *shipped.RangeDays != 31 {
		t.Fatalf("shipped = %+v", shipped)
	}
	// "unknown" does not parse and counts as missing alongside the nulls.
	if shipped.Missing != 9 || !almostEqual(shipped.MissingPercent, 75) {
		t.Fatalf("shipped missing = %d (%v%%)", shipped.Missing, shipped.MissingPercent)
	}
	if shipped.Weekdays != nil {
		t.Fatalf("distributions need more than 10 dates")
	}
}

func TestOverview(t *testing.T) {
	e := newTestEngine(t, salesTable(t), mustTable(t, "Targets", dataset.NewNumeric("goal", []float64{1}, nil)))
	res, _ := e.Overview("")
	if res.Rows != 5 || res.Columns != 4 || !reflect.DeepEqual(res.Sheets, []string{"Sales", "Targets"}) {
		t.Fatalf("overview = %+v", res)
	}
	want := ColumnType{Name: "paid", Declared: "boolean", Class: "boolean", Missing: 0}
	if res.Types[3] != want {
		t.Fatalf("paid = %+v", res.Types[3])
	}
}

func TestNoDataLoaded(t *testing.T) {
	e := NewEngine(nil, DefaultParams())
	res, diags := e.SummaryStatistics("")
	if len(res.Columns) != 0 || !hasCode(diags, DiagNoDataLoaded) {
		t.Fatalf("res = %+v diags = %v", res, diags)
	}
	if _, diags := e.Outliers("", "iqr", 0); !hasCode(diags, DiagNoDataLoaded) {
		t.Fatalf("outlier diags = %v", diags)
	}
	if e.Store().Len() != 0 {
		t.Fatalf("no record should be written")
	}
	if err := e.RunAll(context.Background(), "", DefaultParams()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if err := e.AnalyzeWorkbook(context.Background(), DefaultParams()); err != nil {
		t.Fatalf("AnalyzeWorkbook: %v", err)
	}
}

func TestSheetNotFound(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	_, diags := e.Categorical("Missing", 5)
	if !hasCode(diags, DiagSheetNotFound) || e.Store().Len() != 0 {
		t.Fatalf("diags = %v len = %d", diags, e.Store().Len())
	}
}

func TestNamedSheetKeys(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	e.SummaryStatistics("Sales")
	e.SummaryStatistics("")
	if _, ok := e.Store().Get(KindSummary, "Sales"); !ok {
		t.Fatalf("named record missing")
	}
	if _, ok := e.Store().Get(KindSummary, DefaultSheet); !ok {
		t.Fatalf("default record missing")
	}
}

func TestIdempotentPasses(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	ctx := context.Background()
	if err := e.RunAll(ctx, "", DefaultParams()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	first := e.Records()
	if err := e.RunAll(ctx, "", DefaultParams()); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	second := e.Records()
	if len(first) != len(Kinds()) || len(second) != len(first) {
		t.Fatalf("records = %d then %d", len(first), len(second))
	}
	for _, r := range first {
		again, _ := e.Store().Get(r.Kind, r.Sheet)
		if !reflect.DeepEqual(r, again) {
			t.Fatalf("%s record changed between runs", r.Kind)
		}
	}
}

func TestRunAllPassFilter(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	p := DefaultParams()
	p.Passes = []Kind{KindSummary, KindOutliers}
	if err := e.RunAll(context.Background(), "Sales", p); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if e.Store().Len() != 2 {
		t.Fatalf("records = %d, want 2", e.Store().Len())
	}
}

func TestAnalyzeWorkbookAllSheets(t *testing.T) {
	e := newTestEngine(t, salesTable(t), mustTable(t, "Targets", dataset.NewNumeric("goal", []float64{1, 2, 3}, nil)))
	p := DefaultParams()
	p.Workers = 1
	if err := e.AnalyzeWorkbook(context.Background(), p); err != nil {
		t.Fatalf("AnalyzeWorkbook: %v", err)
	}
	for _, sheet := range []string{"Sales", "Targets"} {
		for _, k := range Kinds() {
			if _, ok := e.Store().Get(k, sheet); !ok {
				t.Fatalf("missing %s record for %s", k, sheet)
			}
		}
	}
	if _, ok := e.Store().Get(KindSummary, DefaultSheet); ok {
		t.Fatalf("workbook analysis should key records by sheet name")
	}
}

func TestAnalyzeWorkbookCancelled(t *testing.T) {
	e := newTestEngine(t, salesTable(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.AnalyzeWorkbook(ctx, DefaultParams()); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestAnalyzeWorkbookStableOrder(t *testing.T) {
	sheets := []string{"Sales", "Targets", "Third"}
	var want []string
	for _, s := range sheets {
		for _, k := range Kinds() {
			want = append(want, string(k)+":"+s)
		}
	}
	p := DefaultParams()
	p.Workers = len(sheets)
	for run := 0; run < 50; run++ {
		e := newTestEngine(t,
			salesTable(t),
			mustTable(t, "Targets", dataset.NewNumeric("goal", []float64{1, 2, 3, 4}, nil)),
			mustTable(t, "Third", dataset.NewText("tag", []string{"x", "y", "x"}, nil)),
		)
		if err := e.AnalyzeWorkbook(context.Background(), p); err != nil {
			t.Fatalf("AnalyzeWorkbook: %v", err)
		}
		var got []string
		for _, r := range e.Records() {
			got = append(got, string(r.Kind)+":"+r.Sheet)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d order = %v, want %v", run, got, want)
		}
	}
}

func TestLoadSnapshotsWorkbook(t *testing.T) {
	wb := dataset.NewWorkbook("test.xlsx", "")
	if err := wb.Add(salesTable(t)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	e := NewEngine(nil, DefaultParams())
	e.Load(wb)

	late := mustTable(t, "Late", dataset.NewNumeric("x", []float64{1, 2}, nil))
	if err := wb.Add(late); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, diags := e.SummaryStatistics("Late"); !hasCode(diags, DiagSheetNotFound) {
		t.Fatalf("sheet added after Load should not be visible, diags = %v", diags)
	}

	other := mustTable(t, "Other", dataset.NewNumeric("y", []float64{3, 4}, nil))
	if err := e.Workbook().Add(other); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, diags := e.Outliers("Other", "iqr", 0); !hasCode(diags, DiagSheetNotFound) {
		t.Fatalf("unclassified sheet should be reported missing, diags = %v", diags)
	}
}
