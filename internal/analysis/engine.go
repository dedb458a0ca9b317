// Package analysis runs the statistical passes over a loaded workbook and
// accumulates their records.
package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/insightloom-cli/internal/dataset"
)

// Engine owns one workbook, the column classes derived from it and the
// records produced by the passes.
type Engine struct {
	log    logrus.FieldLogger
	runID  string
	params Params
	store  *Store

	mu      sync.RWMutex
	wb      *dataset.Workbook
	classes map[string][]Class
}

// NewEngine creates an empty engine. A nil logger discards output.
func NewEngine(log logrus.FieldLogger, p Params) *Engine {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	id := uuid.NewString()
	return &Engine{
		log:    log.WithField("run_id", id),
		runID:  id,
		params: p.normalized(),
		store:  NewStore(),
	}
}

func (e *Engine) RunID() string     { return e.runID }
func (e *Engine) Params() Params    { return e.params }
func (e *Engine) Store() *Store     { return e.store }
func (e *Engine) Records() []Record { return e.store.Records() }

// Workbook returns the loaded workbook or nil.
func (e *Engine) Workbook() *dataset.Workbook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wb
}

// Load installs a snapshot of wb and classifies every column once. Sheets
// added to wb afterwards are not seen by the engine.
func (e *Engine) Load(wb *dataset.Workbook) {
	snap := dataset.NewWorkbook(wb.Name, wb.Path)
	classes := make(map[string][]Class, wb.Len())
	for _, name := range wb.Names() {
		t, _ := wb.Sheet(name)
		_ = snap.Add(t)
		cs := make([]Class, t.NumCols())
		for i, col := range t.Columns() {
			cs[i] = Classify(col, e.params.DateDetectRatio)
		}
		classes[name] = cs
	}
	e.mu.Lock()
	e.wb = snap
	e.classes = classes
	e.mu.Unlock()
	e.log.WithFields(logrus.Fields{"file": wb.Name, "sheets": wb.Len()}).
		Infof("Successfully loaded %d sheets from %s", wb.Len(), wb.Name)
}

// Profiles returns the column profiles of a sheet ("" for the default).
func (e *Engine) Profiles(sheet string) ([]ColumnProfile, bool) {
	sc, diag := e.resolve(KindOverview, sheet)
	if diag != nil {
		return nil, false
	}
	out := make([]ColumnProfile, sc.table.NumCols())
	for i, col := range sc.table.Columns() {
		out[i] = ColumnProfile{
			Name:     col.Name(),
			Declared: col.Type(),
			Class:    sc.classes[i],
			Rows:     col.Len(),
			Nulls:    col.NullCount(),
		}
	}
	return out, true
}

type scope struct {
	key     string
	table   *dataset.Table
	classes []Class
	sheets  []string
}

// columns returns the columns of the given class in table order.
func (s scope) columns(c Class) []*dataset.Column {
	var out []*dataset.Column
	for i, col := range s.table.Columns() {
		if s.classes[i] == c {
			out = append(out, col)
		}
	}
	return out
}

func (e *Engine) resolve(kind Kind, sheet string) (scope, *Diagnostic) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.wb == nil || e.wb.Default() == nil {
		return scope{}, &Diagnostic{Code: DiagNoDataLoaded, Message: "no data loaded"}
	}
	key, name := sheet, sheet
	if sheet == "" {
		key, name = DefaultSheet, e.wb.DefaultName()
	}
	t, ok := e.wb.Sheet(name)
	classes, classified := e.classes[name]
	if !ok || !classified || len(classes) != t.NumCols() {
		return scope{}, &Diagnostic{Code: DiagSheetNotFound, Message: fmt.Sprintf("sheet %q not found", sheet)}
	}
	return scope{key: key, table: t, classes: classes, sheets: e.wb.Names()}, nil
}


// commit logs the diagnostics of a pass and stores its record.
func (e *Engine) commit(kind Kind, key string, res Result, diags []Diagnostic) {
	e.logDiagnostics(kind, key, diags)
	e.store.Put(Record{Kind: kind, Sheet: key, RunID: e.runID, Result: res, Diagnostics: diags})
}

func (e *Engine) logDiagnostics(kind Kind, sheet string, diags []Diagnostic) {
	for _, d := range diags {
		entry := e.log.WithFields(logrus.Fields{"pass": string(kind), "sheet": sheet, "code": string(d.Code)})
		if d.Column != "" {
			entry = entry.WithField("column", d.Column)
		}
		switch d.Code {
		case DiagUnknownMethod, DiagNoDataLoaded, DiagSheetNotFound:
			entry.Warn(d.Message)
		default:
			entry.Info(d.Message)
		}
	}
}

// fail reports a resolution problem. Nothing is stored.
func (e *Engine) fail(kind Kind, sheet string, d *Diagnostic) []Diagnostic {
	diags := []Diagnostic{*d}
	e.logDiagnostics(kind, sheet, diags)
	return diags
}

// RunAll runs the selected passes over one sheet concurrently. Passes never
// fail; the returned error is only set when ctx is done.
func (e *Engine) RunAll(ctx context.Context, sheet string, p Params) error {
	p = p.normalized()
	sc, d := e.resolve(KindOverview, sheet)
	if d != nil {
		e.fail(KindOverview, sheet, d)
		return nil
	}
	e.store.Reserve(sc.key, p.selected()...)
	g, ctx := errgroup.WithContext(ctx)
	run := func(k Kind, fn func()) {
		if !p.wants(k) {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}
	run(KindOverview, func() { e.overview(sheet) })
	run(KindSummary, func() { e.summary(sheet) })
	run(KindCorrelation, func() { e.correlations(sheet, p) })
	run(KindOutliers, func() { e.outliers(sheet, p) })
	run(KindCategorical, func() { e.categorical(sheet, p) })
	run(KindTemporal, func() { e.dates(sheet, p) })
	return g.Wait()
}

// AnalyzeWorkbook runs RunAll for every sheet by name, at most p.Workers
// sheets at a time. Records come out in sheet order, then pass order,
// however the goroutines are scheduled.
func (e *Engine) AnalyzeWorkbook(ctx context.Context, p Params) error {
	wb := e.Workbook()
	if wb == nil {
		e.fail(KindOverview, "", &Diagnostic{Code: DiagNoDataLoaded, Message: "no data loaded"})
		return nil
	}
	p = p.normalized()
	for _, name := range wb.Names() {
		e.store.Reserve(name, p.selected()...)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for _, name := range wb.Names() {
		g.Go(func() error {
			return e.RunAll(ctx, name, p)
		})
	}
	return g.Wait()
}

// SummaryStatistics computes descriptive statistics of every numeric column.
func (e *Engine) SummaryStatistics(sheet string) (*SummaryResult, []Diagnostic) {
	return e.summary(sheet)
}

// Correlations reports column pairs whose |r| is at least threshold.
func (e *Engine) Correlations(sheet string, threshold float64) (*CorrelationResult, []Diagnostic) {
	p := e.params
	p.CorrelationThreshold = threshold
	return e.correlations(sheet, p)
}

// Outliers flags numeric values outside the bounds of method. A threshold
// of 0 selects the method default.
func (e *Engine) Outliers(sheet, method string, threshold float64) (*OutlierResult, []Diagnostic) {
	p := e.params
	p.OutlierMethod = method
	p.OutlierThreshold = threshold
	return e.outliers(sheet, p)
}

// Categorical profiles every categorical column, keeping topN values.
func (e *Engine) Categorical(sheet string, topN int) (*CategoricalResult, []Diagnostic) {
	p := e.params
	p.TopN = topN
	return e.categorical(sheet, p.normalized())
}

// DateColumns profiles every temporal column.
func (e *Engine) DateColumns(sheet string) (*TemporalResult, []Diagnostic) {
	return e.dates(sheet, e.params)
}

// Overview describes the shape and column types of a sheet.
func (e *Engine) Overview(sheet string) (*OverviewResult, []Diagnostic) {
	return e.overview(sheet)
}
