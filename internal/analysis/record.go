package analysis

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the pass that produced a record.
type Kind string

const (
	KindOverview    Kind = "overview"
	KindSummary     Kind = "summary"
	KindCorrelation Kind = "correlations"
	KindOutliers    Kind = "outliers"
	KindCategorical Kind = "categorical"
	KindTemporal    Kind = "dates"
)

// Kinds lists every pass in report order.
func Kinds() []Kind {
	return []Kind{KindOverview, KindSummary, KindCorrelation, KindOutliers, KindCategorical, KindTemporal}
}

// ParseKind maps a user-facing pass name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overview", "info", "basic":
		return KindOverview, nil
	case "summary", "stats", "statistics":
		return KindSummary, nil
	case "correlations", "correlation", "corr":
		return KindCorrelation, nil
	case "outliers", "outlier":
		return KindOutliers, nil
	case "categorical", "categories":
		return KindCategorical, nil
	case "dates", "date", "temporal":
		return KindTemporal, nil
	}
	return "", fmt.Errorf("unknown pass %q", s)
}

// DefaultSheet is the key used for records computed without a sheet name.
const DefaultSheet = "default"

// DiagnosticCode classifies a non-fatal condition raised by a pass.
type DiagnosticCode string

const (
	DiagNoDataLoaded         DiagnosticCode = "NoDataLoaded"
	DiagSheetNotFound        DiagnosticCode = "SheetNotFound"
	DiagUnsupportedColumnSet DiagnosticCode = "UnsupportedColumnSet"
	DiagUnknownMethod        DiagnosticCode = "UnknownMethod"
	DiagDegenerateInput      DiagnosticCode = "DegenerateInput"
)

// Diagnostic is attached to a pass result instead of an error.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code" yaml:"code"`
	Column  string         `json:"column,omitempty" yaml:"column,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	if d.Column != "" {
		return fmt.Sprintf("%s (%s): %s", d.Code, d.Column, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Result is the payload of a record. Only the result types in this package
// implement it.
type Result interface {
	Kind() Kind
	isResult()
}

// Record is one pass output for one sheet.
type Record struct {
	Kind        Kind         `json:"kind" yaml:"kind"`
	Sheet       string       `json:"sheet" yaml:"sheet"`
	RunID       string       `json:"run_id" yaml:"run_id"`
	Result      Result       `json:"result" yaml:"result"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// ColumnType describes one column in the overview.
type ColumnType struct {
	Name     string `json:"name" yaml:"name"`
	Declared string `json:"declared" yaml:"declared"`
	Class    string `json:"class" yaml:"class"`
	Missing  int    `json:"missing" yaml:"missing"`
}

// OverviewResult is the basic shape of a sheet.
type OverviewResult struct {
	Rows        int          `json:"rows" yaml:"rows"`
	Columns     int          `json:"columns" yaml:"columns"`
	ColumnNames []string     `json:"column_names" yaml:"column_names"`
	Types       []ColumnType `json:"types" yaml:"types"`
	Sheets      []string     `json:"sheets" yaml:"sheets"`
}

// ColumnStats holds the descriptive statistics of one numeric column.
// Std is nil when fewer than two values exist.
type ColumnStats struct {
	Column string   `json:"column" yaml:"column"`
	Count  int      `json:"count" yaml:"count"`
	Mean   float64  `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    float64  `json:"min" yaml:"min"`
	Q1     float64  `json:"q1" yaml:"q1"`
	Median float64  `json:"median" yaml:"median"`
	Q3     float64  `json:"q3" yaml:"q3"`
	Max    float64  `json:"max" yaml:"max"`
}

type SummaryResult struct {
	Columns []ColumnStats `json:"columns" yaml:"columns"`
}

// ColumnNames returns the analyzed numeric columns in table order.
func (r *SummaryResult) ColumnNames() []string {
	out := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		out[i] = c.Column
	}
	return out
}

// CorrelationPair is one reported column pair, A before B in table order.
type CorrelationPair struct {
	A            string  `json:"a" yaml:"a"`
	B            string  `json:"b" yaml:"b"`
	Coefficient  float64 `json:"coefficient" yaml:"coefficient"`
	Observations int     `json:"observations" yaml:"observations"`
}

// Key renders the pair as "A - B".
func (p CorrelationPair) Key() string { return p.A + " - " + p.B }

type CorrelationResult struct {
	Threshold float64           `json:"threshold" yaml:"threshold"`
	Pairs     []CorrelationPair `json:"pairs" yaml:"pairs"`
}

// Lookup returns the coefficient reported for a and b in either order.
func (r *CorrelationResult) Lookup(a, b string) (float64, bool) {
	for _, p := range r.Pairs {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return p.Coefficient, true
		}
	}
	return 0, false
}

// ColumnOutliers describes the flagged values of one column.
type ColumnOutliers struct {
	Column     string    `json:"column" yaml:"column"`
	Count      int       `json:"count" yaml:"count"`
	Percentage float64   `json:"percentage" yaml:"percentage"`
	Lower      float64   `json:"lower_bound" yaml:"lower_bound"`
	Upper      float64   `json:"upper_bound" yaml:"upper_bound"`
	Values     []float64 `json:"values" yaml:"values"`
}

type OutlierResult struct {
	Method    OutlierMethod    `json:"method" yaml:"method"`
	Threshold float64          `json:"threshold" yaml:"threshold"`
	Columns   []ColumnOutliers `json:"columns" yaml:"columns"`
}

// Column returns the outlier entry of a column, if it has any outliers.
func (r *OutlierResult) Column(name string) (ColumnOutliers, bool) {
	for _, c := range r.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnOutliers{}, false
}

// CategoryCount is one value of a frequency table.
type CategoryCount struct {
	Value   string  `json:"value" yaml:"value"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// CategoryProfile summarizes one categorical column. Other aggregates the
// values outside the top list.
type CategoryProfile struct {
	Column         string          `json:"column" yaml:"column"`
	Unique         int             `json:"unique_values" yaml:"unique_values"`
	Missing        int             `json:"missing_values" yaml:"missing_values"`
	MissingPercent float64         `json:"missing_percentage" yaml:"missing_percentage"`
	Top            []CategoryCount `json:"top_categories" yaml:"top_categories"`
	Other          CategoryCount   `json:"other" yaml:"other"`
}

type CategoricalResult struct {
	TopN    int               `json:"top_n" yaml:"top_n"`
	Columns []CategoryProfile `json:"columns" yaml:"columns"`
}

// Column returns the profile of a column.
func (r *CategoricalResult) Column(name string) (CategoryProfile, bool) {
	for _, c := range r.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return CategoryProfile{}, false
}

// Frequency is one bucket of a date distribution.
type Frequency struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// DateProfile summarizes one temporal column. Min, Max and RangeDays are nil
// when the column holds no dates; the distributions are only filled for
// columns with enough dates.
type DateProfile struct {
	Column         string      `json:"column" yaml:"column"`
	Min            *time.Time  `json:"min_date" yaml:"min_date"`
	Max            *time.Time  `json:"max_date" yaml:"max_date"`
	RangeDays      *int64      `json:"range_days" yaml:"range_days"`
	Missing        int         `json:"missing_values" yaml:"missing_values"`
	MissingPercent float64     `json:"missing_percentage" yaml:"missing_percentage"`
	Weekdays       []Frequency `json:"day_of_week_distribution,omitempty" yaml:"day_of_week_distribution,omitempty"`
	Months         []Frequency `json:"month_distribution,omitempty" yaml:"month_distribution,omitempty"`
	Years          []Frequency `json:"year_distribution,omitempty" yaml:"year_distribution,omitempty"`
}

type TemporalResult struct {
	Columns []DateProfile `json:"columns" yaml:"columns"`
}

// Column returns the profile of a column.
func (r *TemporalResult) Column(name string) (DateProfile, bool) {
	for _, c := range r.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return DateProfile{}, false
}

func (*OverviewResult) Kind() Kind    { return KindOverview }
func (*SummaryResult) Kind() Kind     { return KindSummary }
func (*CorrelationResult) Kind() Kind { return KindCorrelation }
func (*OutlierResult) Kind() Kind     { return KindOutliers }
func (*CategoricalResult) Kind() Kind { return KindCategorical }
func (*TemporalResult) Kind() Kind    { return KindTemporal }

func (*OverviewResult) isResult()    {}
func (*SummaryResult) isResult()     {}
func (*CorrelationResult) isResult() {}
func (*OutlierResult) isResult()     {}
func (*CategoricalResult) isResult() {}
func (*TemporalResult) isResult()    {}
