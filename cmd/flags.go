package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
	"github.com/KaramelBytes/insightloom-cli/internal/report"
	"github.com/KaramelBytes/insightloom-cli/internal/source"
)

// analysisFlags are shared by every command that runs the passes.
type analysisFlags struct {
	sheet      string
	allSheets  bool
	passes     []string
	corrThr    float64
	method     string
	outlierThr float64
	sampleCap  int
	topN       int
	dateRatio  float64
	workers    int
	format     string
	title      string
}

func (a *analysisFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&a.sheet, "sheet", "", "sheet to analyze (default: first sheet)")
	f.BoolVar(&a.allSheets, "all-sheets", false, "analyze every sheet of the workbook")
	f.StringSliceVar(&a.passes, "passes", nil, "passes to run: overview,summary,correlations,outliers,categorical,dates (default: all)")
	f.Float64Var(&a.corrThr, "corr-threshold", 0, "minimum |r| for reported correlations (overrides config)")
	f.StringVar(&a.method, "outlier-method", "", "outlier method: iqr|zscore (overrides config)")
	f.Float64Var(&a.outlierThr, "outlier-threshold", 0, "IQR multiplier or z cutoff; 0 uses the method default")
	f.IntVar(&a.sampleCap, "outlier-samples", 0, "outlier values listed per column (overrides config)")
	f.IntVar(&a.topN, "top-n", 0, "top categories per column (overrides config)")
	f.Float64Var(&a.dateRatio, "date-ratio", 0, "share of text values that must parse as dates (overrides config)")
	f.IntVar(&a.workers, "workers", 0, "sheets analyzed in parallel (overrides config)")
	f.StringVar(&a.format, "format", "", "report format: markdown|json|yaml (overrides config)")
	f.StringVar(&a.title, "title", "", "report title")
}

// params merges config values with the flags the user set explicitly.
func (a *analysisFlags) params(cmd *cobra.Command) (analysis.Params, error) {
	p := currentConfig().AnalysisParams()
	f := cmd.Flags()
	if f.Changed("corr-threshold") {
		if a.corrThr < 0 || a.corrThr > 1 {
			return p, fmt.Errorf("invalid --corr-threshold: %v (use 0..1)", a.corrThr)
		}
		p.CorrelationThreshold = a.corrThr
	}
	if f.Changed("outlier-method") {
		p.OutlierMethod = a.method
	}
	if f.Changed("outlier-threshold") {
		if a.outlierThr < 0 {
			return p, fmt.Errorf("invalid --outlier-threshold: %v", a.outlierThr)
		}
		p.OutlierThreshold = a.outlierThr
	}
	if f.Changed("outlier-samples") && a.sampleCap > 0 {
		p.OutlierSampleLimit = a.sampleCap
	}
	if f.Changed("top-n") && a.topN > 0 {
		p.TopN = a.topN
	}
	if f.Changed("date-ratio") {
		if a.dateRatio <= 0 || a.dateRatio > 1 {
			return p, fmt.Errorf("invalid --date-ratio: %v (use 0..1)", a.dateRatio)
		}
		p.DateDetectRatio = a.dateRatio
	}
	if f.Changed("workers") && a.workers > 0 {
		p.Workers = a.workers
	}
	for _, s := range a.passes {
		k, err := analysis.ParseKind(s)
		if err != nil {
			return p, err
		}
		p.Passes = append(p.Passes, k)
	}
	return p, nil
}

func (a *analysisFlags) reportFormat() (report.Format, error) {
	if a.format != "" {
		return report.ParseFormat(a.format)
	}
	return report.ParseFormat(currentConfig().ReportFormat)
}

// run executes the selected passes on e according to the sheet flags.
func (a *analysisFlags) run(cmd *cobra.Command, e *analysis.Engine, p analysis.Params) error {
	if a.allSheets {
		return e.AnalyzeWorkbook(cmd.Context(), p)
	}
	if a.sheet != "" {
		wb := e.Workbook()
		if _, ok := wb.Sheet(a.sheet); !ok {
			return fmt.Errorf("sheet %q not found (available: %s)", a.sheet, strings.Join(wb.Names(), ", "))
		}
	}
	return e.RunAll(cmd.Context(), a.sheet, p)
}

// loadFlags control how files are parsed.
type loadFlags struct {
	delimiter string
	decimal   string
	thousands string
	maxRows   int
}

func (l *loadFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&l.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	f.StringVar(&l.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&l.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&l.maxRows, "max-rows", 0, "maximum rows to load per sheet (0 = config value, unlimited by default)")
}

func (l *loadFlags) options() (source.Options, error) {
	opt := source.Options{MaxRows: currentConfig().MaxRows}
	if l.maxRows > 0 {
		opt.MaxRows = l.maxRows
	}
	switch l.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", l.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(l.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", l.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(l.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", l.thousands)
	}
	return opt, nil
}

// loadInto reads path through the source registry and hands the workbook to
// e. On failure e keeps whatever it had loaded before.
func loadInto(e *analysis.Engine, path string, opt source.Options) error {
	wb, err := source.Load(path, opt)
	if err != nil {
		if logger != nil {
			logger.WithField("path", path).Errorf("Error loading file: %v", err)
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.Load(wb)
	return nil
}
