package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
	"github.com/KaramelBytes/insightloom-cli/internal/chart"
	"github.com/KaramelBytes/insightloom-cli/internal/report"
	"github.com/KaramelBytes/insightloom-cli/internal/utils"
)

var (
	anaFlags      analysisFlags
	anaLoad       loadFlags
	anaOutputPath string
	anaChartsDir  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX/Parquet file and produce an insights report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt, err := anaLoad.options()
		if err != nil {
			return err
		}
		params, err := anaFlags.params(cmd)
		if err != nil {
			return err
		}
		format, err := anaFlags.reportFormat()
		if err != nil {
			return err
		}

		e := analysis.NewEngine(logger, params)
		if err := loadInto(e, path, opt); err != nil {
			return err
		}
		if err := anaFlags.run(cmd, e, params); err != nil {
			return err
		}
		out, err := report.Render(report.FromEngine(e, anaFlags.title), format)
		if err != nil {
			return err
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}

		if anaChartsDir == "" {
			return nil
		}
		n, err := writeCharts(e, anaChartsDir, anaFlags.sheet, anaFlags.allSheets, params.DateDetectRatio)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d charts to %s\n", n, anaChartsDir)
		return nil
	},
}

// writeCharts draws the analyzed sheet into dir. With all set every sheet
// gets its own subdirectory named after the sheet.
func writeCharts(e *analysis.Engine, dir, sheet string, all bool, ratio float64) (int, error) {
	wb := e.Workbook()
	opt := chart.Options{DateRatio: ratio}
	if !all {
		tbl := wb.Default()
		if sheet != "" {
			tbl, _ = wb.Sheet(sheet)
		}
		if tbl == nil {
			return 0, fmt.Errorf("no sheet to chart")
		}
		paths, err := chart.Render(tbl, dir, opt)
		if err != nil {
			return len(paths), fmt.Errorf("charts: %w", err)
		}
		return len(paths), nil
	}
	total := 0
	for i, name := range wb.Names() {
		tbl, _ := wb.Sheet(name)
		sub := utils.Slug(name)
		if sub == "" {
			sub = fmt.Sprintf("sheet-%d", i+1)
		}
		paths, err := chart.Render(tbl, filepath.Join(dir, sub), opt)
		total += len(paths)
		if err != nil {
			return total, fmt.Errorf("charts for %s: %w", name, err)
		}
	}
	return total, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	anaLoad.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaChartsDir, "charts-dir", "", "directory for PNG charts (histograms, bar, box, pie, correlation heatmap)")
}
