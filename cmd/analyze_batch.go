package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
	"github.com/KaramelBytes/insightloom-cli/internal/report"
	"github.com/KaramelBytes/insightloom-cli/internal/source"
	"github.com/KaramelBytes/insightloom-cli/internal/utils"
)

var (
	abFlags     analysisFlags
	abLoad      loadFlags
	abOutputDir string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple files with progress, writing one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		opt, err := abLoad.options()
		if err != nil {
			return err
		}
		params, err := abFlags.params(cmd)
		if err != nil {
			return err
		}
		format, err := abFlags.reportFormat()
		if err != nil {
			return err
		}
		outDir := abOutputDir
		if !cmd.Flags().Changed("output-dir") {
			outDir = currentConfig().OutputDir
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			e := analysis.NewEngine(logger, params)
			if err := loadInto(e, path, opt); err != nil {
				return err
			}
			if err := abFlags.run(cmd, e, params); err != nil {
				return err
			}
			body, err := report.Render(report.FromEngine(e, abFlags.title), format)
			if err != nil {
				return err
			}

			if outDir == "" {
				if !abQuiet {
					fmt.Fprintln(out, string(body))
				}
				continue
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			base := utils.ReportBase(path, abFlags.sheet)
			outFile := utils.UniquePath(outDir, base, format.Ext())
			if filepath.Base(outFile) != base+format.Ext() && !abQuiet {
				fmt.Fprintf(out, "⚠ Detected existing report, writing to %s to avoid overwrite.\n", filepath.Base(outFile))
			}
			if err := utils.SafeWriteFile(outFile, body); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", outFile)
			}
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops
// duplicates and unsupported formats, and sorts the result.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok || !source.Supported(m) {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abFlags.register(analyzeBatchCmd)
	abLoad.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "directory for reports (default: config output_dir, or stdout)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
