package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
)

var infoLoad loadFlags

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show sheets, shape and column classes of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := infoLoad.options()
		if err != nil {
			return err
		}
		e := analysis.NewEngine(logger, currentConfig().AnalysisParams())
		if err := loadInto(e, args[0], opt); err != nil {
			return err
		}
		wb := e.Workbook()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File: %s\n", wb.Name)
		fmt.Fprintf(out, "Sheets: %s\n", strings.Join(wb.Names(), ", "))
		for _, name := range wb.Names() {
			t, _ := wb.Sheet(name)
			profiles, ok := e.Profiles(name)
			if !ok {
				continue
			}
			fmt.Fprintf(out, "\nSheet: %s (%d rows x %d columns)\n", name, t.Rows(), t.NumCols())
			for _, pr := range profiles {
				fmt.Fprintf(out, "- %s: %s -> %s (missing %d)\n", pr.Name, pr.Declared, pr.Class, pr.Nulls)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoLoad.register(infoCmd)
}
