package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom-cli/internal/analysis"
	"github.com/KaramelBytes/insightloom-cli/internal/report"
	"github.com/KaramelBytes/insightloom-cli/internal/source"
	"github.com/KaramelBytes/insightloom-cli/internal/utils"
)

var (
	dbFlags      analysisFlags
	dbDriver     string
	dbDSN        string
	dbQuery      string
	dbName       string
	dbMaxRows    int
	dbOutputPath string
)

var analyzeDBCmd = &cobra.Command{
	Use:   "analyze-db",
	Short: "Analyze the result of a SQL query (MySQL/MariaDB or PostgreSQL)",
	Example: `  insightloom analyze-db --driver postgres --dsn "postgres://u:p@localhost/shop" --query "SELECT * FROM orders"
  INSIGHTLOOM_DSN="u:p@tcp(localhost:3306)/shop?parseTime=true" insightloom analyze-db --driver mysql --query "SELECT * FROM orders"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn := dbDSN
		if dsn == "" {
			dsn = os.Getenv("INSIGHTLOOM_DSN")
		}
		if dsn == "" {
			return fmt.Errorf("--dsn is required (or set INSIGHTLOOM_DSN)")
		}
		if dbQuery == "" {
			return fmt.Errorf("--query is required")
		}
		params, err := dbFlags.params(cmd)
		if err != nil {
			return err
		}
		format, err := dbFlags.reportFormat()
		if err != nil {
			return err
		}
		opt := source.Options{MaxRows: currentConfig().MaxRows}
		if dbMaxRows > 0 {
			opt.MaxRows = dbMaxRows
		}

		wb, err := source.OpenQuery(cmd.Context(), dbDriver, dsn, dbQuery, dbName, opt)
		if err != nil {
			return err
		}
		e := analysis.NewEngine(logger, params)
		e.Load(wb)
		if err := dbFlags.run(cmd, e, params); err != nil {
			return err
		}
		out, err := report.Render(report.FromEngine(e, dbFlags.title), format)
		if err != nil {
			return err
		}
		if dbOutputPath != "" {
			if err := utils.SafeWriteFile(dbOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", dbOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeDBCmd)
	dbFlags.register(analyzeDBCmd)
	f := analyzeDBCmd.Flags()
	f.StringVar(&dbDriver, "driver", "postgres", "database driver: mysql|mariadb|postgres")
	f.StringVar(&dbDSN, "dsn", "", "data source name (default: $INSIGHTLOOM_DSN)")
	f.StringVar(&dbQuery, "query", "", "SQL query whose result is analyzed")
	f.StringVar(&dbName, "name", "query", "sheet name for the query result")
	f.IntVar(&dbMaxRows, "max-rows", 0, "maximum rows to fetch (0 = config value)")
	f.StringVarP(&dbOutputPath, "output", "o", "", "optional path to write the report")
}
