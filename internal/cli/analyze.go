package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cnstock/internal/analysis"
	"cnstock/internal/models"
	"cnstock/internal/pipeline"
)

// addAnalysisCommands adds series build and sector commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newBuildCmd(app))
	rootCmd.AddCommand(newBatchCmd(app))
	rootCmd.AddCommand(newSectorCmd(app))
	rootCmd.AddCommand(newSectorsCmd(app))
}

func newBuildCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <symbol>",
		Short: "Build the adjusted series of a symbol and analyze it",
		Long: `Fuse the stored bars, dividends, financial reports and capital flow of a
symbol into one adjusted series, then report trading statistics, capital
flow, valuation and technical indicators on its last bar.`,
		Example: `  cnstock build SH600519
  cnstock build SZ000001 --end 2024-06-28 --rows 5
  cnstock build SH000001 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			end, err := parseEnd(cmd)
			if err != nil {
				return err
			}
			symbol := strings.ToUpper(args[0])

			series, err := app.Builder.Build(ctx, symbol, end)
			if err != nil {
				output.Error("Failed to build %s: %v", symbol, err)
				return err
			}
			report, err := app.Analyzer.Analyze(ctx, series)
			if err != nil {
				output.Error("Failed to analyze %s: %v", symbol, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(report)
			}
			rows, _ := cmd.Flags().GetInt("rows")
			displayReport(output, report, rows, app.Config.Indicators.RSIPeriods)
			return nil
		},
	}

	cmd.Flags().String("end", "", "last date to include, YYYY-MM-DD (default: today)")
	cmd.Flags().Int("rows", 10, "indicator rows to show")

	return cmd
}

func newBatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <symbols...>",
		Short: "Build and summarize several symbols in parallel",
		Example: `  cnstock batch SH600519 SZ000858 SZ300750`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := make([]string, len(args))
			for i, a := range args {
				symbols[i] = strings.ToUpper(a)
			}
			return runBatch(cmd, app, symbols)
		},
	}
}

func newSectorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sector <name>",
		Short: "Build and summarize the members of a sector",
		Example: `  cnstock sector 白酒
  cnstock sector 半导体 --board star --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, _ := cmd.Flags().GetString("board")
			limit, _ := cmd.Flags().GetInt("limit")
			symbols, err := app.Sectors.Symbols(args[0], models.Board(board), limit)
			if err != nil {
				NewOutput(cmd).Error("%v", err)
				return err
			}
			if len(symbols) == 0 {
				NewOutput(cmd).Warning("No %s board members in sector %s", board, args[0])
				return nil
			}
			return runBatch(cmd, app, symbols)
		},
	}

	cmd.Flags().String("board", string(models.BoardAll), "board filter: all, main, star, gem")
	cmd.Flags().Int("limit", 20, "maximum members to build (0 for all)")

	return cmd
}

func newSectorsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors [symbol]",
		Short: "List sector names, or the sectors of a symbol",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			var names []string
			if len(args) == 1 {
				names = app.Sectors.Lookup(strings.ToUpper(args[0]))
			} else {
				names = app.Sectors.Sectors()
			}
			if output.IsJSON() {
				return output.JSON(names)
			}
			if len(names) == 0 {
				output.Dim("No sectors")
				return nil
			}
			for _, name := range names {
				output.Println(name)
			}
			return nil
		},
	}
}

func runBatch(cmd *cobra.Command, app *App, symbols []string) error {
	output := NewOutput(cmd)
	if err := app.requireStore(); err != nil {
		output.Error("%v", err)
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	result, err := app.Builder.BuildBatch(ctx, symbols, time.Time{})
	if err != nil {
		output.Error("Batch build failed: %v", err)
		return err
	}

	reports := make([]*analysis.Report, 0, len(result.Series))
	for _, s := range result.Series {
		report, err := app.Analyzer.Analyze(ctx, s)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", s.Symbol, err)
		}
		reports = append(reports, report)
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"run_id":  result.RunID,
			"reports": reports,
			"skipped": result.Skipped,
			"failed":  result.FailureMessages(),
		})
	}
	displayBatch(output, reports, result)
	return nil
}

func displayBatch(output *Output, reports []*analysis.Report, result *pipeline.BatchResult) {
	table := NewTable(output, "Symbol", "Date", "Price", "Change", "K", "D", "J", "DIF", "Main Flow")
	for _, r := range reports {
		row := []string{r.Symbol, r.Date.Format("2006-01-02"), fmt.Sprintf("%.2f", r.Price)}
		if r.Summary != nil {
			row = append(row, output.Change(r.Summary.Change))
		} else {
			row = append(row, "-")
		}
		if len(r.Indicators) > 0 {
			ind := r.Indicators[0]
			row = append(row, fmt.Sprintf("%.2f", ind.K), fmt.Sprintf("%.2f", ind.D), fmt.Sprintf("%.2f", ind.J), fmt.Sprintf("%.3f", ind.DIF))
		} else {
			row = append(row, "-", "-", "-", "-")
		}
		if len(r.Flows) > 0 && r.Flows[0].Tier == models.TierMain {
			row = append(row, output.Flow(r.Flows[0]))
		} else {
			row = append(row, "-")
		}
		table.AddRow(row...)
	}
	table.Render()

	if len(result.Skipped) > 0 {
		output.Println()
		output.Warning("Skipped (no data): %s", strings.Join(result.Skipped, ", "))
	}
	printFailures(output, result)
	output.Dim("Run %s", result.RunID)
}

func printFailures(output *Output, result *pipeline.BatchResult) {
	for _, symbol := range slices.Sorted(maps.Keys(result.Failed)) {
		output.Error("Failed %s: %v", symbol, result.Failed[symbol])
	}
}

func parseEnd(cmd *cobra.Command) (time.Time, error) {
	v, _ := cmd.Flags().GetString("end")
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, models.CST)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --end %q, want YYYY-MM-DD", v)
	}
	return t, nil
}
