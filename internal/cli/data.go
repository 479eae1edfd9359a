package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cnstock/internal/datafeed"
	"cnstock/internal/export"
)

// addDataCommands adds import and export commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <batch.json>",
		Short: "Import a composite-key batch dump into the local store",
		Long: `Read a JSON object mapping "<symbol>.<kind>.<field>" to value arrays, as
returned by a batched market-data query, and persist its rows.

Symbols without KLINE rows are skipped.`,
		Example: `  cnstock import dump.json
  cat dump.json | cnstock import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					output.Error("Failed to open %s: %v", args[0], err)
					return err
				}
				defer f.Close()
				in = f
			}

			batch, err := datafeed.DecodeBatch(in)
			if err != nil {
				output.Error("%v", err)
				return err
			}
			grouped, err := datafeed.Group(batch)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			started := time.Now()
			stats, err := app.Store.Import(ctx, grouped)
			if err != nil {
				output.Error("Import failed: %v", err)
				return err
			}
			app.Logger.Info().
				Int("symbols", stats.Symbols).
				Int("klines", stats.Klines).
				Dur("duration", time.Since(started)).
				Msg("Batch imported")

			if output.IsJSON() {
				return output.JSON(stats)
			}
			output.Success("✓ Imported %d symbols", stats.Symbols)
			output.Printf("  Bars:       %d\n", stats.Klines)
			output.Printf("  Finance:    %d\n", stats.Finance)
			output.Printf("  Dividends:  %d\n", stats.Dividends)
			output.Printf("  Fund flow:  %d\n", stats.FundFlow)
			if len(stats.Skipped) > 0 {
				output.Warning("Skipped (no KLINE rows): %s", strings.Join(stats.Skipped, ", "))
			}
			return nil
		},
	}
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <symbols...>",
		Short: "Export adjusted series with indicators to Parquet or JSON",
		Example: `  cnstock export SH600519 SZ000001
  cnstock export SH600519 --format json --out ./data`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				output.Error("%v", err)
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = app.Config.Export.Format
			}
			dir, _ := cmd.Flags().GetString("out")
			if dir == "" {
				dir = app.Config.Export.Dir
			}
			exporter, err := export.NewExporter(dir, format)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			symbols := make([]string, len(args))
			for i, a := range args {
				symbols[i] = strings.ToUpper(a)
			}
			result, err := app.Builder.BuildBatch(ctx, symbols, time.Time{})
			if err != nil {
				output.Error("Batch build failed: %v", err)
				return err
			}

			paths := make(map[string]string, len(result.Series))
			for _, s := range result.Series {
				set, err := app.Analyzer.Indicators(ctx, s)
				if err != nil {
					return err
				}
				path, err := exporter.Export(s, set)
				if err != nil {
					output.Error("%v", err)
					return err
				}
				paths[s.Symbol] = path
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"files":   paths,
					"skipped": result.Skipped,
					"failed":  result.FailureMessages(),
				})
			}
			for _, s := range result.Series {
				output.Success("✓ %s → %s", s.Symbol, paths[s.Symbol])
			}
			if len(result.Skipped) > 0 {
				output.Warning("Skipped (no data): %s", strings.Join(result.Skipped, ", "))
			}
			printFailures(output, result)
			return nil
		},
	}

	cmd.Flags().String("format", "", "output format: parquet or json (default: from config)")
	cmd.Flags().String("out", "", "output directory (default: from config)")

	return cmd
}
