package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cnstock/internal/config"
	"cnstock/internal/export"
	"cnstock/internal/scheduler"
	"cnstock/internal/server"
)

// addServiceCommands adds the long-running serve and watch commands.
func addServiceCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the series, batch and sectors tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireStore(); err != nil {
				return err
			}
			srv := server.New("cnstock", Version, app.Builder, app.Analyzer, app.Sectors, app.Logger)
			app.Logger.Info().Msg("MCP server listening on stdio")
			return srv.ServeStdio()
		},
	}
}

func newWatchCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild and export the watchlist on the configured schedule",
		Long: `Run until interrupted, rebuilding every watchlist symbol and exporting it
with its indicators each time the refresh_cron expression fires.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.requireStore(); err != nil {
				output.Error("%v", err)
				return err
			}
			cfg := app.Config
			if len(cfg.Scheduler.Watchlist) == 0 {
				output.Warning("Watchlist is empty, set scheduler.watchlist in %s", config.Path(app.ConfigDir))
				return nil
			}

			exporter, err := export.NewExporter(cfg.Export.Dir, cfg.Export.Format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(ctx, app.Builder, app.Analyzer, exporter, app.Store, cfg.Scheduler.Watchlist, app.Logger)
			if err := sched.Register(cfg.Scheduler.RefreshCron); err != nil {
				output.Error("%v", err)
				return err
			}

			if now, _ := cmd.Flags().GetBool("now"); now {
				if _, err := sched.RunNow(ctx); err != nil {
					output.Error("Initial refresh failed: %v", err)
				}
			}

			sched.Start()
			output.Info("Watching %d symbols (%s), press Ctrl+C to stop", len(cfg.Scheduler.Watchlist), cfg.Scheduler.RefreshCron)
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}

	cmd.Flags().Bool("now", false, "refresh once immediately before waiting")

	return cmd
}
