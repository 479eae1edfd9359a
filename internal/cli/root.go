// Package cli provides the command-line interface for cnstock.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"cnstock/internal/analysis"
	"cnstock/internal/config"
	"cnstock/internal/logging"
	"cnstock/internal/pipeline"
	"cnstock/internal/sector"
	"cnstock/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-18"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger
	Store     store.DataStore
	Sectors   *sector.Service
	Builder   *pipeline.Builder
	Analyzer  *analysis.Analyzer
}

// NewApp wires the store, sector service, builder and analyzer from cfg.
// A store that fails to open leaves Store and Builder nil.
func NewApp(cfg *config.Config, configDir string, logger zerolog.Logger) *App {
	app := &App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
		Sectors:   sector.NewService(cfg.Sector.Path, cfg.Sector.ExcludeKeywords, logger),
		Analyzer:  analysis.NewAnalyzer(cfg.Indicators, cfg.Pipeline.Workers),
	}

	dataStore, err := store.NewSQLiteStore(cfg.Data.DBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.Data.DBPath).Msg("Failed to initialize store, data commands are unavailable")
		return app
	}
	app.Store = dataStore
	app.Builder = pipeline.NewBuilder(dataStore, app.Sectors, cfg.BuilderConfig(), logger)
	logger.Debug().Str("path", cfg.Data.DBPath).Msg("SQLite store initialized")
	return app
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func (a *App) requireStore() error {
	if a.Store == nil || a.Builder == nil {
		return fmt.Errorf("data store %s is not available", a.Config.Data.DBPath)
	}
	return nil
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cnstock",
		Short: "A-share market data fusion and analysis",
		Long: `cnstock fuses daily bars, financial reports, dividends and capital flow of
Shanghai and Shenzhen listed securities into adjusted, calendar-aligned series
and derives KDJ, MACD, RSI and Bollinger indicators from them.

Raw rows are imported into a local SQLite store with 'cnstock import'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/cnstock)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addServiceCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("cnstock v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			path := config.Path(app.ConfigDir)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": path})
			} else {
				output.Println(path)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Data")
	output.Printf("  DB Path:         %s\n", cfg.Data.DBPath)
	output.Printf("  History Days:    %d\n", cfg.Data.HistoryDays)
	output.Println()

	output.Bold("Sector")
	output.Printf("  Path:            %s\n", cfg.Sector.Path)
	output.Printf("  Exclude:         %v\n", cfg.Sector.ExcludeKeywords)
	output.Println()

	p := cfg.Indicators
	output.Bold("Indicators")
	output.Printf("  KDJ:             %d/%d/%d\n", p.KDJN, p.KDJK, p.KDJD)
	output.Printf("  MACD:            %d/%d/%d\n", p.MACDFast, p.MACDSlow, p.MACDSignal)
	output.Printf("  RSI:             %v\n", p.RSIPeriods)
	output.Printf("  BOLL:            %d, %.1fσ\n", p.BollPeriod, p.BollStdDev)
	output.Printf("  Report Window:   %d\n", p.ReportWindow)
	output.Println()

	output.Bold("Pipeline")
	output.Printf("  Workers:         %d\n", cfg.Pipeline.Workers)
	output.Println()

	output.Bold("Export")
	output.Printf("  Dir:             %s\n", cfg.Export.Dir)
	output.Printf("  Format:          %s\n", cfg.Export.Format)
	output.Println()

	output.Bold("Scheduler")
	output.Printf("  Refresh Cron:    %s\n", cfg.Scheduler.RefreshCron)
	output.Printf("  Watchlist:       %v\n", cfg.Scheduler.Watchlist)
	output.Println()

	output.Bold("Log")
	output.Printf("  Level:           %s\n", cfg.Log.Level)
	output.Printf("  File:            %v (%s)\n", cfg.Log.File, cfg.Log.FilePath)
}

// ConfigDirFromArgs returns the --config value in args, or "" when absent.
// The configuration is loaded before the command tree is built.
func ConfigDirFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			return arg[len("--config="):]
		}
	}
	return ""
}
