// Package config provides configuration management for cnstock.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"cnstock/internal/analysis/indicators"
	"cnstock/internal/errors"
	"cnstock/internal/logging"
	"cnstock/internal/pipeline"
	"cnstock/internal/sector"
)

// Config holds all application configuration.
type Config struct {
	Data       DataConfig        `mapstructure:"data"`
	Sector     SectorConfig      `mapstructure:"sector"`
	Indicators indicators.Params `mapstructure:"indicators"`
	Pipeline   PipelineConfig    `mapstructure:"pipeline"`
	Export     ExportConfig      `mapstructure:"export"`
	Scheduler  SchedulerConfig   `mapstructure:"scheduler"`
	Log        logging.LogConfig `mapstructure:"log"`
}

// DataConfig holds the local store settings.
type DataConfig struct {
	DBPath      string `mapstructure:"db_path"`
	HistoryDays int    `mapstructure:"history_days"`
}

// SectorConfig holds the sector classification settings.
type SectorConfig struct {
	Path            string   `mapstructure:"path"`
	ExcludeKeywords []string `mapstructure:"exclude_keywords"`
}

// PipelineConfig holds the batch build settings.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// ExportConfig holds the export settings.
type ExportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // parquet, json
}

// SchedulerConfig holds the watchlist refresh settings.
type SchedulerConfig struct {
	RefreshCron string   `mapstructure:"refresh_cron"`
	Watchlist   []string `mapstructure:"watchlist"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/cnstock"
	}
	return filepath.Join(home, ".config", "cnstock")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

// Default returns the configuration used when no file sets a value.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	logCfg := logging.DefaultLogConfig()
	logCfg.FilePath = filepath.Join(configDir, "logs", "cnstock.log")
	p := pipeline.DefaultConfig()
	return &Config{
		Data: DataConfig{
			DBPath:      filepath.Join(configDir, "cnstock.db"),
			HistoryDays: p.HistoryDays,
		},
		Sector: SectorConfig{
			Path:            filepath.Join(configDir, "stock_to_sector.json"),
			ExcludeKeywords: sector.DefaultExcludeKeywords,
		},
		Indicators: indicators.DefaultParams(),
		Pipeline:   PipelineConfig{Workers: p.Workers},
		Export: ExportConfig{
			Dir:    filepath.Join(configDir, "export"),
			Format: "parquet",
		},
		Scheduler: SchedulerConfig{RefreshCron: "0 30 15 * * 1-5"},
		Log:       logCfg,
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing file
// is replaced by the template and the defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default(configDir)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data.db_path", cfg.Data.DBPath)
	v.SetDefault("data.history_days", cfg.Data.HistoryDays)
	v.SetDefault("sector.path", cfg.Sector.Path)
	v.SetDefault("sector.exclude_keywords", cfg.Sector.ExcludeKeywords)
	v.SetDefault("indicators.kdj_n", cfg.Indicators.KDJN)
	v.SetDefault("indicators.kdj_k", cfg.Indicators.KDJK)
	v.SetDefault("indicators.kdj_d", cfg.Indicators.KDJD)
	v.SetDefault("indicators.macd_fast", cfg.Indicators.MACDFast)
	v.SetDefault("indicators.macd_slow", cfg.Indicators.MACDSlow)
	v.SetDefault("indicators.macd_signal", cfg.Indicators.MACDSignal)
	v.SetDefault("indicators.rsi_periods", cfg.Indicators.RSIPeriods)
	v.SetDefault("indicators.boll_period", cfg.Indicators.BollPeriod)
	v.SetDefault("indicators.boll_stddev", cfg.Indicators.BollStdDev)
	v.SetDefault("indicators.report_window", cfg.Indicators.ReportWindow)
	v.SetDefault("pipeline.workers", cfg.Pipeline.Workers)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("export.format", cfg.Export.Format)
	v.SetDefault("scheduler.refresh_cron", cfg.Scheduler.RefreshCron)
	v.SetDefault("scheduler.watchlist", cfg.Scheduler.Watchlist)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.console", cfg.Log.Console)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.file_path", cfg.Log.FilePath)
	v.SetDefault("log.max_size", cfg.Log.MaxSize)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
	v.SetDefault("log.max_age", cfg.Log.MaxAge)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CNSTOCK_DB_PATH"); v != "" {
		cfg.Data.DBPath = v
	}
	if v := os.Getenv("STOCK_TO_SECTOR_DATA"); v != "" {
		cfg.Sector.Path = v
	}
	if v := os.Getenv("CNSTOCK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field string, value interface{}, msg string) {
		if !ok {
			errs = append(errs, errors.NewValidationError(field, value, msg))
		}
	}

	check(c.Data.DBPath != "", "data.db_path", c.Data.DBPath, "must not be empty")
	check(c.Data.HistoryDays > 0, "data.history_days", c.Data.HistoryDays, "must be positive")

	p := c.Indicators
	check(p.KDJN > 0 && p.KDJK > 0 && p.KDJD > 0, "indicators.kdj", []int{p.KDJN, p.KDJK, p.KDJD}, "periods must be positive")
	check(p.MACDFast > 0 && p.MACDFast < p.MACDSlow && p.MACDSignal > 0, "indicators.macd",
		[]int{p.MACDFast, p.MACDSlow, p.MACDSignal}, "need 0 < fast < slow and signal > 0")
	check(len(p.RSIPeriods) > 0, "indicators.rsi_periods", p.RSIPeriods, "must not be empty")
	for _, n := range p.RSIPeriods {
		check(n > 0, "indicators.rsi_periods", n, "must be positive")
	}
	check(p.BollPeriod > 1, "indicators.boll_period", p.BollPeriod, "must be greater than 1")
	check(p.BollStdDev > 0, "indicators.boll_stddev", p.BollStdDev, "must be positive")
	check(p.ReportWindow > 0, "indicators.report_window", p.ReportWindow, "must be positive")

	check(c.Pipeline.Workers > 0, "pipeline.workers", c.Pipeline.Workers, "must be positive")
	check(c.Export.Format == "parquet" || c.Export.Format == "json", "export.format", c.Export.Format, "must be parquet or json")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errors.ErrConfigInvalid, errors.Join(errs...))
}

// BuilderConfig returns the pipeline builder settings.
func (c *Config) BuilderConfig() pipeline.Config {
	return pipeline.Config{Workers: c.Pipeline.Workers, HistoryDays: c.Data.HistoryDays}
}
