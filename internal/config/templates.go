package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# cnstock configuration

[data]
# SQLite database holding imported raw rows
# db_path = "~/.config/cnstock/cnstock.db"
# Calendar days of history fetched per build
history_days = 730

[sector]
# Symbol to sector mapping (JSON or YAML)
# path = "~/.config/cnstock/stock_to_sector.json"
# Sector names containing any of these keywords are dropped
exclude_keywords = ["MSCI", "标普", "同花顺", "融资融券", "沪股通"]

[indicators]
kdj_n = 9
kdj_k = 3
kdj_d = 3
macd_fast = 12
macd_slow = 26
macd_signal = 9
rsi_periods = [6, 12, 24]
boll_period = 5
boll_stddev = 2.0
# Rows shown in indicator reports, newest first
report_window = 30

[pipeline]
# Concurrent symbol builds in a batch
workers = 4

[export]
# Output format: parquet or json
format = "parquet"
# dir = "~/.config/cnstock/export"

[scheduler]
# Cron expression with seconds field
refresh_cron = "0 30 15 * * 1-5"
watchlist = []

[log]
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
