package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/analysis"
	"cnstock/internal/analysis/flow"
	"cnstock/internal/config"
	"cnstock/internal/models"
)

// dump returns a composite-key batch with 40 recent bars of SH600519, one
// financial report, one dividend and a capital-flow snapshot.
func dump(t *testing.T) []byte {
	t.Helper()
	now := time.Now().In(models.CST)
	d0 := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, models.CST).AddDate(0, 0, -50)

	batch := map[string][]any{}
	for i := 0; i < 40; i++ {
		c := 100.0 + float64(i%6)
		batch["SH600519.KLINE.DATE"] = append(batch["SH600519.KLINE.DATE"], d0.AddDate(0, 0, i).Unix())
		batch["SH600519.KLINE.OPEN"] = append(batch["SH600519.KLINE.OPEN"], c)
		batch["SH600519.KLINE.HIGH"] = append(batch["SH600519.KLINE.HIGH"], c+2)
		batch["SH600519.KLINE.LOW"] = append(batch["SH600519.KLINE.LOW"], c-2)
		batch["SH600519.KLINE.CLOSE"] = append(batch["SH600519.KLINE.CLOSE"], c)
		batch["SH600519.KLINE.VOLUME"] = append(batch["SH600519.KLINE.VOLUME"], 1e6)
		batch["SH600519.KLINE.AMOUNT"] = append(batch["SH600519.KLINE.AMOUNT"], 1e8)
	}
	batch["SH600519.DIVID.DATE"] = []any{d0.AddDate(0, 0, 20).Unix()}
	batch["SH600519.DIVID.SD"] = []any{10.0}
	batch["SH600519.FINANCE.DATE"] = []any{d0.AddDate(0, 0, -30).Unix()}
	batch["SH600519.FINANCE.TCAP"] = []any{"12.5亿"}
	batch["SH600519.FINANCE.NAVPS"] = []any{50.0}
	batch["SH600519.FINANCE.NP"] = []any{5000.0}
	batch["SH600519.FINANCE.ROE"] = []any{12.0}
	batch["SH600519.FUNDFLOW.A_A"] = []any{-1.5e8}
	batch["SH600519.FUNDFLOW.A_R"] = []any{-3.2}
	batch["SZ000001.FINANCE.TCAP"] = []any{1.0}

	data, err := json.Marshal(batch)
	require.NoError(t, err)
	return data
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)
	sectors := filepath.Join(dir, "sectors.json")
	require.NoError(t, os.WriteFile(sectors, []byte(`{"SH600519": ["白酒", "沪股通"], "SZ000001": ["银行"]}`), 0644))
	cfg.Sector.Path = sectors

	app := NewApp(cfg, dir, zerolog.Nop())
	require.NotNil(t, app.Store)
	t.Cleanup(func() { app.Close() })
	return app
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func importDump(t *testing.T, app *App) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dump.json")
	require.NoError(t, os.WriteFile(path, dump(t), 0644))
	out, err := run(t, app, "import", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 symbols")
	assert.Contains(t, out, "SZ000001")
}

func TestImportAndBuild(t *testing.T) {
	app := newTestApp(t)
	importDump(t, app)

	out, err := run(t, app, "build", "sh600519", "--json")
	require.NoError(t, err, out)

	var report analysis.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "SH600519", report.Symbol)
	assert.True(t, report.IsStock)
	assert.Equal(t, []string{"白酒"}, report.Sectors)
	assert.Len(t, report.Indicators, 30)

	require.NotNil(t, report.Valuation)
	require.NotNil(t, report.Valuation.MarketCap)
	assert.InDelta(t, 12.5, *report.Valuation.MarketCap, 1e-9)
	require.NotNil(t, report.Valuation.PB)

	require.Len(t, report.Flows, 1)
	assert.Equal(t, flow.Outflow, report.Flows[0].Direction)
	assert.InDelta(t, 1.5, report.Flows[0].Magnitude, 1e-9)
}

func TestBuild_Text(t *testing.T) {
	app := newTestApp(t)
	importDump(t, app)

	out, err := run(t, app, "build", "SH600519", "--rows", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "SH600519  Stock")
	assert.Contains(t, out, "Sectors: 白酒")
	assert.Contains(t, out, "流出 1.50亿")
	assert.Contains(t, out, "Market Cap: 12.50亿")
	assert.Contains(t, out, "RSI6")
}

func TestBatch_SkipsMissing(t *testing.T) {
	app := newTestApp(t)
	importDump(t, app)

	out, err := run(t, app, "batch", "SH600519", "SZ000002")
	require.NoError(t, err, out)
	assert.Contains(t, out, "SH600519")
	assert.Contains(t, out, "Skipped (no data): SZ000002")
}

func TestExport(t *testing.T) {
	app := newTestApp(t)
	importDump(t, app)
	dir := t.TempDir()

	out, err := run(t, app, "export", "SH600519", "--format", "json", "--out", dir)
	require.NoError(t, err, out)

	_, err = os.Stat(filepath.Join(dir, "SH600519.json"))
	assert.NoError(t, err)
}

func TestSectors(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "sectors", "--json")
	require.NoError(t, err)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"白酒", "银行"}, names)

	out, err = run(t, app, "sectors", "sh600519")
	require.NoError(t, err)
	assert.Equal(t, "白酒\n", out)
}

func TestConfigCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := run(t, app, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app.ConfigDir, "config.toml")+"\n", out)

	out, err = run(t, app, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	out, err = run(t, app, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestConfigDirFromArgs(t *testing.T) {
	assert.Equal(t, "/etc/cn", ConfigDirFromArgs([]string{"build", "--config", "/etc/cn", "SH600519"}))
	assert.Equal(t, "/etc/cn", ConfigDirFromArgs([]string{"--config=/etc/cn"}))
	assert.Equal(t, "", ConfigDirFromArgs([]string{"build", "SH600519"}))
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 4, displayWidth("白酒"))
	assert.Equal(t, 5, displayWidth("\x1b[31mabcde\x1b[0m"))
}
