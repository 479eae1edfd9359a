package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnstock/internal/analysis"
	"cnstock/internal/analysis/indicators"
	"cnstock/internal/datafeed"
	"cnstock/internal/export"
	"cnstock/internal/models"
	"cnstock/internal/pipeline"
	"cnstock/internal/sector"
)

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) SetLastSync(key string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func klineBatch(symbol string, n int) datafeed.RawBatch {
	b := datafeed.RawBatch{}
	dates := make([]float64, n)
	closes := make([]float64, n)
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, models.CST)
	for i := range dates {
		dates[i] = float64(d0.AddDate(0, 0, i).Unix())
		closes[i] = 10 + float64(i%7)
	}
	key := func(field string) models.Key {
		return models.Key{Symbol: symbol, Kind: models.KindKline, Field: field}
	}
	b.PutFloats(key(models.FieldDate), dates)
	for _, f := range []string{models.FieldOpen, models.FieldHigh, models.FieldLow, models.FieldClose, models.FieldVolume, models.FieldAmount} {
		b.PutFloats(key(f), closes)
	}
	return b
}

func newScheduler(t *testing.T, rec SyncRecorder, watchlist ...string) (*Scheduler, string) {
	t.Helper()
	batch := klineBatch("SH600519", 40)
	for k, v := range klineBatch("SZ000001", 10) {
		batch[k] = v
	}
	for k, v := range klineBatch("SZ000002", 3) {
		batch[k] = v
	}
	batch["SZ000002.KLINE.DATE"] = []any{1.7e9, 1.7e9, 1.7e9}
	builder := pipeline.NewBuilder(datafeed.Static{Batch: batch}, sector.NewStatic(nil, nil), pipeline.DefaultConfig(), zerolog.Nop())
	dir := t.TempDir()
	exporter, err := export.NewExporter(dir, "json")
	require.NoError(t, err)
	s := New(context.Background(), builder, analysis.NewAnalyzer(indicators.DefaultParams(), 2), exporter, rec, watchlist, zerolog.Nop())
	return s, dir
}

func TestRunNow(t *testing.T) {
	rec := &recorder{}
	s, dir := newScheduler(t, rec, "SH600519", "SZ000001", "SH601318")

	result, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.ElementsMatch(t, []string{"SH600519", "SZ000001"}, result.Exported)
	assert.Equal(t, []string{"SH601318"}, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.ElementsMatch(t, []string{"refresh:SH600519", "refresh:SZ000001"}, rec.keys)

	_, err = os.Stat(filepath.Join(dir, "SH600519.json"))
	assert.NoError(t, err)
}

func TestRunNow_BadSymbolIsRecorded(t *testing.T) {
	rec := &recorder{}
	s, _ := newScheduler(t, rec, "SZ000002", "SH600519")

	result, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"SH600519"}, result.Exported)
	require.Contains(t, result.Failed, "SZ000002")
	assert.Equal(t, []string{"refresh:SH600519"}, rec.keys)
}

func TestRunNow_NilRecorder(t *testing.T) {
	s, _ := newScheduler(t, nil, "SH600519")
	result, err := s.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"SH600519"}, result.Exported)
}

func TestRegister(t *testing.T) {
	s, _ := newScheduler(t, nil, "SH600519")
	assert.NoError(t, s.Register("0 30 15 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))

	s.Start()
	s.Stop()
}

func TestTick_SkipsWhileRunning(t *testing.T) {
	rec := &recorder{}
	s, _ := newScheduler(t, rec, "SH600519")

	s.running = true
	s.tick()
	assert.Empty(t, rec.keys)

	s.running = false
	s.tick()
	assert.Equal(t, []string{"refresh:SH600519"}, rec.keys)
	assert.False(t, s.running)
}
