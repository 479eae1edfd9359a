// Package export writes fused series with their indicators to flat files.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"cnstock/internal/analysis/indicators"
	"cnstock/internal/models"
)

// Row is one bar of an exported series. Financial and capital-flow columns
// are nil when the stream is absent; RSI columns follow the configured RSI
// periods in order.
type Row struct {
	Symbol     string   `json:"symbol" parquet:"symbol"`
	Date       int64    `json:"date" parquet:"date"`
	Open       float64  `json:"open" parquet:"open"`
	High       float64  `json:"high" parquet:"high"`
	Low        float64  `json:"low" parquet:"low"`
	Close      float64  `json:"close" parquet:"close"`
	Volume     float64  `json:"volume" parquet:"volume"`
	Amount     float64  `json:"amount" parquet:"amount"`
	Close2     float64  `json:"close2" parquet:"close2"`
	GivenCash  float64  `json:"given_cash" parquet:"given_cash"`
	GivenShare float64  `json:"given_share" parquet:"given_share"`
	TCAP       *float64 `json:"tcap,omitempty" parquet:"tcap,optional"`
	NP         *float64 `json:"np,omitempty" parquet:"np,optional"`
	NAVPS      *float64 `json:"navps,omitempty" parquet:"navps,optional"`
	ROE        *float64 `json:"roe,omitempty" parquet:"roe,optional"`
	MainFlow   *float64 `json:"main_flow,omitempty" parquet:"main_flow,optional"`
	K          float64  `json:"k" parquet:"k"`
	D          float64  `json:"d" parquet:"d"`
	J          float64  `json:"j" parquet:"j"`
	DIF        float64  `json:"dif" parquet:"dif"`
	DEA        float64  `json:"dea" parquet:"dea"`
	Histogram  float64  `json:"histogram" parquet:"histogram"`
	RSI1       float64  `json:"rsi1" parquet:"rsi1"`
	RSI2       float64  `json:"rsi2" parquet:"rsi2"`
	RSI3       float64  `json:"rsi3" parquet:"rsi3"`
	BollUpper  float64  `json:"boll_upper" parquet:"boll_upper"`
	BollMiddle float64  `json:"boll_middle" parquet:"boll_middle"`
	BollLower  float64  `json:"boll_lower" parquet:"boll_lower"`
}

// Rows flattens a series and its indicator set. set may be nil.
func Rows(s *models.SecurityTimeSeries, set *indicators.Set) []Row {
	rows := make([]Row, s.Len())
	for i := range rows {
		r := Row{
			Symbol:     s.Symbol,
			Date:       s.Dates[i].Unix(),
			Open:       s.Open[i],
			High:       s.High[i],
			Low:        s.Low[i],
			Close:      s.Close[i],
			Volume:     s.Volume[i],
			Amount:     s.Amount[i],
			Close2:     s.Close2[i],
			GivenCash:  s.GivenCash[i],
			GivenShare: s.GivenShare[i],
		}
		if s.Finance != nil {
			rec := s.Finance.At(i)
			r.TCAP = metric(rec.TCAP)
			r.NP = metric(rec.NP)
			r.NAVPS = metric(rec.NAVPS)
			r.ROE = metric(rec.ROE)
		}
		if s.FundFlow != nil {
			if main := s.FundFlow.At(i).Main; main != nil {
				v := main.Amount
				r.MainFlow = &v
			}
		}
		if set != nil {
			r.K, r.D, r.J = set.K[i], set.D[i], set.J[i]
			r.DIF, r.DEA, r.Histogram = set.DIF[i], set.DEA[i], set.Histogram[i]
			r.BollUpper, r.BollMiddle, r.BollLower = set.BollUpper[i], set.BollMiddle[i], set.BollLower[i]
			rsi := []*float64{&r.RSI1, &r.RSI2, &r.RSI3}
			for j, values := range set.RSI {
				if j < len(rsi) {
					*rsi[j] = values[i]
				}
			}
		}
		rows[i] = r
	}
	return rows
}

func metric(m models.Metric) *float64 {
	if m.Defaulted {
		return nil
	}
	v := m.Value
	return &v
}

// Saver writes rows to a file.
type Saver interface {
	Save(rows []Row, path string) error
	Extension() string
}

// NewSaver returns the saver of format ("parquet" or "json"), or nil when the
// format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	}
	return nil
}

// ParquetSaver writes rows as a Parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(rows []Row, path string) error {
	return parquet.WriteFile(path, rows)
}

// JSONSaver writes rows as an indented JSON array.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(rows []Row, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// Exporter writes one file per symbol into a directory.
type Exporter struct {
	dir   string
	saver Saver
}

// NewExporter creates an exporter for format.
func NewExporter(dir, format string) (*Exporter, error) {
	saver := NewSaver(format)
	if saver == nil {
		return nil, fmt.Errorf("unsupported export format %q (use parquet or json)", format)
	}
	return &Exporter{dir: dir, saver: saver}, nil
}

// Export writes s and its indicators to <dir>/<symbol>.<ext> and returns the
// file path.
func (e *Exporter) Export(s *models.SecurityTimeSeries, set *indicators.Set) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(e.dir, s.Symbol+"."+e.saver.Extension())
	if err := e.saver.Save(Rows(s, set), path); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", s.Symbol, err)
	}
	return path, nil
}
