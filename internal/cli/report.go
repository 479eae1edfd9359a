package cli

import (
	"fmt"
	"strings"

	"cnstock/internal/analysis"
	"cnstock/pkg/utils"
)

func displayReport(output *Output, r *analysis.Report, rows int, rsiPeriods []int) {
	kind := "Index"
	if r.IsStock {
		kind = "Stock"
	}
	output.Bold("%s  %s  %s", r.Symbol, kind, r.Date.Format("2006-01-02"))
	if len(r.Sectors) > 0 {
		output.Dim("Sectors: %s", strings.Join(r.Sectors, ", "))
	}
	output.Println()

	if s := r.Summary; s != nil {
		output.Printf("  Price:      %s  %s\n", utils.FormatPrice(r.Price), output.Change(s.Change))
		output.Printf("  High/Low:   %s / %s  (amplitude %s)\n", utils.FormatPrice(s.High), utils.FormatPrice(s.Low), utils.FormatPercent(s.Amplitude))
		output.Printf("  Volume:     %s  Amount: %s\n", utils.FormatQuantity(int64(s.Volume)), utils.FormatAmount(s.Amount))
		if s.VolumeEstRatio != 1 {
			output.Dim("  (session in progress, extrapolated ×%.2f)", s.VolumeEstRatio)
		}
		if s.Turnover > 0 {
			output.Printf("  Turnover:   %s\n", utils.FormatPercent(s.Turnover))
		}
		output.Println()

		if len(s.Periods) > 0 {
			table := NewTable(output, "Days", "Mean Close", "High", "Low", "Amplitude", "Change", "Mean Amount", "Turnover")
			for _, p := range s.Periods {
				table.AddRow(
					fmt.Sprintf("%d", p.Days),
					utils.FormatPrice(p.MeanClose),
					utils.FormatPrice(p.MaxHigh),
					utils.FormatPrice(p.MinLow),
					utils.FormatPercent(p.Amplitude),
					output.Change(p.Change),
					utils.FormatAmount(p.MeanAmount),
					utils.FormatPercent(p.TotalTurnover),
				)
			}
			table.Render()
			output.Println()
		}
	}

	if len(r.Flows) > 0 {
		output.Bold("Capital Flow")
		for _, f := range r.Flows {
			output.Printf("  %-6s %s  (%.2f%%)\n", f.Label, output.Flow(f), f.Ratio)
		}
		output.Println()
	}

	if v := r.Valuation; v != nil {
		output.Bold("Valuation")
		output.Printf("  Market Cap: %s\n", utils.FormatOptional(v.MarketCap, func(x float64) string { return fmt.Sprintf("%.2f亿", x) }))
		output.Printf("  PE:         %s (static)  %s (dynamic)\n", utils.FormatOptional(v.StaticPE, utils.FormatPrice), utils.FormatOptional(v.DynamicPE, utils.FormatPrice))
		output.Printf("  PB:         %s\n", utils.FormatOptional(v.PB, utils.FormatPrice))
		output.Printf("  ROE:        %s\n", utils.FormatOptional(v.ROE, func(x float64) string { return fmt.Sprintf("%.2f%%", x) }))
		output.Println()
	}

	if len(r.Annual) > 0 {
		table := NewTable(output, "Year", "Revenue", "Net Profit", "EPS", "NAVPS", "ROE")
		for _, a := range r.Annual {
			table.AddRow(
				fmt.Sprintf("%d", a.Year),
				fmt.Sprintf("%.2f亿", a.Revenue),
				fmt.Sprintf("%.2f亿", a.NetProfit),
				fmt.Sprintf("%.3f", a.EPS),
				fmt.Sprintf("%.2f", a.NAVPS),
				fmt.Sprintf("%.2f%%", a.ROE),
			)
		}
		table.Render()
		output.Println()
	}

	if len(r.Indicators) == 0 {
		output.Dim("Not enough history for the indicator report")
		return
	}
	if rows <= 0 || rows > len(r.Indicators) {
		rows = len(r.Indicators)
	}
	headers := []string{"Date", "K", "D", "J", "DIF", "DEA"}
	for i := range r.Indicators[0].RSI {
		if i < len(rsiPeriods) {
			headers = append(headers, fmt.Sprintf("RSI%d", rsiPeriods[i]))
		} else {
			headers = append(headers, "RSI")
		}
	}
	headers = append(headers, "BOLL Up", "Mid", "Low")
	table := NewTable(output, headers...)
	for _, ind := range r.Indicators[:rows] {
		cells := []string{
			ind.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", ind.K),
			fmt.Sprintf("%.2f", ind.D),
			fmt.Sprintf("%.2f", ind.J),
			fmt.Sprintf("%.3f", ind.DIF),
			fmt.Sprintf("%.3f", ind.DEA),
		}
		for _, v := range ind.RSI {
			cells = append(cells, fmt.Sprintf("%.2f", v))
		}
		cells = append(cells, utils.FormatPrice(ind.BollUpper), utils.FormatPrice(ind.BollMiddle), utils.FormatPrice(ind.BollLower))
		table.AddRow(cells...)
	}
	table.Render()
}
