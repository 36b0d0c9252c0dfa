package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
)

func renderCSV(records []Record, resp Response) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"date", "water_used_l", "water_saved_l", "irrigation_count"}}
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Date,
			csvQuantity(rec.WaterUsed),
			csvQuantity(rec.WaterSaved),
			strconv.Itoa(rec.IrrigationCount),
		})
	}
	rows = append(rows, []string{})
	rows = append(rows, []string{
		"period", "window_days", "total_water_used_l", "total_water_saved_l", "irrigation_count",
		"efficiency_percent", "comparison_water_used_l", "comparison_irrigation_count",
		"comparison_estimated", "recommendations",
	})
	for _, period := range Periods {
		summary, _ := resp.Summary(period)
		rows = append(rows, []string{
			string(period),
			strconv.Itoa(summary.WindowDays),
			csvQuantity(summary.TotalWaterUsed),
			csvQuantity(summary.TotalWaterSaved),
			strconv.Itoa(summary.IrrigationCount),
			strconv.Itoa(summary.EfficiencyPercent),
			csvQuantity(summary.ComparisonWaterUsed),
			csvQuantity(summary.ComparisonIrrigationCount),
			strconv.FormatBool(summary.ComparisonEstimated),
			strings.Join(summary.Recommendations, "; "),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// csvQuantity prints v with at most two decimals so float noise from summing and
// scaling does not leak into exported files.
func csvQuantity(v float64) string {
	out := strconv.FormatFloat(v, 'f', 2, 64)
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, ".")
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
