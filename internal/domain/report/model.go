package report

import (
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/usage"
)

// Period names the three fixed report configurations.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// Periods lists the report periods in display order.
var Periods = []Period{PeriodWeekly, PeriodMonthly, PeriodYearly}

// PeriodSummary is the derived rollup of one trailing window.
type PeriodSummary struct {
	WindowDays                int      `json:"windowDays"`
	Yearly                    bool     `json:"yearly"`
	TotalWaterUsed            float64  `json:"totalWaterUsed"`
	TotalWaterSaved           float64  `json:"totalWaterSaved"`
	IrrigationCount           int      `json:"irrigationCount"`
	EfficiencyPercent         int      `json:"efficiencyPercent"`
	ComparisonWaterUsed       float64  `json:"comparisonWaterUsed"`
	ComparisonIrrigationCount float64  `json:"comparisonIrrigationCount"`
	ComparisonEstimated       bool     `json:"comparisonEstimated"`
	Recommendations           []string `json:"recommendations"`
}

// Response bundles the weekly, monthly and yearly summaries for one user.
type Response struct {
	Weekly      PeriodSummary `json:"weekly"`
	Monthly     PeriodSummary `json:"monthly"`
	Yearly      PeriodSummary `json:"yearly"`
	Source      string        `json:"source"`
	RecordCount int           `json:"recordCount"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// Summary returns the summary for the named period.
func (r Response) Summary(period Period) (PeriodSummary, bool) {
	switch period {
	case PeriodWeekly:
		return r.Weekly, true
	case PeriodMonthly:
		return r.Monthly, true
	case PeriodYearly:
		return r.Yearly, true
	default:
		return PeriodSummary{}, false
	}
}

// ExportResult describes a stored CSV export.
type ExportResult struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

// Config controls report generation.
type Config struct {
	CacheTTL        time.Duration
	HistoryDays     int
	FixtureFallback bool
}

// Record aliases the usage record so callers of the aggregator need one import.
type Record = usage.DailyUsageRecord
