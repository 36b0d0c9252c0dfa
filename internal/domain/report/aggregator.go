package report

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/yanqian/smart-irrigation/pkg/util"
)

var (
	// ErrInvalidWindow is returned when the requested window is not positive.
	ErrInvalidWindow = errors.New("window days must be positive")
	// ErrInvalidRecord is returned for negative quantities or out of order dates.
	ErrInvalidRecord = errors.New("invalid usage record")
)

const (
	yearlyScale = 12

	estimatedWaterFactor = 1.2
	estimatedCountFactor = 1.5
	// Yearly estimates compound on top of the base factors.
	yearlyWaterFactor = 1.3
	yearlyCountFactor = 1.4

	maxRecommendations = 3
)

const (
	recExcellent      = "Excellent water efficiency maintained"
	recGood           = "Good efficiency — continue current practices"
	recOptimize       = "Consider optimizing irrigation schedules"
	recConservationFm = "Significant water conservation: %sL saved"
	recOptimal        = "Smart irrigation system performing optimally"
	recAnnualReview   = "Annual review completed — system operating efficiently"
	recExpand         = "Consider expanding smart irrigation to other areas"
	recMonitoring     = "Regular monitoring shows consistent performance"
	recNoComparison   = "No comparison data available for this period"
)

type windowTotals struct {
	waterUsed  float64
	waterSaved float64
	count      float64
}

// Summarize rolls the trailing windowDays records into a PeriodSummary.
// Records must be oldest-first with unique dates. When yearly is set the
// current window is extrapolated by 12 before comparison.
func Summarize(records []Record, windowDays int, yearly bool) (PeriodSummary, error) {
	if windowDays <= 0 {
		return PeriodSummary{}, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowDays)
	}
	if err := validateRecords(records); err != nil {
		return PeriodSummary{}, err
	}

	start := len(records) - windowDays
	if start < 0 {
		start = 0
	}
	current := sumWindow(records[start:])
	if yearly {
		current.waterUsed *= yearlyScale
		current.waterSaved *= yearlyScale
		current.count *= yearlyScale
	}

	var (
		comparison windowTotals
		estimated  bool
	)
	if start >= windowDays {
		comparison = sumWindow(records[start-windowDays : start])
		// Both sides are annual estimates in yearly mode. An unscaled comparison would
		// always clamp efficiency to 0 against the scaled current window.
		if yearly {
			comparison.waterUsed *= yearlyScale
			comparison.count *= yearlyScale
		}
	}
	if comparison.waterUsed == 0 {
		estimated = true
		comparison.waterUsed = current.waterUsed * estimatedWaterFactor
		comparison.count = current.count * estimatedCountFactor
		if yearly {
			comparison.waterUsed *= yearlyWaterFactor
			comparison.count *= yearlyCountFactor
		}
	}

	efficiency := efficiencyPercent(comparison.waterUsed, current.waterUsed)
	summary := PeriodSummary{
		WindowDays:                windowDays,
		Yearly:                    yearly,
		TotalWaterUsed:            current.waterUsed,
		TotalWaterSaved:           current.waterSaved,
		IrrigationCount:           int(math.Round(current.count)),
		EfficiencyPercent:         efficiency,
		ComparisonWaterUsed:       comparison.waterUsed,
		ComparisonIrrigationCount: comparison.count,
		ComparisonEstimated:       estimated,
	}
	summary.Recommendations = recommend(efficiency, current.waterSaved, yearly, comparison.waterUsed == 0)
	return summary, nil
}

func validateRecords(records []Record) error {
	var prev string
	for i, rec := range records {
		if rec.WaterUsed < 0 || rec.WaterSaved < 0 || rec.IrrigationCount < 0 {
			return fmt.Errorf("%w: negative quantity on %s", ErrInvalidRecord, rec.Date)
		}
		if math.IsNaN(rec.WaterUsed) || math.IsNaN(rec.WaterSaved) || math.IsInf(rec.WaterUsed, 0) || math.IsInf(rec.WaterSaved, 0) {
			return fmt.Errorf("%w: non-finite quantity on %s", ErrInvalidRecord, rec.Date)
		}
		if _, err := util.ParseDate(rec.Date); err != nil {
			return fmt.Errorf("%w: record %d has malformed date %q", ErrInvalidRecord, i, rec.Date)
		}
		// YYYY-MM-DD sorts lexically.
		if i > 0 && rec.Date <= prev {
			return fmt.Errorf("%w: %s does not follow %s", ErrInvalidRecord, rec.Date, prev)
		}
		prev = rec.Date
	}
	return nil
}

func sumWindow(records []Record) windowTotals {
	var totals windowTotals
	for _, rec := range records {
		totals.waterUsed += rec.WaterUsed
		totals.waterSaved += rec.WaterSaved
		totals.count += float64(rec.IrrigationCount)
	}
	return totals
}

func efficiencyPercent(comparison, current float64) int {
	if comparison <= 0 {
		return 0
	}
	pct := math.Floor((comparison-current)/comparison*100 + 0.5)
	if pct < 0 {
		return 0
	}
	return int(pct)
}

func recommend(efficiency int, saved float64, yearly, noComparison bool) []string {
	recs := make([]string, 0, 6)
	switch {
	case efficiency > 20:
		recs = append(recs, recExcellent)
	case efficiency > 10:
		recs = append(recs, recGood)
	default:
		recs = append(recs, recOptimize)
	}
	if saved > 100 {
		recs = append(recs, fmt.Sprintf(recConservationFm, formatLiters(saved)))
	}
	if efficiency > 15 {
		recs = append(recs, recOptimal)
	}
	if yearly {
		recs = append(recs, recAnnualReview, recExpand)
	} else {
		recs = append(recs, recMonitoring)
	}
	if noComparison {
		recs = append(recs, recNoComparison)
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func formatLiters(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
