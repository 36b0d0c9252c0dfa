package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeEmptyInput(t *testing.T) {
	summary, err := Summarize(nil, 7, false)
	require.NoError(t, err)
	require.Zero(t, summary.TotalWaterUsed)
	require.Zero(t, summary.TotalWaterSaved)
	require.Zero(t, summary.IrrigationCount)
	require.Zero(t, summary.EfficiencyPercent)
	require.Zero(t, summary.ComparisonWaterUsed)
	require.True(t, summary.ComparisonEstimated)
	require.Equal(t, []string{
		"Consider optimizing irrigation schedules",
		"Regular monitoring shows consistent performance",
		"No comparison data available for this period",
	}, summary.Recommendations)
}

func TestSummarizeSynthesizesComparisonWithoutHistory(t *testing.T) {
	records := series("2024-06-01", []float64{40, 30, 30}, 0, 1)

	summary, err := Summarize(records, 7, false)
	require.NoError(t, err)
	require.Equal(t, 100.0, summary.TotalWaterUsed)
	require.InDelta(t, 120.0, summary.ComparisonWaterUsed, 1e-9)
	require.InDelta(t, 4.5, summary.ComparisonIrrigationCount, 1e-9)
	require.Equal(t, 17, summary.EfficiencyPercent)
	require.True(t, summary.ComparisonEstimated)
}

func TestSummarizeSevenDayScenario(t *testing.T) {
	records := series("2024-06-01", []float64{20, 20, 20, 20, 20, 20, 20}, 0, 1)

	summary, err := Summarize(records, 7, false)
	require.NoError(t, err)
	require.Equal(t, 140.0, summary.TotalWaterUsed)
	require.InDelta(t, 168.0, summary.ComparisonWaterUsed, 1e-9)
	require.Equal(t, 17, summary.EfficiencyPercent)
	require.Equal(t, 7, summary.IrrigationCount)
	require.Equal(t, []string{
		recGood,
		"Smart irrigation system performing optimally",
		"Regular monitoring shows consistent performance",
	}, summary.Recommendations)
}

func TestSummarizeUsesPrecedingWindow(t *testing.T) {
	used := []float64{30, 30, 30, 30, 20, 20, 20, 20}
	records := series("2024-06-01", used, 5, 2)

	summary, err := Summarize(records, 4, false)
	require.NoError(t, err)
	require.Equal(t, 80.0, summary.TotalWaterUsed)
	require.Equal(t, 120.0, summary.ComparisonWaterUsed)
	require.Equal(t, 8.0, summary.ComparisonIrrigationCount)
	require.Equal(t, 33, summary.EfficiencyPercent)
	require.False(t, summary.ComparisonEstimated)
	require.Equal(t, "Excellent water efficiency maintained", summary.Recommendations[0])
}

func TestSummarizeClampsRegressionToZero(t *testing.T) {
	used := []float64{10, 10, 50, 50}
	records := series("2024-06-01", used, 0, 1)

	summary, err := Summarize(records, 2, false)
	require.NoError(t, err)
	require.Equal(t, 0, summary.EfficiencyPercent)
	require.Equal(t, 20.0, summary.ComparisonWaterUsed)
}

func TestSummarizePartialHistoryIsTreatedAsUnavailable(t *testing.T) {
	records := series("2024-06-01", []float64{500, 10, 10, 10}, 0, 1)

	summary, err := Summarize(records, 3, false)
	require.NoError(t, err)
	require.True(t, summary.ComparisonEstimated)
	require.InDelta(t, 36.0, summary.ComparisonWaterUsed, 1e-9)
}

func TestSummarizeZeroComparisonWindowIsSynthesized(t *testing.T) {
	records := series("2024-06-01", []float64{0, 0, 10, 10}, 0, 1)

	summary, err := Summarize(records, 2, false)
	require.NoError(t, err)
	require.True(t, summary.ComparisonEstimated)
	require.InDelta(t, 24.0, summary.ComparisonWaterUsed, 1e-9)
	require.Equal(t, 17, summary.EfficiencyPercent)
}

func TestSummarizeYearlyScalesBeforeSynthesis(t *testing.T) {
	records := series("2024-06-01", []float64{10, 10, 10}, 50, 1)

	base, err := Summarize(records, 30, false)
	require.NoError(t, err)
	yearly, err := Summarize(records, 30, true)
	require.NoError(t, err)

	require.Equal(t, base.TotalWaterUsed*12, yearly.TotalWaterUsed)
	require.Equal(t, base.TotalWaterSaved*12, yearly.TotalWaterSaved)
	require.Equal(t, base.IrrigationCount*12, yearly.IrrigationCount)
	require.InDelta(t, 360*1.2*1.3, yearly.ComparisonWaterUsed, 1e-9)
	require.InDelta(t, 36*1.5*1.4, yearly.ComparisonIrrigationCount, 1e-9)
	require.Equal(t, 36, yearly.EfficiencyPercent)
	require.Equal(t, []string{
		"Excellent water efficiency maintained",
		"Significant water conservation: 1800L saved",
		"Smart irrigation system performing optimally",
	}, yearly.Recommendations)
}

func TestSummarizeYearlyScalesRealComparison(t *testing.T) {
	used := make([]float64, 60)
	for i := range used {
		used[i] = 10
		if i >= 30 {
			used[i] = 8
		}
	}
	records := series("2024-01-01", used, 0, 0)

	summary, err := Summarize(records, 30, true)
	require.NoError(t, err)
	require.False(t, summary.ComparisonEstimated)
	require.Equal(t, 2880.0, summary.TotalWaterUsed)
	require.Equal(t, 3600.0, summary.ComparisonWaterUsed)
	require.Equal(t, 20, summary.EfficiencyPercent)
	require.Equal(t, []string{
		"Good efficiency — continue current practices",
		"Smart irrigation system performing optimally",
		"Annual review completed — system operating efficiently",
	}, summary.Recommendations)
}

func TestSummarizeRecommendationThresholds(t *testing.T) {
	cases := []struct {
		name       string
		efficiency int
		saved      float64
		yearly     bool
		want       []string
	}{
		{
			name:       "good band",
			efficiency: 12,
			want:       []string{recGood, recMonitoring},
		},
		{
			name:       "boundary ten is not good",
			efficiency: 10,
			want:       []string{recOptimize, recMonitoring},
		},
		{
			name:       "boundary twenty is not excellent",
			efficiency: 20,
			saved:      101,
			want:       []string{recGood, "Significant water conservation: 101L saved", recOptimal},
		},
		{
			name:       "fractional savings are printed as is",
			efficiency: 0,
			saved:      150.5,
			want:       []string{recOptimize, "Significant water conservation: 150.5L saved", recMonitoring},
		},
		{
			name:       "yearly without savings",
			efficiency: 5,
			yearly:     true,
			want:       []string{recOptimize, recAnnualReview, recExpand},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := recommend(tc.efficiency, tc.saved, tc.yearly, false)
			require.Equal(t, tc.want, got)
			require.LessOrEqual(t, len(got), maxRecommendations)
		})
	}
}

func TestSummarizeIsDeterministic(t *testing.T) {
	records := series("2024-06-01", []float64{12.5, 7, 19, 3, 22, 14, 9, 30, 11}, 17.25, 2)

	first, err := Summarize(records, 7, false)
	require.NoError(t, err)
	second, err := Summarize(records, 7, false)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, first.EfficiencyPercent, 0)
}

func TestSummarizeRejectsInvalidWindow(t *testing.T) {
	for _, window := range []int{0, -7} {
		_, err := Summarize(nil, window, false)
		require.True(t, errors.Is(err, ErrInvalidWindow))
	}
}

func TestSummarizeRejectsMalformedRecords(t *testing.T) {
	cases := map[string][]Record{
		"negative used":  {{Date: "2024-06-01", WaterUsed: -1}},
		"negative saved": {{Date: "2024-06-01", WaterSaved: -0.5}},
		"negative count": {{Date: "2024-06-01", IrrigationCount: -2}},
		"bad date":       {{Date: "06/01/2024"}},
		"out of order":   {{Date: "2024-06-02"}, {Date: "2024-06-01"}},
		"duplicate date": {{Date: "2024-06-01"}, {Date: "2024-06-01"}},
	}
	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Summarize(records, 7, false)
			require.True(t, errors.Is(err, ErrInvalidRecord), "got %v", err)
		})
	}
}

func TestBuildProducesThreeConfigurations(t *testing.T) {
	records := series("2024-06-01", []float64{10, 10, 10, 10, 10, 10, 10, 10}, 1, 1)

	resp, err := Build(records)
	require.NoError(t, err)
	require.Equal(t, 7, resp.Weekly.WindowDays)
	require.Equal(t, 30, resp.Monthly.WindowDays)
	require.Equal(t, 30, resp.Yearly.WindowDays)
	require.True(t, resp.Yearly.Yearly)
	require.Equal(t, 70.0, resp.Weekly.TotalWaterUsed)
	require.Equal(t, 80.0, resp.Monthly.TotalWaterUsed)
	require.Equal(t, 960.0, resp.Yearly.TotalWaterUsed)
	require.Equal(t, SourceLedger, resp.Source)
	require.Equal(t, len(records), resp.RecordCount)
}

func series(start string, used []float64, saved float64, count int) []Record {
	day, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	out := make([]Record, 0, len(used))
	for i, u := range used {
		out = append(out, Record{
			Date:            day.AddDate(0, 0, i).Format("2006-01-02"),
			WaterUsed:       u,
			WaterSaved:      saved,
			IrrigationCount: count,
		})
	}
	return out
}
