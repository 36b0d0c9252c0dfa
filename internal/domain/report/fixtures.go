package report

// FixtureResponse is served when the usage ledger cannot be read. The figures
// mirror the demo data shown before any device has reported.
func FixtureResponse() Response {
	return Response{
		Weekly: PeriodSummary{
			WindowDays:                7,
			TotalWaterUsed:            150,
			TotalWaterSaved:           30,
			IrrigationCount:           2,
			EfficiencyPercent:         17,
			ComparisonWaterUsed:       180,
			ComparisonIrrigationCount: 3,
			Recommendations: []string{
				"Reduced irrigation due to rainfall",
				"Optimal soil moisture maintained",
				"Water savings achieved through smart scheduling",
			},
		},
		Monthly: PeriodSummary{
			WindowDays:                30,
			TotalWaterUsed:            650,
			TotalWaterSaved:           180,
			IrrigationCount:           8,
			EfficiencyPercent:         22,
			ComparisonWaterUsed:       830,
			ComparisonIrrigationCount: 12,
			Recommendations: []string{
				"Adjusted schedule for seasonal changes",
				"Implemented moisture-based irrigation",
				"Reduced water waste by 22%",
			},
		},
		Yearly: PeriodSummary{
			WindowDays:                30,
			Yearly:                    true,
			TotalWaterUsed:            7200,
			TotalWaterSaved:           3800,
			IrrigationCount:           95,
			EfficiencyPercent:         35,
			ComparisonWaterUsed:       11000,
			ComparisonIrrigationCount: 140,
			Recommendations: []string{
				"Annual water savings: 3,800L",
				"Smart system optimization successful",
				"Consistent efficiency improvements",
			},
		},
		Source: SourceFixture,
	}
}
