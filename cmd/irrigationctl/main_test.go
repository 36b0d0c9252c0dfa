package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

func writeRecords(t *testing.T, records []report.Record) string {
	t.Helper()
	raw, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))
	return path
}

func fortnight() []report.Record {
	records := make([]report.Record, 0, 14)
	// Written newest first to exercise sorting.
	for day := 14; day >= 1; day-- {
		records = append(records, report.Record{
			Date:            fmt.Sprintf("2024-03-%02d", day),
			WaterUsed:       10,
			WaterSaved:      2,
			IrrigationCount: 1,
		})
	}
	return records
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportWeekly(t *testing.T) {
	path := writeRecords(t, fortnight())

	out, err := run(t, "", "report", "--file", path, "--period", "weekly")
	require.NoError(t, err)
	require.Contains(t, out, "records: 14")
	require.Contains(t, out, "weekly (7 days)")
	require.Contains(t, out, "water used:   70.0 L (previous 70.0 L, history)")
	require.Contains(t, out, "efficiency:   0%")
	require.NotContains(t, out, "monthly")
}

func TestReportAllWithChart(t *testing.T) {
	path := writeRecords(t, fortnight())

	out, err := run(t, "", "report", "--file", path, "--chart")
	require.NoError(t, err)
	require.Contains(t, out, "weekly (7 days)")
	require.Contains(t, out, "monthly (30 days)")
	require.Contains(t, out, "yearly (30 days)")
	require.Contains(t, out, "daily water use (L) 2024-03-01 to 2024-03-14")
}

func TestReportJSONFromStdin(t *testing.T) {
	raw, err := json.Marshal(fortnight())
	require.NoError(t, err)

	out, err := run(t, string(raw), "report", "--file", "-", "--period", "monthly", "--json")
	require.NoError(t, err)

	var got map[string]report.PeriodSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	monthly := got["monthly"]
	require.Equal(t, 140.0, monthly.TotalWaterUsed)
	require.True(t, monthly.ComparisonEstimated)
	require.InDelta(t, 168.0, monthly.ComparisonWaterUsed, 1e-9)
}

func TestReportRejectsUnknownPeriod(t *testing.T) {
	path := writeRecords(t, fortnight())

	_, err := run(t, "", "report", "--file", path, "--period", "daily")
	require.ErrorContains(t, err, "unknown period")
}

func TestReportRejectsDuplicateDates(t *testing.T) {
	records := []report.Record{
		{Date: "2024-03-01", WaterUsed: 5},
		{Date: "2024-03-01", WaterUsed: 6},
	}
	path := writeRecords(t, records)

	_, err := run(t, "", "report", "--file", path)
	require.ErrorIs(t, err, report.ErrInvalidRecord)
}

func TestReportRequiresFile(t *testing.T) {
	_, err := run(t, "", "report")
	require.Error(t, err)
}

func TestFixtures(t *testing.T) {
	out, err := run(t, "", "fixtures")
	require.NoError(t, err)
	for _, p := range report.Periods {
		require.Contains(t, out, string(p)+" (")
	}
}
