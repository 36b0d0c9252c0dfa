package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/yanqian/smart-irrigation/internal/domain/report"
)

const (
	periodAll   = "all"
	chartHeight = 10
	chartWidth  = 60
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "irrigationctl",
		Short:         "Offline tools for irrigation usage reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReportCmd())
	root.AddCommand(newFixturesCmd())
	return root
}

func newReportCmd() *cobra.Command {
	var (
		file   string
		period string
		chart  bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize a JSON array of daily usage records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := loadRecords(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			resp, err := report.Build(records)
			if err != nil {
				return err
			}
			periods, err := selectPeriods(period)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, resp, periods)
			}
			_, _ = fmt.Fprintf(out, "records: %d\n", len(records))
			for _, p := range periods {
				s, _ := resp.Summary(p)
				printSummary(out, p, s)
			}
			if chart {
				printChart(out, records, chartWindow(period))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to records JSON, - for stdin")
	cmd.Flags().StringVarP(&period, "period", "p", periodAll, "weekly|monthly|yearly|all")
	cmd.Flags().BoolVar(&chart, "chart", false, "plot daily water use")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print summaries as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newFixturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fixtures",
		Short: "Print the demo report served when a user has no history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := report.FixtureResponse()
			out := cmd.OutOrStdout()
			for _, p := range report.Periods {
				s, _ := resp.Summary(p)
				printSummary(out, p, s)
			}
			return nil
		},
	}
}

func loadRecords(stdin io.Reader, path string) ([]report.Record, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []report.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	slices.SortStableFunc(records, func(a, b report.Record) int {
		return strings.Compare(a.Date, b.Date)
	})
	return records, nil
}

func selectPeriods(name string) ([]report.Period, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == periodAll {
		return report.Periods, nil
	}
	p := report.Period(name)
	if !slices.Contains(report.Periods, p) {
		return nil, fmt.Errorf("unknown period %q", name)
	}
	return []report.Period{p}, nil
}

func chartWindow(period string) int {
	switch report.Period(strings.ToLower(strings.TrimSpace(period))) {
	case report.PeriodWeekly:
		return 7
	case report.PeriodMonthly, report.PeriodYearly:
		return 30
	default:
		return 0
	}
}

func printSummary(out io.Writer, period report.Period, s report.PeriodSummary) {
	basis := "history"
	if s.ComparisonEstimated {
		basis = "estimated"
	}
	_, _ = fmt.Fprintf(out, "\n%s (%d days)\n", period, s.WindowDays)
	_, _ = fmt.Fprintf(out, "  water used:   %.1f L (previous %.1f L, %s)\n", s.TotalWaterUsed, s.ComparisonWaterUsed, basis)
	_, _ = fmt.Fprintf(out, "  water saved:  %.1f L\n", s.TotalWaterSaved)
	_, _ = fmt.Fprintf(out, "  irrigations:  %d (previous %.1f)\n", s.IrrigationCount, s.ComparisonIrrigationCount)
	_, _ = fmt.Fprintf(out, "  efficiency:   %d%%\n", s.EfficiencyPercent)
	for _, rec := range s.Recommendations {
		_, _ = fmt.Fprintf(out, "  - %s\n", rec)
	}
}

// printChart plots the trailing window of daily water use; window 0 plots everything.
func printChart(out io.Writer, records []report.Record, window int) {
	if window > 0 && len(records) > window {
		records = records[len(records)-window:]
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "\nno records to chart")
		return
	}
	data := make([]float64, len(records))
	for i, r := range records {
		data[i] = r.WaterUsed
	}
	width := len(data)
	if width > chartWidth {
		width = chartWidth
	}
	caption := fmt.Sprintf("daily water use (L) %s to %s", records[0].Date, records[len(records)-1].Date)
	graph := asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
	_, _ = fmt.Fprintf(out, "\n%s\n", graph)
}

func writeJSON(out io.Writer, resp report.Response, periods []report.Period) error {
	selected := make(map[report.Period]report.PeriodSummary, len(periods))
	for _, p := range periods {
		selected[p], _ = resp.Summary(p)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(selected)
}
