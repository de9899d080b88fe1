// cmd/bugloc/metrics.go
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Analyze usage metrics",
	Long:  `Analyze index and locate events from the metrics log.`,
	RunE:  runMetrics,
}

var (
	metricsSince       string
	metricsZeroResults bool
	metricsJSON        bool
)

func init() {
	metricsCmd.Flags().StringVar(&metricsSince, "last", "7d", "Time period (e.g., 1h, 24h, 7d, 30d)")
	metricsCmd.Flags().BoolVar(&metricsZeroResults, "zero-results", false, "Show only reports that matched no file")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	duration, err := parseDuration(metricsSince)
	if err != nil {
		return fmt.Errorf("invalid time period: %w", err)
	}

	metricsPath := cfg.Metrics.Path
	if _, err := os.Stat(metricsPath); os.IsNotExist(err) {
		fmt.Println("No metrics data found. Run 'bugloc locate' to generate metrics.")
		return nil
	}

	analyzer := metrics.NewAnalyzer(metricsPath)

	if metricsZeroResults {
		reports, err := analyzer.GetZeroResultReports(duration)
		if err != nil {
			return err
		}

		if metricsJSON {
			data, _ := json.MarshalIndent(reports, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Printf("Reports without matches (last %s):\n\n", metricsSince)
			if len(reports) == 0 {
				fmt.Println("  None.")
			}
			for _, r := range reports {
				fmt.Printf("  - %s (%d times)\n", r.Report, r.Count)
			}
		}
		return nil
	}

	summary, err := analyzer.Analyze(duration)
	if err != nil {
		return err
	}

	if metricsJSON {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Metrics Summary (last %s):\n\n", metricsSince)
		fmt.Printf("  Reports located:     %d\n", summary.TotalLocates)
		fmt.Printf("  Avg locate latency:  %dms\n", summary.AvgLocateLatencyMs)
		fmt.Printf("  Without matches:     %d\n", summary.ZeroResultCount)
		fmt.Printf("  Index builds:        %d (avg %dms)\n", summary.IndexBuilds, summary.AvgBuildLatencyMs)
		fmt.Printf("  Index cache loads:   %d (hit rate %.0f%%)\n", summary.IndexLoads, summary.CacheHitRate()*100)
		fmt.Printf("  Parse failures:      %d\n", summary.ParseFailures)
		fmt.Printf("  Errors:              %d\n", summary.Errors)
		if len(summary.TopFiles) > 0 {
			fmt.Println()
			fmt.Println("  Most often ranked first:")
			for _, f := range summary.TopFiles {
				fmt.Printf("    - %s (%d times)\n", f.File, f.Count)
			}
		}
	}

	return nil
}

func parseDuration(s string) (time.Duration, error) {
	// Handle day suffix
	if len(s) > 0 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err == nil {
			return time.Duration(d) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
