package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"time"
)

// Analyzer processes metrics logs.
type Analyzer struct {
	logPath string
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(logPath string) *Analyzer {
	return &Analyzer{logPath: logPath}
}

// Summary contains aggregated metrics.
type Summary struct {
	Period             string      `json:"period"`
	TotalLocates       int         `json:"total_locates"`
	ZeroResultCount    int         `json:"zero_result_count"`
	AvgLocateLatencyMs int64       `json:"avg_locate_latency_ms"`
	IndexBuilds        int         `json:"index_builds"`
	IndexLoads         int         `json:"index_loads"`
	AvgBuildLatencyMs  int64       `json:"avg_build_latency_ms"`
	ParseFailures      int         `json:"parse_failures"`
	Errors             int         `json:"errors"`
	TopFiles           []FileCount `json:"top_files"`
}

// CacheHitRate returns the share of index requests served from the cache.
func (s *Summary) CacheHitRate() float64 {
	total := s.IndexBuilds + s.IndexLoads
	if total == 0 {
		return 0
	}
	return float64(s.IndexLoads) / float64(total)
}

// FileCount is a file with the number of times it ranked first.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// ReportCount is a report with the number of times it was located.
type ReportCount struct {
	Report string `json:"report"`
	Count  int    `json:"count"`
}

// scan calls fn for every well-formed event logged after now-since.
func (a *Analyzer) scan(since time.Duration, fn func(eventType string, event map[string]interface{})) error {
	file, err := os.Open(a.logPath)
	if err != nil {
		return err
	}
	defer file.Close()

	cutoff := time.Now().Add(-since)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}

		tsStr, ok := event["ts"].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil || ts.Before(cutoff) {
			continue
		}

		eventType, _ := event["event"].(string)
		fn(eventType, event)
	}
	return scanner.Err()
}

// Analyze processes logs for a time period.
func (a *Analyzer) Analyze(since time.Duration) (*Summary, error) {
	summary := &Summary{Period: since.String()}

	fileCounts := make(map[string]int)
	var locateLatency, buildLatency int64

	err := a.scan(since, func(eventType string, event map[string]interface{}) {
		switch eventType {
		case EventLocate:
			summary.TotalLocates++
			if results, ok := event["results"].(float64); ok && results == 0 {
				summary.ZeroResultCount++
			}
			if latency, ok := event["latency_ms"].(float64); ok {
				locateLatency += int64(latency)
			}
			if top, ok := event["top_file"].(string); ok && top != "" {
				fileCounts[top]++
			}

		case EventIndexBuild:
			summary.IndexBuilds++
			if latency, ok := event["latency_ms"].(float64); ok {
				buildLatency += int64(latency)
			}
			if failures, ok := event["parse_failures"].(float64); ok {
				summary.ParseFailures += int(failures)
			}

		case EventIndexLoad:
			summary.IndexLoads++

		case EventError:
			summary.Errors++
		}
	})
	if err != nil {
		return nil, err
	}

	if summary.TotalLocates > 0 {
		summary.AvgLocateLatencyMs = locateLatency / int64(summary.TotalLocates)
	}
	if summary.IndexBuilds > 0 {
		summary.AvgBuildLatencyMs = buildLatency / int64(summary.IndexBuilds)
	}

	for file, count := range fileCounts {
		summary.TopFiles = append(summary.TopFiles, FileCount{File: file, Count: count})
	}
	sort.Slice(summary.TopFiles, func(i, j int) bool {
		if summary.TopFiles[i].Count != summary.TopFiles[j].Count {
			return summary.TopFiles[i].Count > summary.TopFiles[j].Count
		}
		return summary.TopFiles[i].File < summary.TopFiles[j].File
	})
	if len(summary.TopFiles) > 10 {
		summary.TopFiles = summary.TopFiles[:10]
	}

	return summary, nil
}

// GetZeroResultReports returns reports for which no file was selected.
func (a *Analyzer) GetZeroResultReports(since time.Duration) ([]ReportCount, error) {
	reportCounts := make(map[string]int)

	err := a.scan(since, func(eventType string, event map[string]interface{}) {
		if eventType != EventLocate {
			return
		}
		results, _ := event["results"].(float64)
		if results == 0 {
			report, _ := event["report"].(string)
			reportCounts[report]++
		}
	})
	if err != nil {
		return nil, err
	}

	var result []ReportCount
	for r, c := range reportCounts {
		result = append(result, ReportCount{Report: r, Count: c})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Report < result[j].Report
	})

	return result, nil
}
