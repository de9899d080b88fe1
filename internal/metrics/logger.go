// Package metrics provides JSONL event logging for analytics.
package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event names written to the log.
const (
	EventIndexBuild = "index_build"
	EventIndexLoad  = "index_load"
	EventLocate     = "locate"
	EventError      = "error"
)

// Logger writes metrics events to JSONL file. A nil *Logger discards events.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// NewLogger creates a new metrics logger, creating the parent directory if
// needed.
func NewLogger(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{file: file}, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) log(event string, data map[string]interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e := map[string]interface{}{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range data {
		e[k] = v
	}

	line, _ := json.Marshal(e)
	l.file.Write(line)
	l.file.Write([]byte("\n"))
}

// LogIndexBuild logs a full index build.
func (l *Logger) LogIndexBuild(repo string, commits, files, parseFailures, memoHits int, latencyMs int64) {
	l.log(EventIndexBuild, map[string]interface{}{
		"repo":           repo,
		"commits":        commits,
		"files":          files,
		"parse_failures": parseFailures,
		"memo_hits":      memoHits,
		"latency_ms":     latencyMs,
	})
}

// LogIndexLoad logs an index served from the cache.
func (l *Logger) LogIndexLoad(repo string, commits int, latencyMs int64) {
	l.log(EventIndexLoad, map[string]interface{}{
		"repo":       repo,
		"commits":    commits,
		"latency_ms": latencyMs,
	})
}

// LogLocate logs one report scored against one commit. topFile is empty when
// nothing was selected.
func (l *Logger) LogLocate(report, commit string, fragments, results int, topFile string, latencyMs int64) {
	l.log(EventLocate, map[string]interface{}{
		"report":     report,
		"commit":     commit,
		"fragments":  fragments,
		"results":    results,
		"top_file":   topFile,
		"latency_ms": latencyMs,
	})
}

// LogError logs an error event.
func (l *Logger) LogError(operation, message string) {
	l.log(EventError, map[string]interface{}{
		"operation": operation,
		"message":   message,
	})
}
