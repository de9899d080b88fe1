// Package locator ranks the files of a repository by their relevance to a
// bug report.
package locator

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/bugloc/internal/index"
	"github.com/randalmurphal/bugloc/internal/indexer"
	"github.com/randalmurphal/bugloc/internal/metrics"
	"github.com/randalmurphal/bugloc/internal/report"
	"github.com/randalmurphal/bugloc/internal/score"
)

// Engine answers queries against one repository's retrieval index.
type Engine struct {
	repoPath string
	scorer   *score.Scorer
	result   *indexer.Result
	events   *metrics.Logger
	logger   *slog.Logger
}

// Open builds or loads the index of repoPath covering commitIDs and returns
// an engine over it.
func Open(ctx context.Context, ix *indexer.Indexer, repoPath string, commitIDs []string, refresh bool, opts score.Options) (*Engine, error) {
	idx, result, err := ix.BuildOrLoad(ctx, repoPath, commitIDs, refresh)
	if err != nil {
		return nil, err
	}
	e := New(idx, opts)
	e.repoPath = repoPath
	e.result = result
	return e, nil
}

// New returns an engine over an existing index.
func New(idx *index.Index, opts score.Options) *Engine {
	return &Engine{
		repoPath: idx.RepoPath,
		scorer:   score.NewScorer(idx, opts),
		logger:   slog.Default(),
	}
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// SetEvents sets the metrics event log. A nil logger disables events.
func (e *Engine) SetEvents(events *metrics.Logger) {
	e.events = events
}

// BuildResult returns the statistics of the build or load that produced the
// index, or nil for an engine created with New.
func (e *Engine) BuildResult() *indexer.Result {
	return e.result
}

// Locate ranks the files of commitID against the code fragments of query.
// A query without code yields no matches and no error. A commit that was
// not indexed yields index.ErrUnknownCommit.
func (e *Engine) Locate(ctx context.Context, query report.Query, commitID string) ([]score.Match, error) {
	start := time.Now()

	matches, err := e.scorer.Score(ctx, query.Fragments, commitID)
	if err != nil {
		e.events.LogError("locate", err.Error())
		return nil, err
	}

	var top string
	if len(matches) > 0 {
		top = matches[0].File
	}
	latency := time.Since(start)
	e.logger.Debug("report located",
		"repo", e.repoPath,
		"report", query.Source,
		"commit", commitID,
		"fragments", len(query.Fragments),
		"results", len(matches),
		"duration", latency,
	)
	e.events.LogLocate(query.Source, commitID, len(query.Fragments), len(matches), top, latency.Milliseconds())
	return matches, nil
}

// Distribution returns every file of commitID with its probability for
// query, before thresholding.
func (e *Engine) Distribution(ctx context.Context, query report.Query, commitID string) ([]score.FileScore, error) {
	return e.scorer.Distribution(ctx, query.Fragments, commitID)
}
