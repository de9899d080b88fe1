package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/bugloc/internal/index"
	"github.com/randalmurphal/bugloc/internal/metrics"
	"github.com/randalmurphal/bugloc/internal/repo"
)

// IndexStore persists one index per repository.
type IndexStore interface {
	Get(ctx context.Context, repoPath string) (*index.Index, bool)
	Put(ctx context.Context, repoPath string, idx *index.Index) error
}

// Indexer coordinates the indexing pipeline: checkout, identifier
// extraction, weighting and caching.
type Indexer struct {
	store   IndexStore
	vcs     repo.VCS
	builder *NamespaceBuilder
	events  *metrics.Logger
	logger  *slog.Logger
}

// Options configure an Indexer.
type Options struct {
	Include     []string
	Exclude     []string
	MemoEntries int
}

// NewIndexer creates an indexer that reads repositories through vcs and
// caches indexes in store.
func NewIndexer(store IndexStore, vcs repo.VCS, opts Options) (*Indexer, error) {
	builder, err := NewNamespaceBuilder(NewWalker(opts.Include, opts.Exclude), opts.MemoEntries)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		store:   store,
		vcs:     vcs,
		builder: builder,
		logger:  slog.Default(),
	}, nil
}

// SetLogger replaces the indexer's logger.
func (idx *Indexer) SetLogger(logger *slog.Logger) {
	idx.logger = logger
	idx.builder.SetLogger(logger)
}

// SetEvents sets the metrics event log. A nil logger disables events.
func (idx *Indexer) SetEvents(events *metrics.Logger) {
	idx.events = events
}

// Result contains statistics from a build-or-load call.
type Result struct {
	Loaded        bool
	Commits       int
	Files         int
	ParseFailures int
	MemoHits      int
	Errors        []error
	Duration      time.Duration
}

// BuildOrLoad returns the index for repoPath covering commitIDs. A cached
// index that covers every requested commit is returned without touching the
// working tree unless refresh is set. Otherwise every commit is checked out
// and extracted in turn, the working tree is restored, and the new index
// replaces the cached one. A checkout failure aborts the build and nothing is
// cached.
func (idx *Indexer) BuildOrLoad(ctx context.Context, repoPath string, commitIDs []string, refresh bool) (*index.Index, *Result, error) {
	start := time.Now()
	commitIDs = dedupe(commitIDs)
	if len(commitIDs) == 0 {
		return nil, nil, errors.New("no commits to index")
	}

	if !refresh {
		if cached, ok := idx.store.Get(ctx, repoPath); ok && cached.Covers(commitIDs) {
			result := &Result{Loaded: true, Commits: len(cached.Commits), Duration: time.Since(start)}
			idx.logger.Info("index loaded from cache", "repo", repoPath, "commits", result.Commits)
			idx.events.LogIndexLoad(repoPath, result.Commits, result.Duration.Milliseconds())
			return cached, result, nil
		}
	}

	built, result, err := idx.build(ctx, repoPath, commitIDs)
	if err != nil {
		idx.events.LogError("index", err.Error())
		return nil, result, err
	}

	if err := idx.store.Put(ctx, repoPath, built); err != nil {
		// The index is still usable for this process.
		idx.logger.Warn("failed to cache index", "repo", repoPath, "error", err)
		result.Errors = append(result.Errors, err)
	}

	result.Duration = time.Since(start)
	idx.logger.Info("index built",
		"repo", repoPath,
		"commits", result.Commits,
		"files", result.Files,
		"terms", built.Vocabulary.Len(),
		"duration", result.Duration,
	)
	idx.events.LogIndexBuild(repoPath, result.Commits, result.Files, result.ParseFailures, result.MemoHits, result.Duration.Milliseconds())
	return built, result, nil
}

func (idx *Indexer) build(ctx context.Context, repoPath string, commitIDs []string) (built *index.Index, result *Result, err error) {
	result = &Result{}

	snap, err := repo.Open(ctx, repoPath, idx.vcs)
	if err != nil {
		return nil, result, err
	}
	snap.SetLogger(idx.logger)

	defer func() {
		// Restore even when the build was canceled.
		if restoreErr := snap.Restore(context.WithoutCancel(ctx)); restoreErr != nil {
			idx.logger.Warn("failed to restore working tree", "repo", repoPath, "rev", snap.Origin(), "error", restoreErr)
			if err == nil {
				err = fmt.Errorf("restore %s: %w", snap.Origin(), restoreErr)
			}
		}
	}()

	// Checkouts mutate the shared working tree, so commits are built one at
	// a time.
	namespaces := make(map[string]index.CommitNamespace, len(commitIDs))
	for _, commitID := range commitIDs {
		ns, stats, err := idx.builder.Build(ctx, snap, commitID)
		if stats != nil {
			result.Files += stats.Files
			result.ParseFailures += stats.ParseFailures
			result.MemoHits += stats.MemoHits
			result.Errors = append(result.Errors, stats.Errors...)
		}
		if err != nil {
			return nil, result, err
		}
		namespaces[commitID] = ns
		result.Commits++
	}

	return index.Build(snap.Root(), namespaces), result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
