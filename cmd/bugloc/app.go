package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/bugloc/internal/cache"
	"github.com/randalmurphal/bugloc/internal/config"
	"github.com/randalmurphal/bugloc/internal/indexer"
	"github.com/randalmurphal/bugloc/internal/metrics"
	"github.com/randalmurphal/bugloc/internal/repo"
	"github.com/randalmurphal/bugloc/internal/score"
)

// resolveRepoPath turns an optional repo argument (default: the current
// directory) into an absolute path to an existing git work tree.
func resolveRepoPath(ctx context.Context, args []string) (string, error) {
	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("repository not found: %s", absPath)
	}
	if !repo.NewGitClient().IsRepository(ctx, absPath) {
		return "", fmt.Errorf("not a git repository: %s", absPath)
	}
	return absPath, nil
}

// resolveCommits turns revision names into full commit ids. Without any
// revisions it falls back to the repo config's commits, then to HEAD.
func resolveCommits(ctx context.Context, repoPath string, revs []string, repoCfg *config.RepoConfig) ([]string, error) {
	if len(revs) == 0 {
		revs = repoCfg.Commits
	}
	if len(revs) == 0 {
		revs = []string{"HEAD"}
	}

	git := repo.NewGitClient()
	ids := make([]string, 0, len(revs))
	for _, rev := range revs {
		id, err := git.Resolve(ctx, repoPath, rev)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func openCache(c *config.Config) (*cache.IndexCache, error) {
	var store cache.BlobStore
	var err error

	switch c.Cache.Backend {
	case config.BackendRedis:
		store, err = cache.NewRedisStore(c.Cache.RedisURL, c.Cache.RedisTTL)
	case config.BackendSQLite:
		store, err = cache.OpenSQLiteStore(c.Cache.SQLitePath)
	default:
		store, err = cache.NewFileStore(c.Cache.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", c.Cache.Backend, err)
	}

	ic, err := cache.NewIndexCache(store, c.Cache.MemoryEntries)
	if err != nil {
		store.Close()
		return nil, err
	}
	ic.SetLogger(slog.Default())
	return ic, nil
}

// openEvents returns the metrics log, or nil when metrics are disabled or
// the log cannot be opened.
func openEvents(c *config.Config) *metrics.Logger {
	if !c.Metrics.Enabled || c.Metrics.Path == "" {
		return nil
	}
	events, err := metrics.NewLogger(c.Metrics.Path)
	if err != nil {
		slog.Warn("metrics disabled", "path", c.Metrics.Path, "error", err)
		return nil
	}
	return events
}

func newIndexer(c *config.Config, repoCfg *config.RepoConfig, store indexer.IndexStore, events *metrics.Logger) (*indexer.Indexer, error) {
	ix, err := indexer.NewIndexer(store, repo.NewGitClient(), indexer.Options{
		Include:     repoCfg.Include,
		Exclude:     repoCfg.Exclude,
		MemoEntries: c.Index.MemoEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}
	ix.SetLogger(slog.Default())
	ix.SetEvents(events)
	return ix, nil
}

func scoreOptions(c *config.Config) score.Options {
	return score.Options{
		DocumentThreshold: c.Scoring.DocumentThreshold,
		TermThreshold:     c.Scoring.TermThreshold,
	}
}
