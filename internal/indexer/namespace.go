package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"

	"github.com/randalmurphal/bugloc/internal/index"
	"github.com/randalmurphal/bugloc/internal/parser"
	"github.com/randalmurphal/bugloc/internal/repo"
)

// DefaultMemoEntries bounds the number of distinct file contents whose
// identifiers are remembered between commits.
const DefaultMemoEntries = 8192

// BuildStats contains statistics from one commit's namespace build.
type BuildStats struct {
	Commit        string
	Files         int
	ParseFailures int
	MemoHits      int
	Errors        []error
	Duration      time.Duration
}

type extraction struct {
	names  []string
	parsed bool
}

// NamespaceBuilder extracts the identifier namespace of every source file in
// a working tree. Files whose content was already seen, at this commit or an
// earlier one, are not parsed again.
type NamespaceBuilder struct {
	walker *Walker
	parser *parser.Parser
	memo   *lru.Cache[xxh3.Uint128, extraction]
	logger *slog.Logger
}

// NewNamespaceBuilder creates a builder over the files walker selects.
// memoEntries <= 0 uses DefaultMemoEntries.
func NewNamespaceBuilder(walker *Walker, memoEntries int) (*NamespaceBuilder, error) {
	if memoEntries <= 0 {
		memoEntries = DefaultMemoEntries
	}
	memo, err := lru.New[xxh3.Uint128, extraction](memoEntries)
	if err != nil {
		return nil, fmt.Errorf("create extraction memo: %w", err)
	}
	return &NamespaceBuilder{
		walker: walker,
		parser: parser.NewParser(),
		memo:   memo,
		logger: slog.Default(),
	}, nil
}

// SetLogger replaces the builder's logger.
func (b *NamespaceBuilder) SetLogger(logger *slog.Logger) {
	b.logger = logger
}

// Build checks out commitID in snap and returns the namespace of every
// selected file, keyed by slash-separated path relative to the repository
// root. A file that cannot be read or parsed contributes an empty namespace.
// A checkout failure aborts the build.
func (b *NamespaceBuilder) Build(ctx context.Context, snap *repo.Snapshot, commitID string) (index.CommitNamespace, *BuildStats, error) {
	start := time.Now()
	stats := &BuildStats{Commit: commitID}
	ns := make(index.CommitNamespace)

	err := snap.At(ctx, commitID, func(root string) error {
		return b.walker.Walk(root, func(path, rel string) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, ok := parser.DetectLanguage(rel); !ok {
				return nil
			}
			stats.Files++

			source, err := os.ReadFile(path)
			if err != nil {
				stats.Errors = append(stats.Errors, fmt.Errorf("read %s: %w", rel, err))
				ns[rel] = nil
				return nil // Continue with other files
			}

			ns[rel] = b.extract(ctx, rel, source, stats)
			return nil
		})
	})
	if err != nil {
		return nil, stats, fmt.Errorf("build namespace for %s: %w", commitID, err)
	}

	stats.Duration = time.Since(start)
	b.logger.Info("namespace built",
		"commit", commitID,
		"files", stats.Files,
		"parse_failures", stats.ParseFailures,
		"memo_hits", stats.MemoHits,
		"duration", stats.Duration,
	)
	return ns, stats, nil
}

func (b *NamespaceBuilder) extract(ctx context.Context, rel string, source []byte, stats *BuildStats) index.FileNamespace {
	key := xxh3.Hash128(source)
	if e, ok := b.memo.Get(key); ok {
		stats.MemoHits++
		if !e.parsed {
			stats.ParseFailures++
		}
		return e.names
	}

	mod, err := b.parser.Parse(ctx, source)
	if err != nil {
		b.logger.Debug("file did not parse", "path", rel, "error", err)
		stats.ParseFailures++
		if errors.Is(err, parser.ErrSyntax) {
			b.memo.Add(key, extraction{})
		}
		return nil
	}

	names := parser.Walk(mod)
	b.memo.Add(key, extraction{names: names, parsed: true})
	return names
}
