// cmd/bugloc/index.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/config"
)

var indexCmd = &cobra.Command{
	Use:   "index [repo-path] [commit...]",
	Short: "Build or load the retrieval index of a repository",
	Long: `Checks out every commit in turn, extracts the identifiers of each Python
file and caches the weighted index. Commits default to the repo config's
commits, then HEAD. A cached index covering the commits is reused unless
--refresh is given.`,
	RunE: runIndex,
}

var indexRefresh bool

func init() {
	indexCmd.Flags().BoolVar(&indexRefresh, "refresh", false, "Rebuild even if a cached index covers the commits")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoPath, err := resolveRepoPath(ctx, args[:min(len(args), 1)])
	if err != nil {
		return err
	}

	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}

	var revs []string
	if len(args) > 1 {
		revs = args[1:]
	}
	commits, err := resolveCommits(ctx, repoPath, revs, repoCfg)
	if err != nil {
		return err
	}

	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	events := openEvents(cfg)
	defer events.Close()

	ix, err := newIndexer(cfg, repoCfg, store, events)
	if err != nil {
		return err
	}

	fmt.Printf("Indexing %s (%s) at %d commit(s)...\n", repoCfg.Name, repoPath, len(commits))

	idx, result, err := ix.BuildOrLoad(ctx, repoPath, commits, indexRefresh)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if result.Loaded {
		fmt.Printf("\nLoaded cached index (built %s)\n", idx.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Printf("\nIndexing complete:\n")
		fmt.Printf("  Commits:         %d\n", result.Commits)
		fmt.Printf("  Files processed: %d\n", result.Files)
		fmt.Printf("  Parse failures:  %d\n", result.ParseFailures)
		fmt.Printf("  Reused extracts: %d\n", result.MemoHits)
		fmt.Printf("  Vocabulary:      %d terms\n", idx.Vocabulary.Len())
		fmt.Printf("  Duration:        %s\n", result.Duration.Round(time.Millisecond))
	}

	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %v\n", e)
		}
	}

	return nil
}
