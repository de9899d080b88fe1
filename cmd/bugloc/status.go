// cmd/bugloc/status.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/cache"
)

var statusCmd = &cobra.Command{
	Use:   "status [repo-path]",
	Short: "Show the cached index of a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoPath, err := resolveRepoPath(ctx, args)
	if err != nil {
		return err
	}

	store, err := openCache(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	idx, ok := store.Get(ctx, repoPath)
	if !ok {
		fmt.Println("No index found. Run 'bugloc index' to create one.")
		return nil
	}

	fmt.Println("Index Status:")
	fmt.Printf("  Repository: %s\n", idx.RepoPath)
	fmt.Printf("  Cache key:  %s (%s)\n", cache.Key(repoPath), cfg.Cache.Backend)
	fmt.Printf("  Built:      %s\n", idx.BuiltAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Vocabulary: %d terms\n", idx.Vocabulary.Len())
	fmt.Printf("  Commits:    %d\n", len(idx.Commits))
	for _, id := range idx.CommitIDs() {
		c, _ := idx.Commit(id)
		fmt.Printf("    - %s  %d files\n", shortCommit(id), len(c.Files))
	}

	return nil
}
