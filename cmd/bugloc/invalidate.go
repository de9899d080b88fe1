// cmd/bugloc/invalidate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate [repo-path]",
	Short: "Drop the cached index of a repository",
	Long: `Removes the repository's entry from the index cache so the next index or
locate run rebuilds it from the working tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInvalidate,
}

func init() {
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, args []string) error {
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

	if err := store.Invalidate(ctx, repoPath); err != nil {
		return err
	}

	fmt.Printf("Invalidated index for %s\n", repoPath)
	return nil
}
