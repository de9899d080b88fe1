// cmd/bugloc/init.go
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/config"
	"github.com/randalmurphal/bugloc/internal/indexer"
)

var initCmd = &cobra.Command{
	Use:   "init [repo-path]",
	Short: "Initialize bugloc configuration for a repository",
	Long: `Writes .bugloc.yaml to the repository root with the default include
patterns and lists the Python packages found there. With --global, also
writes the default global config if none exists.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var initGlobal bool

func init() {
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "Also write the default global config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if initGlobal {
		if err := writeGlobalConfig(); err != nil {
			return err
		}
	}

	repoPath := "."
	if len(args) > 0 {
		repoPath = args[0]
	}

	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", absPath)
	}

	configFile := filepath.Join(absPath, config.RepoConfigFile)
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("Config already exists at %s\n", configFile)
		return nil
	}

	// Packages only label the output; every Python file is indexed.
	packages := indexer.DetectPackages(absPath)
	repoCfg := &config.RepoConfig{
		Name:    filepath.Base(absPath),
		Include: append([]string(nil), indexer.DefaultIncludes...),
	}

	if err := config.SaveRepoConfig(absPath, repoCfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configFile)
	if len(packages) > 0 {
		fmt.Println("\nDetected packages:")
		for _, p := range packages {
			fmt.Printf("  - %s (%s)\n", p.Name, p.Dir)
		}
	}
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Review and customize the config file\n")
	fmt.Printf("  2. Run: bugloc index %s\n", absPath)

	return nil
}

func writeGlobalConfig() error {
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Global config already exists at %s\n", configPath)
		return nil
	}
	if err := config.DefaultConfig().Save(configPath); err != nil {
		return fmt.Errorf("failed to write global config: %w", err)
	}
	fmt.Printf("Created %s\n", configPath)
	return nil
}
