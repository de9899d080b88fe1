// cmd/bugloc/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/config"
)

var version = "v0.1.0"

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bugloc",
	Short: "Locate the source files a bug report is about",
	Long: `Index the identifiers of a Python repository at chosen commits and rank
its files against the code quoted in a bug report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		level, _ := config.ParseLevel(cfg.Logging.Level)
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bugloc " + version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath(), "Global config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("cache-backend", config.BackendFile, "Index cache backend (file, redis, sqlite)")
	flags.String("cache-dir", "", "Directory for the file cache backend")
	flags.String("redis-url", "", "Redis URL for the redis cache backend")
	flags.String("sqlite-path", "", "Database path for the sqlite cache backend")
	flags.String("metrics-path", "", "Metrics event log (JSONL)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
