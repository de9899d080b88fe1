// cmd/bugloc/locate.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/bugloc/internal/config"
	"github.com/randalmurphal/bugloc/internal/indexer"
	"github.com/randalmurphal/bugloc/internal/locator"
	"github.com/randalmurphal/bugloc/internal/report"
	"github.com/randalmurphal/bugloc/internal/score"
)

var locateCmd = &cobra.Command{
	Use:   "locate [repo-path]",
	Short: "Rank the files of a commit against a bug report",
	Long: `Reads a bug report (markdown with fenced code blocks) from --report or
stdin, extracts the identifiers of its code blocks and ranks the files of
the chosen commit. Reports without code blocks are skipped. With
--distribution, every file's probability is listed before thresholding.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

var (
	locateReport  string
	locateCommit  string
	locateRefresh bool
	locateJSON    bool
	locateDist    bool
)

func init() {
	flags := locateCmd.Flags()
	flags.StringVar(&locateReport, "report", "-", "Bug report file ('-' for stdin)")
	flags.StringVar(&locateCommit, "commit", "HEAD", "Commit to score against")
	flags.BoolVar(&locateRefresh, "refresh", false, "Rebuild the index before scoring")
	flags.BoolVar(&locateJSON, "json", false, "Output as JSON")
	flags.BoolVar(&locateDist, "distribution", false, "Also list every file's probability")
	flags.Float64("document-threshold", 0.1, "Minimum probability for a file to be reported")
	flags.Float64("term-threshold", 0.05, "Minimum contribution for an identifier to explain a file")
	rootCmd.AddCommand(locateCmd)
}

// locatedFile is one line of locate output.
type locatedFile struct {
	File        string   `json:"file"`
	Module      string   `json:"module"`
	Probability float64  `json:"probability"`
	Identifiers []string `json:"identifiers"`
}

type locateOutput struct {
	Report       string            `json:"report"`
	Commit       string            `json:"commit"`
	Skipped      bool              `json:"skipped,omitempty"`
	IndexLoaded  bool              `json:"index_loaded"`
	Files        []locatedFile     `json:"files"`
	Distribution []score.FileScore `json:"distribution,omitempty"`
}

func runLocate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	repoPath, err := resolveRepoPath(ctx, args)
	if err != nil {
		return err
	}

	query, err := readReport(locateReport)
	if err != nil {
		return err
	}

	repoCfg, err := config.LoadRepoConfig(repoPath)
	if err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}

	commits, err := resolveCommits(ctx, repoPath, []string{locateCommit}, repoCfg)
	if err != nil {
		return err
	}
	commit := commits[0]

	out := locateOutput{Report: query.Source, Commit: commit, Files: []locatedFile{}}
	if !query.HasCode() {
		out.Skipped = true
		return printLocate(out)
	}

	// Index the configured commits together with the requested one so a
	// single cache entry serves all of them.
	indexed, err := resolveCommits(ctx, repoPath, nil, repoCfg)
	if err != nil {
		return err
	}
	indexed = append(indexed, commit)

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

	engine, err := locator.Open(ctx, ix, repoPath, indexed, locateRefresh, scoreOptions(cfg))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}
	engine.SetEvents(events)
	out.IndexLoaded = engine.BuildResult().Loaded

	matches, err := engine.Locate(ctx, query, commit)
	if err != nil {
		return err
	}

	resolver := indexer.NewModuleResolver()
	for _, m := range matches {
		module, _ := resolver.Resolve(m.File)
		out.Files = append(out.Files, locatedFile{
			File:        m.File,
			Module:      module,
			Probability: m.Probability,
			Identifiers: m.Identifiers,
		})
	}

	if locateDist {
		dist, err := engine.Distribution(ctx, query, commit)
		if err != nil {
			return err
		}
		sort.SliceStable(dist, func(i, j int) bool {
			if dist[i].Probability != dist[j].Probability {
				return dist[i].Probability > dist[j].Probability
			}
			return dist[i].File < dist[j].File
		})
		out.Distribution = dist
	}
	return printLocate(out)
}

func readReport(path string) (report.Query, error) {
	var data []byte
	var err error
	source := path

	if path == "" || path == "-" {
		source = "stdin"
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return report.Query{}, fmt.Errorf("failed to read report: %w", err)
	}
	return report.Parse(source, string(data)), nil
}

func printLocate(out locateOutput) error {
	if locateJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if out.Skipped {
		fmt.Printf("Report %s has no code blocks; skipped.\n", out.Report)
		return nil
	}
	source := "built"
	if out.IndexLoaded {
		source = "cached"
	}

	if len(out.Files) == 0 {
		fmt.Printf("No files matched at %s (%s index).\n", shortCommit(out.Commit), source)
	} else {
		fmt.Printf("Files matching %s at %s (%s index):\n\n", out.Report, shortCommit(out.Commit), source)
		for i, f := range out.Files {
			fmt.Printf("  %d. %s (%s)  p=%.3f\n", i+1, f.File, f.Module, f.Probability)
			if len(f.Identifiers) > 0 {
				fmt.Printf("     %s\n", strings.Join(f.Identifiers, ", "))
			}
		}
	}

	if len(out.Distribution) > 0 {
		fmt.Println("\nDistribution:")
		for _, fs := range out.Distribution {
			fmt.Printf("  %.4f  %s\n", fs.Probability, fs.File)
		}
	}
	return nil
}

func shortCommit(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
