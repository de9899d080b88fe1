// Package indexer builds per-commit identifier namespaces from a repository
// and turns them into a cached retrieval index.
package indexer

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes selects the source files identifiers are extracted from.
var DefaultIncludes = []string{"**/*.py"}

// DefaultExcludes skips directories that never hold project sources.
var DefaultExcludes = []string{
	"**/.git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	"**/node_modules/**",
	"**/venv/**",
	"**/.venv/**",
	"**/.tox/**",
	"**/.eggs/**",
	"**/*.egg-info/**",
	"**/site-packages/**",
	"**/dist/**",
	"**/build/**",
	"**/.idea/**",
	"**/.vscode/**",
}

// Walker traverses directories respecting include/exclude patterns.
type Walker struct {
	includes []string
	excludes []string
}

// NewWalker creates a new file walker with the given include and exclude patterns.
// If no includes are specified, DefaultIncludes is used. DefaultExcludes always apply.
func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}

	all := make([]string, 0, len(DefaultExcludes)+len(excludes))
	all = append(all, DefaultExcludes...)
	all = append(all, excludes...)

	return &Walker{
		includes: includes,
		excludes: all,
	}
}

// Walk traverses the directory tree rooted at root in lexical order, calling
// fn with the absolute path and the slash-separated path relative to root of
// each file that matches the include patterns and none of the excludes.
func (w *Walker) Walk(root string, fn func(path, rel string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		// Normalize to forward slashes for pattern matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.shouldExcludeDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		if w.isExcluded(relPath) {
			return nil
		}

		if w.isIncluded(relPath) {
			return fn(path, relPath)
		}

		return nil
	})
}

func (w *Walker) shouldExcludeDir(relPath string) bool {
	// "**/.git/**" should match the ".git" directory itself
	dirPath := relPath + "/"
	for _, pattern := range w.excludes {
		if matched, _ := doublestar.Match(pattern, dirPath); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}

func (w *Walker) isExcluded(relPath string) bool {
	return matchAny(w.excludes, relPath)
}

func (w *Walker) isIncluded(relPath string) bool {
	return matchAny(w.includes, relPath)
}

func matchAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
