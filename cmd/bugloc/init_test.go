package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/bugloc/internal/config"
	"github.com/randalmurphal/bugloc/internal/indexer"
)

func TestInitIncludesEveryPythonFile(t *testing.T) {
	repoPath := t.TempDir()
	for _, rel := range []string{"pkg/__init__.py", "pkg/a.py", "main.py", "tests/test_a.py"} {
		path := filepath.Join(repoPath, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0644))
	}

	require.NoError(t, runInit(initCmd, []string{repoPath}))

	repoCfg, err := config.LoadRepoConfig(repoPath)
	require.NoError(t, err)
	assert.Equal(t, indexer.DefaultIncludes, repoCfg.Include)

	var walked []string
	w := indexer.NewWalker(repoCfg.Include, repoCfg.Exclude)
	require.NoError(t, w.Walk(repoPath, func(_, rel string) error {
		walked = append(walked, rel)
		return nil
	}))
	assert.ElementsMatch(t, []string{"main.py", "pkg/__init__.py", "pkg/a.py", "tests/test_a.py"}, walked)
}

func TestInitKeepsExistingConfig(t *testing.T) {
	repoPath := t.TempDir()
	existing := &config.RepoConfig{Name: "custom", Include: []string{"src/**/*.py"}}
	require.NoError(t, config.SaveRepoConfig(repoPath, existing))

	require.NoError(t, runInit(initCmd, []string{repoPath}))

	repoCfg, err := config.LoadRepoConfig(repoPath)
	require.NoError(t, err)
	assert.Equal(t, "custom", repoCfg.Name)
	assert.Equal(t, []string{"src/**/*.py"}, repoCfg.Include)
}
