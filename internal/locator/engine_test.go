package locator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/bugloc/internal/cache"
	"github.com/randalmurphal/bugloc/internal/index"
	"github.com/randalmurphal/bugloc/internal/indexer"
	"github.com/randalmurphal/bugloc/internal/metrics"
	"github.com/randalmurphal/bugloc/internal/report"
	"github.com/randalmurphal/bugloc/internal/score"
)

// treeVCS serves a fixed file set per revision from one directory.
type treeVCS struct {
	dir       string
	revisions map[string]map[string]string
	head      string
}

func newTreeVCS(t *testing.T, revisions map[string]map[string]string) *treeVCS {
	t.Helper()
	revisions["main"] = map[string]string{}
	return &treeVCS{dir: t.TempDir(), revisions: revisions, head: "main"}
}

func (v *treeVCS) Checkout(_ context.Context, _ string, rev string) error {
	files, ok := v.revisions[rev]
	if !ok {
		return fmt.Errorf("unknown revision %s", rev)
	}
	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(v.dir, e.Name())); err != nil {
			return err
		}
	}
	for rel, content := range files {
		path := filepath.Join(v.dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	v.head = rev
	return nil
}

func (v *treeVCS) Head(context.Context, string) (string, error) { return v.head, nil }

func (v *treeVCS) Resolve(_ context.Context, _ string, rev string) (string, error) {
	return rev, nil
}

func openEngine(t *testing.T, revisions map[string]map[string]string, commits ...string) *Engine {
	t.Helper()
	vcs := newTreeVCS(t, revisions)

	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	c, err := cache.NewIndexCache(store, 2)
	require.NoError(t, err)

	ix, err := indexer.NewIndexer(c, vcs, indexer.Options{})
	require.NoError(t, err)

	e, err := Open(context.Background(), ix, vcs.dir, commits, false, score.DefaultOptions())
	require.NoError(t, err)
	return e
}

func TestLocateImportScenario(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"c1": {"mod.py": "import alpha\n"},
	}, "c1")

	q := report.Parse("issue", "It breaks:\n```python\nimport alpha\n```\n")
	matches, err := e.Locate(context.Background(), q, "c1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "mod.py", matches[0].File)
	assert.Contains(t, matches[0].Identifiers, "alpha")
	assert.InDelta(t, 1.0, matches[0].Probability, 1e-9)
}

func TestLocateUnparseableFragment(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"c1": {"a.py": "import foo\n", "b.py": "bar = 1\n"},
		"c2": {"a.py": "import foo\n", "c.py": "baz = foo\n"},
	}, "c1", "c2")

	q := report.Parse("issue", "```\nfoo(bar\n```\n")
	require.True(t, q.HasCode())

	for _, commit := range []string{"c1", "c2"} {
		matches, err := e.Locate(context.Background(), q, commit)
		require.NoError(t, err)
		assert.Empty(t, matches)
	}
}

func TestLocateIDFScenario(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"a": {
			"a1.py": "foo = x1\n",
			"a2.py": "foo = x2\n",
			"a3.py": "foo = x3\n",
		},
		"b": {
			"b1.py": "foo = y1\n",
			"b2.py": "y2 = 0\n",
			"b3.py": "y3 = 0\n",
		},
	}, "a", "b")

	q := report.Parse("issue", "```python\nfoo\n```\n")

	peak := func(commit string) (string, float64) {
		dist, err := e.Distribution(context.Background(), q, commit)
		require.NoError(t, err)
		var best score.FileScore
		for _, fs := range dist {
			if fs.Probability > best.Probability {
				best = fs
			}
		}
		return best.File, best.Probability
	}

	_, pa := peak("a")
	fb, pb := peak("b")
	assert.Equal(t, "b1.py", fb)
	assert.Greater(t, pb, pa)
}

func TestLocateUnknownCommit(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"c1": {"mod.py": "import alpha\n"},
	}, "c1")

	_, err := e.Locate(context.Background(), report.Parse("issue", "```\nimport alpha\n```\n"), "c9")
	require.Error(t, err)
	assert.True(t, errors.Is(err, index.ErrUnknownCommit))
}

func TestLocateWithoutCode(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"c1": {"mod.py": "import alpha\n"},
	}, "c1")

	matches, err := e.Locate(context.Background(), report.Parse("issue", "alpha is broken"), "c1")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLocateLogsEvents(t *testing.T) {
	e := openEngine(t, map[string]map[string]string{
		"c1": {"mod.py": "import alpha\n", "other.py": "beta = 1\n"},
	}, "c1")
	assert.False(t, e.BuildResult().Loaded)

	logPath := filepath.Join(t.TempDir(), "metrics.jsonl")
	events, err := metrics.NewLogger(logPath)
	require.NoError(t, err)
	defer events.Close()
	e.SetEvents(events)

	_, err = e.Locate(context.Background(), report.Parse("issue-7", "```\nimport alpha\n```\n"), "c1")
	require.NoError(t, err)
	_, err = e.Locate(context.Background(), report.Parse("issue-8", "```\nimport alpha\n```\n"), "missing")
	require.Error(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"event":"locate"`)
	assert.Contains(t, lines[0], `"report":"issue-7"`)
	assert.Contains(t, lines[0], `"top_file":"mod.py"`)
	assert.Contains(t, lines[1], `"event":"error"`)
}

func TestNewOverExistingIndex(t *testing.T) {
	idx := index.Build("/repo", map[string]index.CommitNamespace{
		"c1": {"x.py": {"alpha"}, "y.py": {"beta"}},
	})
	e := New(idx, score.DefaultOptions())
	assert.Nil(t, e.BuildResult())

	matches, err := e.Locate(context.Background(), report.Parse("q", "```\nbeta.run()\n```\n"), "c1")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "y.py", matches[0].File)
}
