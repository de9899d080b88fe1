package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/bugloc/internal/cache"
	"github.com/randalmurphal/bugloc/internal/repo"
)

// fakeVCS rewrites a directory to hold a fixed file set per revision and
// records every checkout.
type fakeVCS struct {
	dir       string
	revisions map[string]map[string]string
	head      string
	checkouts []string
}

func newFakeVCS(t *testing.T, revisions map[string]map[string]string) *fakeVCS {
	t.Helper()
	f := &fakeVCS{dir: t.TempDir(), revisions: revisions, head: "main"}
	if _, ok := revisions["main"]; !ok {
		revisions["main"] = map[string]string{"main.py": "import os\n"}
	}
	require.NoError(t, f.write("main"))
	return f
}

func (f *fakeVCS) write(rev string) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(f.dir, e.Name())); err != nil {
			return err
		}
	}
	for rel, content := range f.revisions[rev] {
		path := filepath.Join(f.dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeVCS) Checkout(_ context.Context, _ string, rev string) error {
	if _, ok := f.revisions[rev]; !ok {
		return fmt.Errorf("unknown revision %s", rev)
	}
	f.checkouts = append(f.checkouts, rev)
	f.head = rev
	return f.write(rev)
}

func (f *fakeVCS) Head(context.Context, string) (string, error) {
	return f.head, nil
}

func (f *fakeVCS) Resolve(_ context.Context, _ string, rev string) (string, error) {
	if _, ok := f.revisions[rev]; !ok {
		return "", fmt.Errorf("unknown revision %s", rev)
	}
	return rev, nil
}

func newTestIndexer(t *testing.T, vcs repo.VCS, cacheDir string) *Indexer {
	t.Helper()
	store, err := cache.NewFileStore(cacheDir)
	require.NoError(t, err)
	c, err := cache.NewIndexCache(store, 0)
	require.NoError(t, err)

	ix, err := NewIndexer(c, vcs, Options{})
	require.NoError(t, err)
	return ix
}

func twoRevisions() map[string]map[string]string {
	return map[string]map[string]string{
		"c1": {
			"pkg/core.py": "from pkg.util import helper\n\ndef load(path):\n    return helper(path)\n",
			"pkg/util.py": "def helper(value):\n    return value\n",
		},
		"c2": {
			"pkg/core.py":   "from pkg.util import helper\n\ndef load(path):\n    return helper(path)\n",
			"pkg/util.py":   "def helper(value, strict):\n    return value\n",
			"pkg/new.py":    "import json\nresult = json.loads(data)\n",
			"pkg/broken.py": "def broken(:\n",
		},
	}
}

func TestBuildOrLoadBuildsEveryCommit(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	ix := newTestIndexer(t, vcs, t.TempDir())

	idx, result, err := ix.BuildOrLoad(context.Background(), vcs.dir, []string{"c1", "c2"}, false)
	require.NoError(t, err)
	require.NoError(t, idx.Validate())

	assert.False(t, result.Loaded)
	assert.Equal(t, 2, result.Commits)
	assert.Equal(t, 6, result.Files)
	assert.Equal(t, 1, result.ParseFailures)
	// core.py is byte-identical in both commits.
	assert.GreaterOrEqual(t, result.MemoHits, 1)

	c1, err := idx.Commit("c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/core.py", "pkg/util.py"}, c1.Files)

	c2, err := idx.Commit("c2")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/broken.py", "pkg/core.py", "pkg/new.py", "pkg/util.py"}, c2.Files)

	for _, term := range []string{"helper", "load", "path", "json", "loads", "strict", "pkg.util"} {
		_, ok := idx.Vocabulary.Column(term)
		assert.True(t, ok, term)
	}

	// The working tree is back where it started.
	assert.Equal(t, []string{"c1", "c2", "main"}, vcs.checkouts)
	_, err = os.Stat(filepath.Join(vcs.dir, "main.py"))
	assert.NoError(t, err)
}

func TestBuildOrLoadIsIdempotent(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	cacheDir := t.TempDir()
	ix := newTestIndexer(t, vcs, cacheDir)
	ctx := context.Background()

	first, _, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1", "c2"}, false)
	require.NoError(t, err)
	checkouts := len(vcs.checkouts)

	second, result, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c2", "c1"}, false)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.Len(t, vcs.checkouts, checkouts, "a cache hit must not touch the working tree")

	assert.Equal(t, first.Vocabulary.Terms(), second.Vocabulary.Terms())
	for id, c := range first.Commits {
		assert.Equal(t, c.Files, second.Commits[id].Files)
		assert.Equal(t, c.Matrix, second.Commits[id].Matrix)
		assert.Equal(t, c.IDF, second.Commits[id].IDF)
	}

	// A fresh process sharing the cache directory also loads.
	other := newTestIndexer(t, vcs, cacheDir)
	_, result, err = other.BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.Len(t, vcs.checkouts, checkouts)
}

func TestBuildOrLoadRefresh(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	ix := newTestIndexer(t, vcs, t.TempDir())
	ctx := context.Background()

	_, _, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)
	checkouts := len(vcs.checkouts)

	_, result, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1"}, true)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.Greater(t, len(vcs.checkouts), checkouts)
}

func TestBuildOrLoadRebuildsForUncoveredCommit(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	ix := newTestIndexer(t, vcs, t.TempDir())
	ctx := context.Background()

	_, _, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)

	idx, result, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1", "c2"}, false)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.True(t, idx.Covers([]string{"c1", "c2"}))
}

func TestBuildOrLoadCheckoutFailure(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	cacheDir := t.TempDir()
	ix := newTestIndexer(t, vcs, cacheDir)
	ctx := context.Background()

	_, _, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1", "missing"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrCheckout))

	// Nothing was cached and the tree was restored.
	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "main", vcs.checkouts[len(vcs.checkouts)-1])
}

func TestBuildOrLoadNoCommits(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	ix := newTestIndexer(t, vcs, t.TempDir())

	_, _, err := ix.BuildOrLoad(context.Background(), vcs.dir, nil, false)
	assert.Error(t, err)
	assert.Empty(t, vcs.checkouts)
}

func TestNamespaceBuilderRelativePaths(t *testing.T) {
	vcs := newFakeVCS(t, map[string]map[string]string{
		"c1": {
			"a/b/deep.py":           "class Deep:\n    def run(self):\n        return self.value\n",
			"top.py":                "x = 1\n",
			"a/__pycache__/skip.py": "skipped = True\n",
			"notes.txt":             "not python\n",
		},
	})
	snap, err := repo.Open(context.Background(), vcs.dir, vcs)
	require.NoError(t, err)

	b, err := NewNamespaceBuilder(NewWalker(nil, nil), 0)
	require.NoError(t, err)

	ns, stats, err := b.Build(context.Background(), snap, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, []string{"a/b/deep.py", "top.py"}, ns.Files())
	assert.ElementsMatch(t, []string{"Deep", "run", "self", "value", "self"}, ns["a/b/deep.py"])
	assert.Equal(t, []string{"x"}, []string(ns["top.py"]))
}

func TestNamespaceBuilderSkipsNonPython(t *testing.T) {
	vcs := newFakeVCS(t, map[string]map[string]string{
		"c1": {
			"pkg/mod.py":  "import os\n",
			"pkg/api.pyi": "def get(): ...\n",
			"README.md":   "# readme\n",
		},
	})
	snap, err := repo.Open(context.Background(), vcs.dir, vcs)
	require.NoError(t, err)

	b, err := NewNamespaceBuilder(NewWalker([]string{"**/*"}, nil), 0)
	require.NoError(t, err)

	ns, stats, err := b.Build(context.Background(), snap, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, []string{"pkg/api.pyi", "pkg/mod.py"}, ns.Files())
}

func TestBuildOrLoadRebuildsCorruptEntry(t *testing.T) {
	vcs := newFakeVCS(t, twoRevisions())
	cacheDir := t.TempDir()
	ctx := context.Background()

	_, _, err := newTestIndexer(t, vcs, cacheDir).BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)
	checkouts := len(vcs.checkouts)

	entry := filepath.Join(cacheDir, cache.Key(vcs.dir)+".idx")
	require.NoError(t, os.WriteFile(entry, []byte("not an index"), 0644))

	ix := newTestIndexer(t, vcs, cacheDir)
	idx, result, err := ix.BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.Greater(t, len(vcs.checkouts), checkouts)
	assert.True(t, idx.Covers([]string{"c1"}))

	// The rebuild replaced the corrupt entry.
	_, result, err = newTestIndexer(t, vcs, cacheDir).BuildOrLoad(ctx, vcs.dir, []string{"c1"}, false)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
}

// stuckVCS checks out any revision except the one the tree started at.
type stuckVCS struct {
	*fakeVCS
}

func (s *stuckVCS) Checkout(ctx context.Context, dir string, rev string) error {
	if rev == "main" {
		return errors.New("local changes would be overwritten")
	}
	return s.fakeVCS.Checkout(ctx, dir, rev)
}

func TestBuildOrLoadRestoreFailure(t *testing.T) {
	vcs := &stuckVCS{newFakeVCS(t, twoRevisions())}
	cacheDir := t.TempDir()
	ix := newTestIndexer(t, vcs, cacheDir)

	_, _, err := ix.BuildOrLoad(context.Background(), vcs.dir, []string{"c1"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrCheckout))
	assert.Contains(t, err.Error(), "restore main")

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []string{"c1"}, vcs.checkouts)
}
