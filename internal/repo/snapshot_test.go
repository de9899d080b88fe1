package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVCS struct {
	head      string
	checkouts []string
	fail      map[string]bool
}

func (f *fakeVCS) Checkout(_ context.Context, _ string, rev string) error {
	if f.fail[rev] {
		return errors.New("bad revision")
	}
	f.checkouts = append(f.checkouts, rev)
	return nil
}

func (f *fakeVCS) Head(context.Context, string) (string, error) {
	return f.head, nil
}

func (f *fakeVCS) Resolve(_ context.Context, _ string, rev string) (string, error) {
	return rev, nil
}

func TestSnapshotAt(t *testing.T) {
	dir := t.TempDir()
	vcs := &fakeVCS{head: "main"}

	snap, err := Open(context.Background(), dir, vcs)
	require.NoError(t, err)
	assert.Equal(t, "main", snap.Origin())

	var seen string
	err = snap.At(context.Background(), "abc", func(root string) error {
		seen = root
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, snap.Root(), seen)
	assert.Equal(t, []string{"abc"}, vcs.checkouts)

	require.NoError(t, snap.Restore(context.Background()))
	assert.Equal(t, []string{"abc", "main"}, vcs.checkouts)
}

func TestSnapshotCheckoutFailure(t *testing.T) {
	vcs := &fakeVCS{head: "main", fail: map[string]bool{"bad": true}}
	snap, err := Open(context.Background(), t.TempDir(), vcs)
	require.NoError(t, err)

	called := false
	err = snap.At(context.Background(), "bad", func(string) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCheckout))
	assert.False(t, called)

	// Nothing was checked out, so restoring is a no-op.
	require.NoError(t, snap.Restore(context.Background()))
	assert.Empty(t, vcs.checkouts)
}

func TestSnapshotPropagatesReadError(t *testing.T) {
	snap, err := Open(context.Background(), t.TempDir(), &fakeVCS{head: "main"})
	require.NoError(t, err)

	readErr := errors.New("read failed")
	err = snap.At(context.Background(), "abc", func(string) error { return readErr })
	assert.ErrorIs(t, err, readErr)
}

func TestSnapshotCanceledContext(t *testing.T) {
	vcs := &fakeVCS{head: "main"}
	snap, err := Open(context.Background(), t.TempDir(), vcs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = snap.At(ctx, "abc", func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, vcs.checkouts)
}

func TestOpenMissingDirectory(t *testing.T) {
	_, err := Open(context.Background(), "/does/not/exist", &fakeVCS{})
	assert.Error(t, err)
}
