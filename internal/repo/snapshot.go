package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrCheckout is returned when the working tree cannot be moved to a
// requested revision.
var ErrCheckout = errors.New("checkout failed")

// Snapshot is the single owner of a repository working tree. Every read of
// the tree at a revision goes through At, which holds the tree exclusively
// from checkout until the read returns.
type Snapshot struct {
	root   string
	vcs    VCS
	origin string
	logger *slog.Logger

	mu      sync.Mutex
	current string
}

// Open takes ownership of the working tree at root and records the revision
// checked out there so Restore can return to it.
func Open(ctx context.Context, root string, vcs VCS) (*Snapshot, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open repository: %s is not a directory", abs)
	}

	origin, err := vcs.Head(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", abs, err)
	}

	return &Snapshot{
		root:    abs,
		vcs:     vcs,
		origin:  origin,
		current: origin,
		logger:  slog.Default(),
	}, nil
}

// SetLogger replaces the snapshot's logger.
func (s *Snapshot) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Root returns the absolute path of the working tree.
func (s *Snapshot) Root() string {
	return s.root
}

// Origin returns the revision that was checked out when the snapshot was
// opened.
func (s *Snapshot) Origin() string {
	return s.origin
}

// At checks out commitID and calls fn with the tree root. No other checkout
// can happen until fn returns. A failed checkout wraps ErrCheckout and fn is
// not called.
func (s *Snapshot) At(ctx context.Context, commitID string, fn func(root string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkout(ctx, commitID); err != nil {
		return err
	}
	return fn(s.root)
}

// Restore returns the tree to the revision recorded by Open.
func (s *Snapshot) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == s.origin {
		return nil
	}
	return s.checkout(ctx, s.origin)
}

func (s *Snapshot) checkout(ctx context.Context, rev string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Debug("checking out", "repo", s.root, "rev", rev)
	if err := s.vcs.Checkout(ctx, s.root, rev); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCheckout, rev, err)
	}
	s.current = rev
	return nil
}
