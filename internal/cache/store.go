package cache

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/randalmurphal/bugloc/internal/index"
)

// BlobStore is a key/value store for encoded indexes.
type BlobStore interface {
	// Get returns the bytes stored under key. ok is false when the key is
	// absent.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// IndexCache stores retrieval indexes per repository in a BlobStore, with an
// in-process LRU in front of it.
type IndexCache struct {
	store  BlobStore
	memory *lru.Cache[string, *index.Index]
	logger *slog.Logger
}

// NewIndexCache wraps store. memoryEntries bounds the in-process layer;
// zero disables it.
func NewIndexCache(store BlobStore, memoryEntries int) (*IndexCache, error) {
	c := &IndexCache{store: store, logger: slog.Default()}
	if memoryEntries > 0 {
		memory, err := lru.New[string, *index.Index](memoryEntries)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		c.memory = memory
	}
	return c, nil
}

// SetLogger replaces the cache's logger.
func (c *IndexCache) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

// Get returns the cached index for repoPath. An entry that cannot be read or
// decoded is reported as a miss and logged; it never fails the caller.
func (c *IndexCache) Get(ctx context.Context, repoPath string) (*index.Index, bool) {
	key := Key(repoPath)
	if c.memory != nil {
		if idx, ok := c.memory.Get(key); ok {
			return idx, true
		}
	}

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "repo", repoPath, "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	idx, err := Decode(data)
	if err != nil {
		c.logger.Warn("discarding unreadable cache entry", "repo", repoPath, "key", key, "error", err)
		return nil, false
	}

	if c.memory != nil {
		c.memory.Add(key, idx)
	}
	return idx, true
}

// Put stores idx as the entry for repoPath, replacing any previous entry.
func (c *IndexCache) Put(ctx context.Context, repoPath string, idx *index.Index) error {
	key := Key(repoPath)
	data, err := Encode(idx)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store index for %s: %w", repoPath, err)
	}
	if c.memory != nil {
		c.memory.Add(key, idx)
	}
	c.logger.Debug("index cached", "repo", repoPath, "key", key, "bytes", len(data))
	return nil
}

// Invalidate removes the entry for repoPath.
func (c *IndexCache) Invalidate(ctx context.Context, repoPath string) error {
	key := Key(repoPath)
	if c.memory != nil {
		c.memory.Remove(key)
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete index for %s: %w", repoPath, err)
	}
	return nil
}

// Close closes the underlying store.
func (c *IndexCache) Close() error {
	return c.store.Close()
}
