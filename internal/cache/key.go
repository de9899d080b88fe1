// Package cache persists retrieval indexes keyed by repository path.
package cache

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Key returns the stable cache key for a repository: a name-based (v5) UUID
// of its absolute, cleaned path. The same path always yields the same key.
func Key(repoPath string) string {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		abs = filepath.Clean(repoPath)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs))).String()
}
