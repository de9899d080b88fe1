package index

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownCommit is returned when a commit was never indexed.
var ErrUnknownCommit = errors.New("commit not indexed")

// CommitIndex is one commit's slice of the index: the sorted file list, the
// IDF weights fitted over that commit's files, and the weighted document
// matrix (files x vocabulary).
type CommitIndex struct {
	Files  []string  `json:"files"`
	IDF    []float64 `json:"idf"`
	Matrix *Matrix   `json:"matrix"`
}

// Index is the per-repository retrieval index.
type Index struct {
	RepoPath   string                  `json:"repo_path"`
	BuiltAt    time.Time               `json:"built_at"`
	Vocabulary *Vocabulary             `json:"vocabulary"`
	Commits    map[string]*CommitIndex `json:"commits"`
}

// Build weights the namespaces of every commit into an Index. The
// vocabulary is shared across commits; IDF is fitted per commit, so a term's
// weight in one commit never depends on another commit's files.
func Build(repoPath string, namespaces map[string]CommitNamespace) *Index {
	vocab := NewVocabulary(namespaces)

	idx := &Index{
		RepoPath:   repoPath,
		BuiltAt:    time.Now().UTC(),
		Vocabulary: vocab,
		Commits:    make(map[string]*CommitIndex, len(namespaces)),
	}

	for commitID, ns := range namespaces {
		files := ns.Files()
		counts := CountMatrix(ns, files, vocab)
		idf := FitIDF(counts)
		idx.Commits[commitID] = &CommitIndex{
			Files:  files,
			IDF:    idf,
			Matrix: TransformMatrix(counts, idf),
		}
	}

	return idx
}

// Commit returns the slice of the index for commitID.
func (idx *Index) Commit(commitID string) (*CommitIndex, error) {
	c, ok := idx.Commits[commitID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommit, commitID)
	}
	return c, nil
}

// CommitIDs returns the indexed commit ids in sorted order.
func (idx *Index) CommitIDs() []string {
	ids := make([]string, 0, len(idx.Commits))
	for id := range idx.Commits {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Covers reports whether every id in commitIDs is indexed.
func (idx *Index) Covers(commitIDs []string) bool {
	for _, id := range commitIDs {
		if _, ok := idx.Commits[id]; !ok {
			return false
		}
	}
	return true
}

// Validate checks the shape invariants of the index: every matrix has one
// row per file and one column per vocabulary term.
func (idx *Index) Validate() error {
	if idx.Vocabulary == nil {
		return errors.New("index has no vocabulary")
	}
	if err := idx.Vocabulary.validate(); err != nil {
		return err
	}

	cols := idx.Vocabulary.Len()
	for id, c := range idx.Commits {
		if c == nil || c.Matrix == nil {
			return fmt.Errorf("commit %s: missing matrix", id)
		}
		if err := c.Matrix.validate(); err != nil {
			return fmt.Errorf("commit %s: %w", id, err)
		}
		if c.Matrix.Rows != len(c.Files) {
			return fmt.Errorf("commit %s: %d rows for %d files", id, c.Matrix.Rows, len(c.Files))
		}
		if c.Matrix.Cols != cols {
			return fmt.Errorf("commit %s: %d columns for %d terms", id, c.Matrix.Cols, cols)
		}
		if len(c.IDF) != cols {
			return fmt.Errorf("commit %s: %d idf weights for %d terms", id, len(c.IDF), cols)
		}
		if !sort.StringsAreSorted(c.Files) {
			return fmt.Errorf("commit %s: files not sorted", id)
		}
	}
	return nil
}
