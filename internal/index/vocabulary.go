// Package index builds the commit-scoped TF-IDF retrieval index from per-file
// identifier multisets.
package index

import (
	"encoding/json"
	"fmt"
	"sort"
)

// FileNamespace is the identifier multiset of one file at one commit.
// Multiplicity matters; order does not.
type FileNamespace []string

// CommitNamespace maps slash-separated repository-relative file paths to
// their identifier multisets for one commit.
type CommitNamespace map[string]FileNamespace

// Files returns the file paths of ns in sorted order.
func (ns CommitNamespace) Files() []string {
	files := make([]string, 0, len(ns))
	for f := range ns {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Vocabulary is a deduplicated, lexicographically sorted term list. Column j
// of every matrix in an index refers to Terms()[j].
type Vocabulary struct {
	terms []string
	pos   map[string]int
}

// NewVocabulary builds a vocabulary from scratch over every identifier of
// every file of every commit.
func NewVocabulary(namespaces map[string]CommitNamespace) *Vocabulary {
	seen := make(map[string]struct{})
	for _, ns := range namespaces {
		for _, names := range ns {
			for _, name := range names {
				seen[name] = struct{}{}
			}
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return newVocabulary(terms)
}

func newVocabulary(terms []string) *Vocabulary {
	pos := make(map[string]int, len(terms))
	for i, term := range terms {
		pos[term] = i
	}
	return &Vocabulary{terms: terms, pos: pos}
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// Terms returns the sorted terms. The slice must not be modified.
func (v *Vocabulary) Terms() []string {
	return v.terms
}

// Term returns the term at column j.
func (v *Vocabulary) Term(j int) string {
	return v.terms[j]
}

// Column returns the column of term.
func (v *Vocabulary) Column(term string) (int, bool) {
	j, ok := v.pos[term]
	return j, ok
}

// Counts returns the raw count vector of names over the vocabulary. Names
// outside the vocabulary are ignored.
func (v *Vocabulary) Counts(names []string) []float64 {
	counts := make([]float64, len(v.terms))
	for _, name := range names {
		if j, ok := v.pos[name]; ok {
			counts[j]++
		}
	}
	return counts
}

func (v *Vocabulary) validate() error {
	for i := 1; i < len(v.terms); i++ {
		if v.terms[i-1] >= v.terms[i] {
			return fmt.Errorf("vocabulary not strictly sorted at %d", i)
		}
	}
	return nil
}

// MarshalJSON encodes the vocabulary as its sorted term list.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	if v.terms == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v.terms)
}

// UnmarshalJSON decodes a sorted term list and rebuilds the column lookup.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		return err
	}
	*v = *newVocabulary(terms)
	return nil
}
