// Package score ranks the files of one indexed commit against the code
// fragments of a bug report.
package score

import (
	"context"
	"math"
	"sort"

	"github.com/randalmurphal/bugloc/internal/index"
	"github.com/randalmurphal/bugloc/internal/parser"
	"github.com/randalmurphal/bugloc/internal/report"
)

// Default thresholds.
const (
	DefaultDocumentThreshold = 0.1
	DefaultTermThreshold     = 0.05
)

// Options control result selection.
type Options struct {
	// DocumentThreshold is the probability a file must exceed to be returned.
	DocumentThreshold float64 `json:"document_threshold"`
	// TermThreshold is the contribution a term must exceed to explain a file.
	TermThreshold float64 `json:"term_threshold"`
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{
		DocumentThreshold: DefaultDocumentThreshold,
		TermThreshold:     DefaultTermThreshold,
	}
}

// Match is one selected file with the identifiers that drove the match,
// strongest first.
type Match struct {
	File        string   `json:"file"`
	Probability float64  `json:"probability"`
	Identifiers []string `json:"identifiers"`
}

// FileScore is one file's share of the probability distribution.
type FileScore struct {
	File        string  `json:"file"`
	Probability float64 `json:"probability"`
}

// Scorer scores queries against an index. It only reads the index.
type Scorer struct {
	idx  *index.Index
	opts Options
}

// NewScorer creates a scorer over idx.
func NewScorer(idx *index.Index, opts Options) *Scorer {
	return &Scorer{idx: idx, opts: opts}
}

// QueryIdentifiers extracts identifiers from every fragment regardless of its
// language tag. Fragments that fail to parse contribute nothing.
func QueryIdentifiers(ctx context.Context, fragments []report.Fragment) []string {
	p := parser.NewParser()
	var names []string
	for _, f := range fragments {
		names = append(names, p.Identifiers(ctx, []byte(f.Code))...)
	}
	return names
}

// ranking holds the per-file probabilities and per-term contributions of one
// query against one commit.
type ranking struct {
	commit        *index.CommitIndex
	probabilities []float64
	contributions *index.Matrix
}

func (s *Scorer) rank(ctx context.Context, fragments []report.Fragment, commitID string) (*ranking, error) {
	commit, err := s.idx.Commit(commitID)
	if err != nil {
		return nil, err
	}

	names := QueryIdentifiers(ctx, fragments)
	if len(names) == 0 || len(commit.Files) == 0 {
		return nil, nil
	}

	// The query is weighted with the commit's fitted IDF; it never refits.
	query := index.Weigh(s.idx.Vocabulary.Counts(names), commit.IDF)

	n := commit.Matrix.Rows
	contributions := index.NewMatrix(n, commit.Matrix.Cols)
	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		row := commit.Matrix.Row(i)
		out := contributions.Row(i)
		var sum float64
		for j, q := range query {
			if q == 0 {
				continue
			}
			out[j] = row[j] * q
			sum += out[j]
		}
		// Scaling by the file count keeps concentrated matches from being
		// flattened by the softmax in large repositories.
		raw[i] = sum * float64(n)
	}

	return &ranking{
		commit:        commit,
		probabilities: softmax(raw),
		contributions: contributions,
	}, nil
}

// Distribution returns every file of the commit with its probability before
// thresholding. The probabilities sum to 1 for any query with identifiers; a
// query without identifiers yields nil.
func (s *Scorer) Distribution(ctx context.Context, fragments []report.Fragment, commitID string) ([]FileScore, error) {
	r, err := s.rank(ctx, fragments, commitID)
	if err != nil || r == nil {
		return nil, err
	}

	scores := make([]FileScore, len(r.commit.Files))
	for i, file := range r.commit.Files {
		scores[i] = FileScore{File: file, Probability: r.probabilities[i]}
	}
	return scores, nil
}

// Score returns the files of commitID whose probability exceeds the document
// threshold, most probable first, each with the terms whose contribution
// exceeds the term threshold. A query with no usable identifiers, or one that
// shares no term with the commit, yields an empty result. A commit that was
// never indexed yields index.ErrUnknownCommit.
func (s *Scorer) Score(ctx context.Context, fragments []report.Fragment, commitID string) ([]Match, error) {
	r, err := s.rank(ctx, fragments, commitID)
	if err != nil || r == nil {
		return nil, err
	}
	if allZero(r.contributions.Data) {
		return nil, nil
	}

	var matches []Match
	for i, file := range r.commit.Files {
		p := r.probabilities[i]
		if p <= s.opts.DocumentThreshold {
			continue
		}
		matches = append(matches, Match{
			File:        file,
			Probability: p,
			Identifiers: s.explain(r.contributions.Row(i)),
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Probability != matches[b].Probability {
			return matches[a].Probability > matches[b].Probability
		}
		return matches[a].File < matches[b].File
	})
	return matches, nil
}

func (s *Scorer) explain(contributions []float64) []string {
	type term struct {
		name  string
		value float64
	}
	var terms []term
	for j, c := range contributions {
		if c > s.opts.TermThreshold {
			terms = append(terms, term{name: s.idx.Vocabulary.Term(j), value: c})
		}
	}
	sort.SliceStable(terms, func(a, b int) bool {
		if terms[a].value != terms[b].value {
			return terms[a].value > terms[b].value
		}
		return terms[a].name < terms[b].name
	})

	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.name
	}
	return names
}

// softmax is numerically stable: the maximum is subtracted before
// exponentiating.
func softmax(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	peak := xs[0]
	for _, x := range xs[1:] {
		if x > peak {
			peak = x
		}
	}

	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - peak)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func allZero(xs []float64) bool {
	for _, x := range xs {
		if x != 0 {
			return false
		}
	}
	return true
}
