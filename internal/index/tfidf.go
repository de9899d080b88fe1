package index

import (
	"fmt"
	"math"
)

// Matrix is a dense row-major matrix of float64 values.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrix allocates a zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

func (m *Matrix) validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("negative matrix shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("matrix data length %d does not match shape %dx%d", len(m.Data), m.Rows, m.Cols)
	}
	return nil
}

// CountMatrix builds the raw term-count matrix of ns over vocab. Rows follow
// files, which must be the sorted file list of ns.
func CountMatrix(ns CommitNamespace, files []string, vocab *Vocabulary) *Matrix {
	m := NewMatrix(len(files), vocab.Len())
	for i, file := range files {
		row := m.Row(i)
		for _, name := range ns[file] {
			if j, ok := vocab.Column(name); ok {
				row[j]++
			}
		}
	}
	return m
}

// FitIDF computes smoothed inverse document frequencies over the rows of
// counts, treating each row as one document:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//
// Terms absent from every document still get a finite weight.
func FitIDF(counts *Matrix) []float64 {
	df := make([]float64, counts.Cols)
	for i := 0; i < counts.Rows; i++ {
		for j, c := range counts.Row(i) {
			if c > 0 {
				df[j]++
			}
		}
	}

	n := float64(counts.Rows)
	idf := make([]float64, counts.Cols)
	for j := range idf {
		idf[j] = math.Log((1+n)/(1+df[j])) + 1
	}
	return idf
}

// Weigh turns a raw count vector into an L2-normalised TF-IDF vector using
// previously fitted idf. A zero vector stays zero.
func Weigh(counts, idf []float64) []float64 {
	weights := make([]float64, len(counts))
	var norm float64
	for j, c := range counts {
		if c == 0 {
			continue
		}
		w := c * idf[j]
		weights[j] = w
		norm += w * w
	}
	if norm == 0 {
		return weights
	}
	norm = math.Sqrt(norm)
	for j := range weights {
		weights[j] /= norm
	}
	return weights
}

// TransformMatrix applies Weigh to every row of counts.
func TransformMatrix(counts *Matrix, idf []float64) *Matrix {
	m := NewMatrix(counts.Rows, counts.Cols)
	for i := 0; i < counts.Rows; i++ {
		copy(m.Row(i), Weigh(counts.Row(i), idf))
	}
	return m
}
