// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
	"github.com/cineai/cineai/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// RatingMatrix is a dense user-item rating matrix with a presence mask.
// Unobserved cells read as zero and are never confused with ratings.
type RatingMatrix struct {
	rows, cols int
	values     []float64
	mask       []*bitset.BitSet
	observed   [][]int
}

// NewRatingMatrix creates a matrix with every cell unobserved.
func NewRatingMatrix(rows, cols int) *RatingMatrix {
	m := &RatingMatrix{
		rows:     rows,
		cols:     cols,
		values:   make([]float64, rows*cols),
		mask:     make([]*bitset.BitSet, rows),
		observed: make([][]int, rows),
	}
	for i := range m.mask {
		m.mask[i] = bitset.New(uint(cols))
	}
	return m
}

// NewRatingMatrixFromDense creates a matrix from rows of values where observed
// tells which cells hold ratings.
func NewRatingMatrixFromDense(values [][]float64, observed func(row, col int) bool) *RatingMatrix {
	cols := 0
	if len(values) > 0 {
		cols = len(values[0])
	}
	m := NewRatingMatrix(len(values), cols)
	for i, row := range values {
		for j, v := range row {
			if observed(i, j) {
				m.Set(i, j, v)
			}
		}
	}
	return m
}

func (m *RatingMatrix) Dims() (int, int) {
	return m.rows, m.cols
}

// Set stores an observed rating. Setting an observed cell again replaces its
// rating.
func (m *RatingMatrix) Set(row, col int, value float64) {
	if !m.mask[row].Test(uint(col)) {
		m.mask[row].Set(uint(col))
		cols := m.observed[row]
		pos := sort.SearchInts(cols, col)
		cols = append(cols, 0)
		copy(cols[pos+1:], cols[pos:])
		cols[pos] = col
		m.observed[row] = cols
	}
	m.values[row*m.cols+col] = value
}

// At returns the rating of a cell, or zero if it is unobserved.
func (m *RatingMatrix) At(row, col int) float64 {
	return m.values[row*m.cols+col]
}

// Observed reports whether a cell holds a rating.
func (m *RatingMatrix) Observed(row, col int) bool {
	return m.mask[row].Test(uint(col))
}

// Get returns the rating of a cell and whether it is observed.
func (m *RatingMatrix) Get(row, col int) (float64, bool) {
	if !m.Observed(row, col) {
		return 0, false
	}
	return m.At(row, col), true
}

// ObservedCols returns the observed column indices of a row in ascending order.
// The returned slice must not be modified.
func (m *RatingMatrix) ObservedCols(row int) []int {
	return m.observed[row]
}

// Count returns the number of observed cells.
func (m *RatingMatrix) Count() int {
	count := 0
	for _, mask := range m.mask {
		count += int(mask.Count())
	}
	return count
}

// RowMean returns the mean of observed ratings in a row.
func (m *RatingMatrix) RowMean(row int) (float64, bool) {
	cols := m.ObservedCols(row)
	if len(cols) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, j := range cols {
		sum += m.At(row, j)
	}
	return sum / float64(len(cols)), true
}

// GlobalMean returns the mean of all observed ratings.
func (m *RatingMatrix) GlobalMean() (float64, bool) {
	sum, count := 0.0, 0
	for i := 0; i < m.rows; i++ {
		for _, j := range m.ObservedCols(i) {
			sum += m.At(i, j)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// RowMeans returns the mean of each row. Rows without ratings get the global
// mean, or zero if the matrix has no ratings at all.
func (m *RatingMatrix) RowMeans() []float64 {
	globalMean, _ := m.GlobalMean()
	means := make([]float64, m.rows)
	for i := range means {
		if mean, ok := m.RowMean(i); ok {
			means[i] = mean
		} else {
			means[i] = globalMean
		}
	}
	return means
}

// T returns the transposed matrix.
func (m *RatingMatrix) T() *RatingMatrix {
	t := NewRatingMatrix(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for _, j := range m.ObservedCols(i) {
			t.Set(j, i, m.At(i, j))
		}
	}
	return t
}

// vector returns the observed entries of a row.
func (m *RatingMatrix) vector(row int) *SparseVector {
	cols := m.ObservedCols(row)
	values := make([]float64, len(cols))
	for k, j := range cols {
		values[k] = m.At(row, j)
	}
	return &SparseVector{Indices: cols, Values: values}
}

// TrainMatrix is a rating matrix bundled with the index maps it was built
// with. Row i belongs to UserIndex id i and column j to ItemIndex id j.
type TrainMatrix struct {
	*RatingMatrix
	UserIndex *dataset.Index
	ItemIndex *dataset.Index
}

// BuildMatrix builds the user-item matrix of the training ratings. Users and
// items are indexed in ascending id order. If a user rated an item more than
// once the last rating is kept.
func BuildMatrix(ratings []dataset.Rating) (*TrainMatrix, error) {
	if len(ratings) == 0 {
		return nil, errors.NotValidf("empty training ratings")
	}
	userIds := make([]int, len(ratings))
	itemIds := make([]int, len(ratings))
	for i, rating := range ratings {
		userIds[i], itemIds[i] = rating.UserId, rating.ItemId
	}
	train := &TrainMatrix{
		UserIndex: dataset.NewIndex(userIds),
		ItemIndex: dataset.NewIndex(itemIds),
	}
	train.RatingMatrix = NewRatingMatrix(train.UserIndex.Len(), train.ItemIndex.Len())
	for _, rating := range ratings {
		row, _ := train.UserIndex.ToIndex(rating.UserId)
		col, _ := train.ItemIndex.ToIndex(rating.ItemId)
		train.Set(row, col, rating.Rating)
	}
	return train, nil
}

// Predictions is a dense matrix of predicted scores with the shape of the
// rating matrix it was predicted from. It is read-only.
type Predictions struct {
	dense *mat.Dense
}

// NewPredictions wraps a dense matrix. The caller must not modify it afterwards.
func NewPredictions(dense *mat.Dense) *Predictions {
	return &Predictions{dense: dense}
}

func (p *Predictions) Dims() (int, int) {
	return p.dense.Dims()
}

func (p *Predictions) At(row, col int) float64 {
	return p.dense.At(row, col)
}

// Row returns a copy of the predicted scores of a row.
func (p *Predictions) Row(row int) []float64 {
	return mat.Row(nil, row, p.dense)
}
