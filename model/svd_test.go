// Copyright 2020 gorse Project Authors
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
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampRank(t *testing.T) {
	assert.Equal(t, 2, clampRank(10, 4, 3))
	assert.Equal(t, 1, clampRank(1, 4, 3))
	assert.Equal(t, 1, clampRank(0, 4, 3))
	assert.Equal(t, 1, clampRank(5, 1, 3))
	assert.Equal(t, 20, clampRank(20, 943, 1682))
}

func TestSVD_Scenario(t *testing.T) {
	train := scenarioMatrix(t)
	svd := NewSVD(Params{Rank: 10})
	assert.Equal(t, Params{Rank: 10}, svd.GetParams())
	p, err := svd.Predict(context.Background(), train.RatingMatrix, nil)
	assert.NoError(t, err)
	rows, cols := p.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	// the imputed matrix has rank 2, so the clamped reconstruction is exact
	imputed := [][]float64{{5, 4, 3}, {4, 3, 2}, {5, 5, 5}, {1, 3, 5}}
	for i := range imputed {
		for j := range imputed[i] {
			assert.InDelta(t, imputed[i][j], p.At(i, j), 1e-6)
		}
	}
	// unobserved cells hold the imputed mean instead of the sentinel
	assert.NotEqual(t, train.At(0, 1), p.At(0, 1))
}

func TestSVD_Truncated(t *testing.T) {
	m := NewRatingMatrixFromDense([][]float64{{5, 1, 1}, {1, 5, 1}, {1, 1, 5}}, func(int, int) bool {
		return true
	})
	// singular values are 7, 4 and 4, the rank 2 residual has norm 4
	p, err := NewSVD(Params{Rank: 3}).Predict(context.Background(), m, nil)
	assert.NoError(t, err)
	residual := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			residual += (p.At(i, j) - m.At(i, j)) * (p.At(i, j) - m.At(i, j))
		}
	}
	assert.InDelta(t, 4.0, math.Sqrt(residual), 1e-6)

	// rank 1 keeps the mean direction only
	p, err = NewSVD(Params{Rank: 1}).Predict(context.Background(), m, nil)
	assert.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, 7.0/3.0, p.At(i, j), 1e-6)
		}
	}
}

func TestSVD_Degenerate(t *testing.T) {
	// single row
	m := NewRatingMatrix(1, 3)
	m.Set(0, 1, 4)
	p, err := NewSVD(Params{}).Predict(context.Background(), m, nil)
	assert.NoError(t, err)
	for _, v := range p.Row(0) {
		assert.InDelta(t, 4.0, v, 1e-6)
	}
	// constant matrix
	m = randomMatrix(20, 10, 0, 0)
	p, err = NewSVD(Params{Rank: 50}).Predict(context.Background(), m, nil)
	assert.NoError(t, err)
	rows, cols := p.Dims()
	assert.Equal(t, 20, rows)
	assert.Equal(t, 10, cols)
	for i := 0; i < rows; i++ {
		mean, _ := m.RowMean(i)
		for _, v := range p.Row(i) {
			assert.InDelta(t, mean, v, 1e-6)
		}
	}
}

func TestSVD_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSVD(Params{}).Predict(ctx, randomMatrix(5, 5, 0.5, 0), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
