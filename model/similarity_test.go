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
	"math"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

const simEpsilon = 1e-6

func newVector(indices []int, values []float64) *SparseVector {
	return &SparseVector{Indices: indices, Values: values}
}

func TestSparseVector_ForIntersection(t *testing.T) {
	a := newVector([]int{0, 2, 4, 8}, []float64{1, 2, 3, 4})
	b := newVector([]int{1, 2, 3, 8, 9}, []float64{5, 6, 7, 8, 9})
	var indices []int
	var products []float64
	a.ForIntersection(b, func(index int, x, y float64) {
		indices = append(indices, index)
		products = append(products, x*y)
	})
	assert.Equal(t, []int{2, 8}, indices)
	assert.Equal(t, []float64{12, 32}, products)
}

func TestCosineSimilarity(t *testing.T) {
	a := newVector([]int{1, 3, 5, 7}, []float64{1, 2, 3, 4})
	b := newVector([]int{0, 1, 2, 3, 4, 5, 6, 7}, []float64{1, 1, 1, 2, 1, 3, 1, 4})
	assert.InDelta(t, 1.0, CosineSimilarity(a, b), simEpsilon)
	// co-rated columns only
	u1 := newVector([]int{0, 2}, []float64{5, 3})
	u2 := newVector([]int{0, 2}, []float64{4, 2})
	assert.InDelta(t, 26/math.Sqrt(34*20), CosineSimilarity(u1, u2), simEpsilon)
	// no co-rated columns
	u3 := newVector([]int{1}, []float64{5})
	assert.Zero(t, CosineSimilarity(u1, u3))
	assert.Zero(t, CosineSimilarity(u1, newVector(nil, nil)))
}

func TestPearsonSimilarity(t *testing.T) {
	a := newVector([]int{1, 2, 3, 4}, []float64{1, 2, 3, 4})
	b := newVector([]int{1, 2, 3, 4}, []float64{4, 3, 2, 1})
	assert.InDelta(t, -1.0, PearsonSimilarity(a, b), simEpsilon)
	c := newVector([]int{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	assert.InDelta(t, 1.0, PearsonSimilarity(a, c), simEpsilon)
	// zero variance
	d := newVector([]int{1, 2, 3, 4}, []float64{3, 3, 3, 3})
	assert.Zero(t, PearsonSimilarity(a, d))
	// single co-rated column
	e := newVector([]int{4, 5}, []float64{1, 2})
	assert.Zero(t, PearsonSimilarity(a, e))
}

func TestMSDSimilarity(t *testing.T) {
	a := newVector([]int{1, 2, 3}, []float64{1, 2, 3})
	b := newVector([]int{1, 2, 3}, []float64{2, 3, 4})
	assert.InDelta(t, 0.5, MSDSimilarity(a, b), simEpsilon)
	assert.InDelta(t, 1.0, MSDSimilarity(a, a), simEpsilon)
	assert.Zero(t, MSDSimilarity(a, newVector([]int{4}, []float64{1})))
}

func TestNewSimilarity(t *testing.T) {
	for _, name := range []string{Cosine, Pearson, MSD} {
		f, err := NewSimilarity(name)
		assert.NoError(t, err)
		assert.NotNil(t, f)
	}
	_, err := NewSimilarity("jaccard")
	assert.True(t, errors.Is(err, errors.NotSupported))
}
