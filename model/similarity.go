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

	"github.com/juju/errors"
)

const (
	Cosine  = "cosine"
	Pearson = "pearson"
	MSD     = "msd"
)

// SparseVector holds the observed entries of a matrix row. Indices are in
// ascending order.
type SparseVector struct {
	Indices []int
	Values  []float64
}

func (vec *SparseVector) Len() int {
	return len(vec.Indices)
}

// ForIntersection iterates over entries observed in both vectors.
func (vec *SparseVector) ForIntersection(other *SparseVector, f func(index int, a, b float64)) {
	i, j := 0, 0
	for i < len(vec.Indices) && j < len(other.Indices) {
		switch {
		case vec.Indices[i] == other.Indices[j]:
			f(vec.Indices[i], vec.Values[i], other.Values[j])
			i++
			j++
		case vec.Indices[i] < other.Indices[j]:
			i++
		default:
			j++
		}
	}
}

// SimilarityFunc measures the similarity of two rows over co-rated columns.
// Rows without co-rated columns have similarity 0.
type SimilarityFunc func(a, b *SparseVector) float64

// NewSimilarity returns the similarity function with the given name.
func NewSimilarity(name string) (SimilarityFunc, error) {
	switch name {
	case Cosine:
		return CosineSimilarity, nil
	case Pearson:
		return PearsonSimilarity, nil
	case MSD:
		return MSDSimilarity, nil
	}
	return nil, errors.NotSupportedf("similarity %s", name)
}

// CosineSimilarity computes the cosine similarity between a pair of vectors.
// Norms are taken over co-rated entries only.
func CosineSimilarity(a, b *SparseVector) float64 {
	m, n, l := .0, .0, .0
	a.ForIntersection(b, func(_ int, a, b float64) {
		m += a * a
		n += b * b
		l += a * b
	})
	if m == 0 || n == 0 {
		return 0
	}
	return l / (math.Sqrt(m) * math.Sqrt(n))
}

// PearsonSimilarity computes the Pearson correlation coefficient between a
// pair of vectors. Means are taken over co-rated entries, so the result is
// in [-1, 1]. Zero variance on either side yields 0.
func PearsonSimilarity(a, b *SparseVector) float64 {
	count, sumA, sumB := 0, .0, .0
	a.ForIntersection(b, func(_ int, a, b float64) {
		count++
		sumA += a
		sumB += b
	})
	if count < 2 {
		return 0
	}
	meanA, meanB := sumA/float64(count), sumB/float64(count)
	m, n, l := .0, .0, .0
	a.ForIntersection(b, func(_ int, a, b float64) {
		ratingA := a - meanA
		ratingB := b - meanB
		m += ratingA * ratingA
		n += ratingB * ratingB
		l += ratingA * ratingB
	})
	if m == 0 || n == 0 {
		return 0
	}
	return l / (math.Sqrt(m) * math.Sqrt(n))
}

// MSDSimilarity computes the Mean Squared Difference similarity between a pair of vectors.
func MSDSimilarity(a, b *SparseVector) float64 {
	count, sum := 0.0, 0.0
	a.ForIntersection(b, func(_ int, a, b float64) {
		sum += (a - b) * (a - b)
		count += 1
	})
	if count == 0 {
		return 0
	}
	return 1.0 / (sum/count + 1)
}
