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
	"time"

	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/common/heap"
	"github.com/cineai/cineai/common/parallel"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"modernc.org/mathutil"
)

// Neighbor candidate selection.
const (
	// StaticNeighbors takes the k most similar rows, then uses those that
	// observed the target column.
	StaticNeighbors = "static"
	// RatedNeighbors takes the k most similar rows among those that observed
	// the target column.
	RatedNeighbors = "rated"
)

const defaultK = 20

// neighborhood predicts cells of a matrix from similar rows. It serves both
// user-based (rows are users) and item-based (applied to the transposed
// matrix, rows are items) filtering.
type neighborhood struct {
	k          int
	similarity SimilarityFunc
	candidates string
}

func newNeighborhood(params Params, defaultCandidates string) (neighborhood, Params, error) {
	similarityName := params.GetString(Similarity, Cosine)
	similarity, err := NewSimilarity(similarityName)
	if err != nil {
		return neighborhood{}, nil, err
	}
	candidates := params.GetString(Candidates, defaultCandidates)
	if candidates != StaticNeighbors && candidates != RatedNeighbors {
		return neighborhood{}, nil, errors.NotSupportedf("neighbor candidates %s", candidates)
	}
	k := params.GetInt(K, defaultK)
	return neighborhood{k: k, similarity: similarity, candidates: candidates},
		Params{K: k, Similarity: similarityName, Candidates: candidates}, nil
}

// clampK limits k to [1, available]. No neighbors are available for a single row.
func clampK(k, available int) int {
	return mathutil.Min(mathutil.Max(k, 1), available)
}

// similarities computes the pairwise similarity between rows. The diagonal
// is left zero and never used.
func (n *neighborhood) similarities(ctx context.Context, m *RatingMatrix, jobs int) ([][]float64, error) {
	rows, _ := m.Dims()
	vectors := make([]*SparseVector, rows)
	sims := make([][]float64, rows)
	for i := range vectors {
		vectors[i] = m.vector(i)
		sims[i] = make([]float64, rows)
	}
	err := parallel.Parallel(ctx, rows, jobs, func(_, i int) error {
		for j := i + 1; j < rows; j++ {
			sim := n.similarity(vectors[i], vectors[j])
			sims[i][j] = sim
			sims[j][i] = sim
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return sims, nil
}

// predict computes every cell of m as the similarity-weighted average of
// neighbor ratings:
//
//	p(i,c) = Σ sim(i,v)·r(v,c) / Σ |sim(i,v)|
//
// The sum runs over neighbors v that observed column c. A cell without such
// neighbors, or with zero total similarity, gets fallback(i, c). Neighbors
// with equal similarity are ranked by lower row index.
func (n *neighborhood) predict(ctx context.Context, m *RatingMatrix, fallback func(row, col int) float64, jobs int) (*mat.Dense, error) {
	rows, cols := m.Dims()
	k := clampK(n.k, rows-1)
	sims, err := n.similarities(ctx, m, jobs)
	if err != nil {
		return nil, err
	}
	var colRows [][]int
	if n.candidates == RatedNeighbors {
		t := m.T()
		colRows = make([][]int, cols)
		for c := range colRows {
			colRows[c] = t.ObservedCols(c)
		}
	}

	dense := mat.NewDense(rows, cols, nil)
	err = parallel.Parallel(ctx, rows, jobs, func(_, i int) error {
		var neighbors []int
		if n.candidates == StaticNeighbors {
			filter := heap.NewTopKFilter[int, float64](k)
			for v := 0; v < rows; v++ {
				if v != i {
					filter.Push(v, sims[i][v])
				}
			}
			neighbors = filter.PopAllValues()
		}
		for c := 0; c < cols; c++ {
			if n.candidates == RatedNeighbors {
				filter := heap.NewTopKFilter[int, float64](k)
				for _, v := range colRows[c] {
					if v != i {
						filter.Push(v, sims[i][v])
					}
				}
				neighbors = filter.PopAllValues()
			}
			numerator, denominator := 0.0, 0.0
			for _, v := range neighbors {
				if rating, ok := m.Get(v, c); ok {
					numerator += sims[i][v] * rating
					denominator += math.Abs(sims[i][v])
				}
			}
			if denominator == 0 {
				dense.Set(i, c, fallback(i, c))
			} else {
				dense.Set(i, c, numerator/denominator)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return dense, nil
}

// UserKNN predicts a rating from the ratings of similar users. Users without
// a usable neighbor fall back to their mean rating.
type UserKNN struct {
	BaseModel
	neighborhood
}

// NewUserKNN creates a user-based predictor. Neighbors default to the k most
// similar users overall.
func NewUserKNN(params Params) (*UserKNN, error) {
	n, effective, err := newNeighborhood(params, StaticNeighbors)
	if err != nil {
		return nil, err
	}
	knn := &UserKNN{neighborhood: n}
	knn.SetParams(effective)
	return knn, nil
}

func (knn *UserKNN) Name() string {
	return UserCF
}

func (knn *UserKNN) Predict(ctx context.Context, m *RatingMatrix, config *PredictConfig) (*Predictions, error) {
	if err := checkMatrix(m); err != nil {
		return nil, err
	}
	start := time.Now()
	means := m.RowMeans()
	dense, err := knn.predict(ctx, m, func(row, _ int) float64 { return means[row] }, config.jobs())
	if err != nil {
		return nil, err
	}
	log.Logger().Debug("predict user-based",
		zap.Any("params", knn.GetParams()), zap.Duration("duration", time.Since(start)))
	return NewPredictions(dense), nil
}

// ItemKNN predicts a rating from the user's ratings of similar items. Cells
// without a usable neighbor fall back to the user's mean rating.
type ItemKNN struct {
	BaseModel
	neighborhood
}

// NewItemKNN creates an item-based predictor. Neighbors default to the k most
// similar items rated by the user.
func NewItemKNN(params Params) (*ItemKNN, error) {
	n, effective, err := newNeighborhood(params, RatedNeighbors)
	if err != nil {
		return nil, err
	}
	knn := &ItemKNN{neighborhood: n}
	knn.SetParams(effective)
	return knn, nil
}

func (knn *ItemKNN) Name() string {
	return ItemCF
}

func (knn *ItemKNN) Predict(ctx context.Context, m *RatingMatrix, config *PredictConfig) (*Predictions, error) {
	if err := checkMatrix(m); err != nil {
		return nil, err
	}
	start := time.Now()
	means := m.RowMeans()
	dense, err := knn.predict(ctx, m.T(), func(_, user int) float64 { return means[user] }, config.jobs())
	if err != nil {
		return nil, err
	}
	log.Logger().Debug("predict item-based",
		zap.Any("params", knn.GetParams()), zap.Duration("duration", time.Since(start)))
	return NewPredictions(mat.DenseCopyOf(dense.T())), nil
}
