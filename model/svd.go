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
	"time"

	"github.com/cineai/cineai/base/log"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"modernc.org/mathutil"
)

const defaultRank = 20

// SVD reconstructs the rating matrix from its truncated singular value
// decomposition. Unobserved cells are imputed with the user's mean rating
// (the global mean for users without ratings) before decomposition, so
// predictions of sparse users lean toward their mean.
type SVD struct {
	BaseModel
	rank int
}

// NewSVD creates a factorization predictor.
func NewSVD(params Params) *SVD {
	svd := &SVD{rank: params.GetInt(Rank, defaultRank)}
	svd.SetParams(Params{Rank: svd.rank})
	return svd
}

func (svd *SVD) Name() string {
	return SVDAlg
}

// clampRank limits the rank to [1, min(rows, cols) - 1].
func clampRank(rank, rows, cols int) int {
	return mathutil.Max(1, mathutil.Min(rank, mathutil.Min(rows, cols)-1))
}

func (svd *SVD) Predict(ctx context.Context, m *RatingMatrix, _ *PredictConfig) (*Predictions, error) {
	if err := checkMatrix(m); err != nil {
		return nil, err
	}
	start := time.Now()
	rows, cols := m.Dims()
	means := m.RowMeans()
	imputed := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if rating, ok := m.Get(i, j); ok {
				imputed.Set(i, j, rating)
			} else {
				imputed.Set(i, j, means[i])
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var factorization mat.SVD
	if ok := factorization.Factorize(imputed, mat.SVDThin); !ok {
		// the imputed matrix is the best estimate left
		log.Logger().Warn("SVD factorization failed, fallback to imputed ratings",
			zap.Int("rows", rows), zap.Int("cols", cols))
		return NewPredictions(imputed), nil
	}
	r := clampRank(svd.rank, rows, cols)
	var u, v mat.Dense
	factorization.UTo(&u)
	factorization.VTo(&v)
	values := factorization.Values(nil)
	sigma := mat.NewDiagDense(r, values[:r])
	uk := u.Slice(0, rows, 0, r)
	vk := v.Slice(0, cols, 0, r)
	reconstructed := mat.NewDense(rows, cols, nil)
	reconstructed.Product(uk, sigma, vk.T())
	log.Logger().Debug("predict SVD",
		zap.Int("rank", r), zap.Float64("largest_singular_value", values[0]), zap.Duration("duration", time.Since(start)))
	return NewPredictions(reconstructed), nil
}
