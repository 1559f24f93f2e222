// Copyright 2024 gorse Project Authors
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

package logics

import (
	"math"

	"github.com/cineai/cineai/common/heap"
	"github.com/cineai/cineai/model"
	"github.com/juju/errors"
)

// Recommendation is an item index with its predicted score.
type Recommendation struct {
	ItemIndex int
	Score     float64
}

// RecommendTopN ranks items the user has not rated by predicted score and
// returns at most n of them. Equal scores are ranked by lower item index.
// Rated items are never returned, whatever their score.
func RecommendTopN(p *model.Predictions, m *model.RatingMatrix, userIndex, n int) ([]Recommendation, error) {
	rows, cols := m.Dims()
	if userIndex < 0 || userIndex >= rows {
		return nil, errors.NotFoundf("user index %d", userIndex)
	}
	if pRows, pCols := p.Dims(); pRows != rows || pCols != cols {
		return nil, errors.NotValidf("predictions %dx%d for matrix %dx%d", pRows, pCols, rows, cols)
	}
	if n <= 0 {
		return []Recommendation{}, nil
	}
	scores := p.Row(userIndex)
	filter := heap.NewTopKFilter[int, float64](n)
	for j, score := range scores {
		if m.Observed(userIndex, j) {
			continue
		}
		if math.IsNaN(score) {
			score = math.Inf(-1)
		}
		filter.Push(j, score)
	}
	elems := filter.PopAll()
	recommendations := make([]Recommendation, len(elems))
	for i, elem := range elems {
		recommendations[i] = Recommendation{ItemIndex: elem.Value, Score: scores[elem.Value]}
	}
	return recommendations, nil
}

// ItemIndices returns the item indices of recommendations in rank order.
func ItemIndices(recommendations []Recommendation) []int {
	indices := make([]int, len(recommendations))
	for i, r := range recommendations {
		indices[i] = r.ItemIndex
	}
	return indices
}
