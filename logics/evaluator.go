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

package logics

import (
	"math"
	"sort"

	"github.com/cineai/cineai/dataset"
	"github.com/cineai/cineai/model"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ErrUndefinedMetric is returned when no user can be scored.
var ErrUndefinedMetric = errors.New("undefined metric: no scoreable user")

// Score summarizes ranking quality over scoreable users.
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	NDCG      float64 `json:"ndcg"`
	// Users is the number of scoreable users.
	Users int `json:"users"`
	// Skipped is the number of test users that could not be scored.
	Skipped int `json:"skipped"`
}

// Evaluate scores top-k recommendations against held-out ratings. A test
// rating is relevant if it is at least threshold. A user is scoreable if it
// has a row in the training matrix and a relevant test rating; other users
// are skipped rather than counted as zero. Test ratings on items without a
// column can never be recommended but still count as relevant for recall.
// If no user is scoreable every metric is NaN and ErrUndefinedMetric is
// returned.
func Evaluate(p *model.Predictions, train *model.TrainMatrix, test []dataset.Rating, k int, threshold float64) (Score, error) {
	undefined := Score{Precision: math.NaN(), Recall: math.NaN(), NDCG: math.NaN()}
	if k <= 0 {
		return undefined, errors.NotValidf("k %d", k)
	}
	relevant := make(map[int]mapset.Set[int])
	for _, rating := range test {
		if _, exist := relevant[rating.UserId]; !exist {
			relevant[rating.UserId] = mapset.NewThreadUnsafeSet[int]()
		}
		if rating.Rating >= threshold {
			relevant[rating.UserId].Add(rating.ItemId)
		}
	}
	users := lo.Keys(relevant)
	sort.Ints(users)

	var score Score
	for _, userId := range users {
		targetSet := relevant[userId]
		if !train.UserIndex.Contains(userId) || targetSet.Cardinality() == 0 {
			score.Skipped++
			continue
		}
		userIndex, err := train.UserIndex.ToIndex(userId)
		if err != nil {
			return undefined, errors.Trace(err)
		}
		recommendations, err := RecommendTopN(p, train.RatingMatrix, userIndex, k)
		if err != nil {
			return undefined, err
		}
		rankList := make([]int, len(recommendations))
		for i, r := range recommendations {
			rankList[i], _ = train.ItemIndex.ToId(r.ItemIndex)
		}
		score.Precision += Precision(targetSet, rankList, k)
		score.Recall += Recall(targetSet, rankList)
		score.NDCG += NDCG(targetSet, rankList, k)
		score.Users++
	}
	if score.Users == 0 {
		undefined.Skipped = score.Skipped
		return undefined, ErrUndefinedMetric
	}
	score.Precision /= float64(score.Users)
	score.Recall /= float64(score.Users)
	score.NDCG /= float64(score.Users)
	return score, nil
}

// PrecisionAtK is the mean precision@k over scoreable users.
func PrecisionAtK(p *model.Predictions, train *model.TrainMatrix, test []dataset.Rating, k int, threshold float64) (float64, error) {
	score, err := Evaluate(p, train, test, k, threshold)
	return score.Precision, err
}

// Precision is the number of hits divided by k. Short rank lists are not
// rewarded for their length.
func Precision(targetSet mapset.Set[int], rankList []int, k int) float64 {
	hit := 0
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return float64(hit) / float64(k)
}

// Recall is the fraction of relevant items in the rank list.
func Recall(targetSet mapset.Set[int], rankList []int) float64 {
	if targetSet.Cardinality() == 0 {
		return 0
	}
	hit := 0
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return float64(hit) / float64(targetSet.Cardinality())
}

// NDCG means Normalized Discounted Cumulative Gain.
func NDCG(targetSet mapset.Set[int], rankList []int, k int) float64 {
	// IDCG = \sum^{|REL|}_{i=1} \frac {1} {\log_2(i+1)}
	idcg := 0.0
	for i := 0; i < targetSet.Cardinality() && i < k; i++ {
		idcg += 1.0 / math.Log2(float64(i)+2.0)
	}
	if idcg == 0 {
		return 0
	}
	// DCG = \sum^{N}_{i=1} \frac {2^{rel_i}-1} {\log_2(i+1)}
	dcg := 0.0
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			dcg += 1.0 / math.Log2(float64(i)+2.0)
		}
	}
	return dcg / idcg
}
