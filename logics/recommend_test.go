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
	"context"
	"math"
	"testing"

	"github.com/cineai/cineai/dataset"
	"github.com/cineai/cineai/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
	"gonum.org/v1/gonum/mat"
)

type RecommendTestSuite struct {
	suite.Suite
	train *model.TrainMatrix
}

func (suite *RecommendTestSuite) SetupTest() {
	var err error
	suite.train, err = model.BuildMatrix([]dataset.Rating{
		{UserId: 1, ItemId: 1, Rating: 5},
		{UserId: 1, ItemId: 3, Rating: 3},
		{UserId: 2, ItemId: 1, Rating: 4},
		{UserId: 2, ItemId: 3, Rating: 2},
		{UserId: 3, ItemId: 2, Rating: 5},
		{UserId: 4, ItemId: 1, Rating: 1},
		{UserId: 4, ItemId: 3, Rating: 5},
		{UserId: 5, ItemId: 4, Rating: 3},
		{UserId: 5, ItemId: 5, Rating: 3},
	})
	suite.NoError(err)
}

func (suite *RecommendTestSuite) predictions(rows ...[]float64) *model.Predictions {
	dense := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		dense.SetRow(i, row)
	}
	return model.NewPredictions(dense)
}

func (suite *RecommendTestSuite) uniform(value float64) *model.Predictions {
	rows, cols := suite.train.Dims()
	dense := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dense.Set(i, j, value)
		}
	}
	return model.NewPredictions(dense)
}

func (suite *RecommendTestSuite) TestExcludeObserved() {
	// user 3 rated one of the items
	p := suite.predictions(
		[]float64{1, 1, 1, 1, 1},
		[]float64{1, 1, 1, 1, 1},
		[]float64{3, 9, 4, 1, 2},
		[]float64{1, 1, 1, 1, 1},
		[]float64{1, 1, 1, 1, 1},
	)
	recommendations, err := RecommendTopN(p, suite.train.RatingMatrix, 2, 2)
	suite.NoError(err)
	suite.Equal([]int{2, 0}, ItemIndices(recommendations))
	suite.Equal([]float64{4, 3}, []float64{recommendations[0].Score, recommendations[1].Score})
	for _, r := range recommendations {
		suite.False(suite.train.Observed(2, r.ItemIndex))
	}
}

func (suite *RecommendTestSuite) TestTies() {
	recommendations, err := RecommendTopN(suite.uniform(3), suite.train.RatingMatrix, 4, 10)
	suite.NoError(err)
	suite.Equal([]int{0, 1, 2}, ItemIndices(recommendations))
	// NaN ranks last
	p := suite.predictions(
		[]float64{1, math.NaN(), 1, 2, 2},
		[]float64{1, 1, 1, 1, 1},
		[]float64{1, 1, 1, 1, 1},
		[]float64{1, 1, 1, 1, 1},
		[]float64{1, 1, 1, 1, 1},
	)
	recommendations, err = RecommendTopN(p, suite.train.RatingMatrix, 0, 3)
	suite.NoError(err)
	suite.Equal([]int{3, 4, 1}, ItemIndices(recommendations))
}

func (suite *RecommendTestSuite) TestShortage() {
	recommendations, err := RecommendTopN(suite.uniform(1), suite.train.RatingMatrix, 0, 10)
	suite.NoError(err)
	suite.Len(recommendations, 3)
	recommendations, err = RecommendTopN(suite.uniform(1), suite.train.RatingMatrix, 0, 0)
	suite.NoError(err)
	suite.Empty(recommendations)
	recommendations, err = RecommendTopN(suite.uniform(1), suite.train.RatingMatrix, 0, -1)
	suite.NoError(err)
	suite.Empty(recommendations)
}

func (suite *RecommendTestSuite) TestOrder() {
	p, err := model.NewSVD(model.Params{model.Rank: 2}).Predict(context.Background(), suite.train.RatingMatrix, nil)
	suite.NoError(err)
	rows, _ := suite.train.Dims()
	for i := 0; i < rows; i++ {
		recommendations, err := RecommendTopN(p, suite.train.RatingMatrix, i, 3)
		suite.NoError(err)
		suite.LessOrEqual(len(recommendations), 3)
		for j := 1; j < len(recommendations); j++ {
			suite.GreaterOrEqual(recommendations[j-1].Score, recommendations[j].Score)
			if recommendations[j-1].Score == recommendations[j].Score {
				suite.Less(recommendations[j-1].ItemIndex, recommendations[j].ItemIndex)
			}
		}
		for _, r := range recommendations {
			suite.False(suite.train.Observed(i, r.ItemIndex))
		}
	}
}

func (suite *RecommendTestSuite) TestInvalid() {
	_, err := RecommendTopN(suite.uniform(1), suite.train.RatingMatrix, 5, 2)
	suite.True(errors.Is(err, errors.NotFound))
	_, err = RecommendTopN(suite.uniform(1), suite.train.RatingMatrix, -1, 2)
	suite.True(errors.Is(err, errors.NotFound))
	_, err = RecommendTopN(suite.predictions([]float64{1}), suite.train.RatingMatrix, 0, 2)
	suite.True(errors.Is(err, errors.NotValid))
}

func TestRecommend(t *testing.T) {
	suite.Run(t, new(RecommendTestSuite))
}
