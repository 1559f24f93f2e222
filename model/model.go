// Copyright 2021 gorse Project Authors
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
	"runtime"

	"github.com/juju/errors"
)

const (
	UserCF = "usercf"
	ItemCF = "itemcf"
	SVDAlg = "svd"
)

// Algorithms lists predictor names accepted by NewPredictor.
var Algorithms = []string{UserCF, ItemCF, SVDAlg}

type PredictConfig struct {
	Jobs int
}

func NewPredictConfig() *PredictConfig {
	return &PredictConfig{Jobs: runtime.NumCPU()}
}

func (config *PredictConfig) SetJobs(nJobs int) *PredictConfig {
	config.Jobs = nJobs
	return config
}

func (config *PredictConfig) jobs() int {
	if config == nil || config.Jobs < 1 {
		return 1
	}
	return config.Jobs
}

// Predictor turns a rating matrix into a matrix of predicted scores of the
// same shape. Predictors keep no state between calls and never modify the
// input matrix, so one matrix may be shared by concurrent calls.
type Predictor interface {
	// Name returns the algorithm name.
	Name() string
	// GetParams returns the effective hyper-parameters.
	GetParams() Params
	// Predict computes a score for every cell of the matrix.
	Predict(ctx context.Context, m *RatingMatrix, config *PredictConfig) (*Predictions, error)
}

// BaseModel model must be included by every predictor.
type BaseModel struct {
	Params Params
}

func (model *BaseModel) SetParams(params Params) {
	model.Params = params
}

func (model *BaseModel) GetParams() Params {
	return model.Params
}

// NewPredictor creates a predictor by algorithm name.
func NewPredictor(name string, params Params) (Predictor, error) {
	switch name {
	case UserCF:
		return NewUserKNN(params)
	case ItemCF:
		return NewItemKNN(params)
	case SVDAlg:
		return NewSVD(params), nil
	}
	return nil, errors.NotSupportedf("algorithm %s", name)
}

func checkMatrix(m *RatingMatrix) error {
	if m == nil {
		return errors.NotValidf("nil matrix")
	}
	if rows, cols := m.Dims(); rows == 0 || cols == 0 {
		return errors.NotValidf("empty matrix %dx%d", rows, cols)
	}
	return nil
}
