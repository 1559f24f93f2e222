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
	"encoding/json"
	"reflect"

	"github.com/cineai/cineai/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	K          ParamName = "k"          // number of neighbors
	Rank       ParamName = "rank"       // number of singular values kept
	Similarity ParamName = "similarity" // similarity metric of neighbors
	Candidates ParamName = "candidates" // neighbor candidate selection
)

// Params stores hyper-parameters for a predictor. For example, hyper-parameters
// for user-based collaborative filtering is given by:
//
//	model.Params{
//		model.K:          20,
//		model.Similarity: model.Cosine,
//	}
type Params map[ParamName]interface{}

// GetInt gets a integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		default:
			log.Logger().Error("type mismatch", zap.String("param", string(name)),
				zap.String("expect", "int"), zap.Stringer("actual", reflect.TypeOf(val)))
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("type mismatch", zap.String("param", string(name)),
				zap.String("expect", "string"), zap.Stringer("actual", reflect.TypeOf(val)))
		}
	}
	return _default
}

// ToString returns a canonical representation. Names are sorted.
func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Error("failed to marshal params", zap.Error(err))
		return ""
	}
	return string(b)
}
