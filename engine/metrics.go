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

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "predict_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"algorithm"})
	PredictionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "prediction_cache_hits_total",
	})
	PredictionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "prediction_cache_misses_total",
	})
	RecommendSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "recommend_seconds",
	})
	PrecisionAtK = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "precision_at_k",
	}, []string{"algorithm"})
	NumUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "num_users",
	})
	NumItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "num_items",
	})
	NumTrainRatings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "num_train_ratings",
	})
	NumTestRatings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cineai",
		Subsystem: "engine",
		Name:      "num_test_ratings",
	})
)
