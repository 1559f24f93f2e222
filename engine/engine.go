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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/common/parallel"
	"github.com/cineai/cineai/config"
	"github.com/cineai/cineai/dataset"
	"github.com/cineai/cineai/logics"
	"github.com/cineai/cineai/model"
	"github.com/cineai/cineai/poster"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options selects the algorithm and hyper-parameters of a prediction. Zero
// fields take configured defaults.
type Options struct {
	Algorithm  string `json:"algorithm"`
	K          int    `json:"k,omitempty"`
	Rank       int    `json:"rank,omitempty"`
	Similarity string `json:"similarity,omitempty"`
}

// Params returns the hyper-parameters relevant to the algorithm.
func (opts Options) Params() model.Params {
	if opts.Algorithm == model.SVDAlg {
		return model.Params{model.Rank: opts.Rank}
	}
	return model.Params{model.K: opts.K, model.Similarity: opts.Similarity}
}

// Recommendation is a recommended movie.
type Recommendation struct {
	ItemId int      `json:"item_id"`
	Title  string   `json:"title"`
	Year   string   `json:"year"`
	Genres []string `json:"genres"`
	Score  float64  `json:"score"`
	Poster string   `json:"poster,omitempty"`
}

// Stats describes the prepared dataset.
type Stats struct {
	Users        int `json:"users"`
	Items        int `json:"items"`
	Ratings      int `json:"ratings"`
	TrainRatings int `json:"train_ratings"`
	TestRatings  int `json:"test_ratings"`
}

// Predict runs a predictor over the matrix.
func Predict(ctx context.Context, m *model.RatingMatrix, algorithm string, params model.Params, jobs int) (*model.Predictions, error) {
	predictor, err := model.NewPredictor(algorithm, params)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	p, err := predictor.Predict(ctx, m, model.NewPredictConfig().SetJobs(jobs))
	if err != nil {
		return nil, errors.Trace(err)
	}
	PredictSeconds.WithLabelValues(algorithm).Observe(time.Since(start).Seconds())
	log.Logger().Info("predict ratings", zap.String("algorithm", algorithm),
		zap.Any("params", predictor.GetParams()), zap.Duration("duration", time.Since(start)))
	return p, nil
}

// state is a prepared split. It is never modified once published.
type state struct {
	generation int
	ratings    []dataset.Rating
	items      *dataset.Items
	test       []dataset.Rating
	matrix     *model.TrainMatrix
}

// Engine serves recommendations and evaluations over one train/test split.
// Predictions are cached per (split, algorithm, parameters).
type Engine struct {
	config  *config.Config
	posters poster.Lookup
	cache   *ttlcache.Cache[string, *model.Predictions]
	group   singleflight.Group

	mu    sync.RWMutex
	state *state
}

func NewEngine(cfg *config.Config, posters poster.Lookup) *Engine {
	if posters == nil {
		posters = poster.Placeholder{}
	}
	return &Engine{
		config:  cfg,
		posters: posters,
		cache: ttlcache.New[string, *model.Predictions](
			ttlcache.WithTTL[string, *model.Predictions](cfg.Recommend.CacheTTL),
			ttlcache.WithCapacity[string, *model.Predictions](cfg.Recommend.CacheCapacity),
		),
	}
}

// Load reads the configured dataset, downloading the built-in dataset if no
// directory is configured, and prepares it.
func (e *Engine) Load(ctx context.Context) error {
	dir := e.config.Dataset.Dir
	if dir == "" {
		if e.config.Dataset.BuiltIn == "" {
			return errors.NotValidf("dataset without dir or builtin")
		}
		cacheDir := e.config.Dataset.CacheDir
		if cacheDir == "" {
			cacheDir = dataset.DefaultDatasetDir()
		}
		var err error
		if dir, err = dataset.DownloadBuiltIn(ctx, e.config.Dataset.BuiltIn, cacheDir); err != nil {
			return errors.Trace(err)
		}
	}
	ratings, items, err := dataset.Load(dir)
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("load dataset", zap.String("dir", dir),
		zap.Int("n_ratings", len(ratings)), zap.Int("n_items", items.Len()))
	return e.Prepare(ratings, items)
}

// Prepare splits the ratings and builds the training matrix. Cached
// predictions of earlier splits are dropped.
func (e *Engine) Prepare(ratings []dataset.Rating, items *dataset.Items) error {
	train, test, err := dataset.Split(ratings, e.config.Dataset.HoldoutPerUser, e.config.Dataset.Seed)
	if err != nil {
		return errors.Trace(err)
	}
	matrix, err := model.BuildMatrix(train)
	if err != nil {
		return errors.Trace(err)
	}
	e.mu.Lock()
	generation := 1
	if e.state != nil {
		generation = e.state.generation + 1
	}
	e.state = &state{
		generation: generation,
		ratings:    ratings,
		items:      items,
		test:       test,
		matrix:     matrix,
	}
	e.mu.Unlock()
	e.cache.DeleteAll()

	rows, cols := matrix.Dims()
	NumUsers.Set(float64(rows))
	NumItems.Set(float64(cols))
	NumTrainRatings.Set(float64(len(train)))
	NumTestRatings.Set(float64(len(test)))
	log.Logger().Info("prepare train/test split",
		zap.Int("n_users", rows), zap.Int("n_items", cols),
		zap.Int("n_train", len(train)), zap.Int("n_test", len(test)))
	return nil
}

func (e *Engine) current() (*state, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == nil {
		return nil, errors.NotValidf("engine without dataset")
	}
	return e.state, nil
}

// Options fills zero fields of opts with configured defaults.
func (e *Engine) Options(opts Options) Options {
	if opts.Algorithm == "" {
		opts.Algorithm = e.config.Model.Algorithm
	}
	if opts.K == 0 {
		opts.K = e.config.Model.K
	}
	if opts.Rank == 0 {
		opts.Rank = e.config.Model.Rank
	}
	if opts.Similarity == "" {
		opts.Similarity = e.config.Model.Similarity
	}
	return opts
}

// Predict returns the predictions of the current split, computing them at
// most once per cache lifetime.
func (e *Engine) Predict(ctx context.Context, opts Options) (*model.Predictions, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return e.predict(ctx, s, e.Options(opts))
}

func (e *Engine) predict(ctx context.Context, s *state, opts Options) (*model.Predictions, error) {
	params := opts.Params()
	key := fmt.Sprintf("%d/%s/%s", s.generation, opts.Algorithm, params.ToString())
	if item := e.cache.Get(key); item != nil {
		PredictionCacheHits.Inc()
		log.Logger().Debug("prediction cache hit", zap.String("key", key))
		return item.Value(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	// Shared by every caller of the key. It outlives the caller that started it.
	computeCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		if item := e.cache.Get(key); item != nil {
			return item.Value(), nil
		}
		PredictionCacheMisses.Inc()
		p, err := Predict(computeCtx, s.matrix.RatingMatrix, opts.Algorithm, params, e.config.Model.Jobs)
		if err != nil {
			return nil, err
		}
		e.cache.Set(key, p, ttlcache.DefaultTTL)
		return p, nil
	})
	select {
	case <-ctx.Done():
		return nil, errors.Trace(ctx.Err())
	case result := <-ch:
		if result.Err != nil {
			return nil, result.Err
		}
		return result.Val.(*model.Predictions), nil
	}
}

// Recommend returns the top n movies the user has not rated. Unknown users
// are reported as not found.
func (e *Engine) Recommend(ctx context.Context, userId, n int, opts Options) ([]Recommendation, error) {
	start := time.Now()
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	if !s.matrix.UserIndex.Contains(userId) {
		return nil, errors.NotFoundf("user ID %d", userId)
	}
	userIndex, err := s.matrix.UserIndex.ToIndex(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	p, err := e.predict(ctx, s, e.Options(opts))
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = e.config.Recommend.TopN
	}
	ranked, err := logics.RecommendTopN(p, s.matrix.RatingMatrix, userIndex, n)
	if err != nil {
		return nil, errors.Trace(err)
	}
	recommendations := make([]Recommendation, len(ranked))
	for i, r := range ranked {
		itemId, err := s.matrix.ItemIndex.ToId(r.ItemIndex)
		if err != nil {
			return nil, errors.Trace(err)
		}
		recommendations[i] = Recommendation{ItemId: itemId, Score: r.Score, Genres: []string{}}
		if item, err := s.items.Get(itemId); err == nil {
			recommendations[i].Title = item.Title
			recommendations[i].Year = item.Year()
			recommendations[i].Genres = item.Genres
		}
	}
	if err = e.fillPosters(ctx, recommendations); err != nil {
		return nil, err
	}
	RecommendSeconds.Observe(time.Since(start).Seconds())
	return recommendations, nil
}

// fillPosters looks up posters concurrently. A failed lookup keeps the error
// placeholder returned by the lookup.
func (e *Engine) fillPosters(ctx context.Context, recommendations []Recommendation) error {
	return parallel.For(ctx, len(recommendations), e.config.Model.Jobs, func(i int) {
		posterURL, err := e.posters.Poster(ctx, recommendations[i].Title)
		if err != nil {
			log.Logger().Warn("failed to look up poster",
				zap.Int("item_id", recommendations[i].ItemId), zap.Error(err))
		}
		recommendations[i].Poster = posterURL
	})
}

// Evaluate scores top-k recommendations of the algorithm against the test split.
func (e *Engine) Evaluate(ctx context.Context, k int, threshold float64, opts Options) (logics.Score, error) {
	s, err := e.current()
	if err != nil {
		return logics.Score{}, err
	}
	opts = e.Options(opts)
	if k <= 0 {
		k = e.config.Recommend.PrecisionK
	}
	p, err := e.predict(ctx, s, opts)
	if err != nil {
		return logics.Score{}, err
	}
	score, err := logics.Evaluate(p, s.matrix, s.test, k, threshold)
	if err != nil {
		return score, err
	}
	PrecisionAtK.WithLabelValues(opts.Algorithm).Set(score.Precision)
	log.Logger().Info("evaluate ranking", zap.String("algorithm", opts.Algorithm),
		zap.Int("k", k), zap.Float64("threshold", threshold), zap.Float64("precision", score.Precision),
		zap.Float64("recall", score.Recall), zap.Float64("ndcg", score.NDCG), zap.Int("n_users", score.Users))
	return score, nil
}

// Item returns the catalog record of a movie.
func (e *Engine) Item(itemId int) (dataset.Item, error) {
	s, err := e.current()
	if err != nil {
		return dataset.Item{}, err
	}
	return s.items.Get(itemId)
}

// Users returns ids of users with a row in the training matrix.
func (e *Engine) Users() ([]int, error) {
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	return s.matrix.UserIndex.Ids(), nil
}

func (e *Engine) Stats() (Stats, error) {
	s, err := e.current()
	if err != nil {
		return Stats{}, err
	}
	rows, cols := s.matrix.Dims()
	return Stats{
		Users:        rows,
		Items:        cols,
		Ratings:      len(s.ratings),
		TrainRatings: s.matrix.Count(),
		TestRatings:  len(s.test),
	}, nil
}
