// Copyright 2026 gorse Project Authors
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

package poster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cineai/cineai/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/suite"
)

type TMDBTestSuite struct {
	suite.Suite
	server   *httptest.Server
	handler  http.HandlerFunc
	requests atomic.Int32
	tmdb     *TMDB
}

func (suite *TMDBTestSuite) SetupTest() {
	suite.requests.Store(0)
	suite.handler = nil
	suite.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.requests.Add(1)
		suite.Equal("/3/search/movie", r.URL.Path)
		suite.Equal("secret", r.URL.Query().Get("api_key"))
		suite.handler(w, r)
	}))
	cfg := config.GetDefaultConfig().Poster
	cfg.APIKey = "secret"
	cfg.BaseURL = suite.server.URL + "/3"
	cfg.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	cfg.MaxRetries = 2
	cfg.Timeout = time.Second
	suite.tmdb = NewTMDB(cfg)
	suite.tmdb.newBackOff = func() backoff.BackOff {
		return backoff.NewConstantBackOff(time.Millisecond)
	}
}

func (suite *TMDBTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *TMDBTestSuite) TestFound() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("Toy Story", r.URL.Query().Get("query"))
		suite.Empty(r.URL.Query().Get("year"))
		_, _ = w.Write([]byte(`{"results":[{"poster_path":"/toy.jpg"},{"poster_path":"/other.jpg"}]}`))
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Toy Story (1995)")
	suite.NoError(err)
	suite.Equal("https://image.tmdb.org/t/p/w500/toy.jpg", posterURL)
	// cached
	posterURL, err = suite.tmdb.Poster(context.Background(), "Toy Story (1995)")
	suite.NoError(err)
	suite.Equal("https://image.tmdb.org/t/p/w500/toy.jpg", posterURL)
	suite.Equal(int32(1), suite.requests.Load())
}

func (suite *TMDBTestSuite) TestYearFallback() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("year") == "1995" {
			_, _ = w.Write([]byte(`{"results":[{"poster_path":"/heat.jpg"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"poster_path":null}]}`))
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Heat (1995)")
	suite.NoError(err)
	suite.Equal("https://image.tmdb.org/t/p/w500/heat.jpg", posterURL)
	suite.Equal(int32(2), suite.requests.Load())
}

func (suite *TMDBTestSuite) TestNotFound() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Unknown Movie (1901)")
	suite.NoError(err)
	suite.Equal("https://via.placeholder.com/300x450/1a1a1a/6366f1?text=Unknown+Movie", posterURL)
	// no year, single search
	posterURL, err = suite.tmdb.Poster(context.Background(), "Nothing")
	suite.NoError(err)
	suite.Equal("https://via.placeholder.com/300x450/1a1a1a/6366f1?text=Nothing", posterURL)
	suite.Equal(int32(3), suite.requests.Load())
}

func (suite *TMDBTestSuite) TestRetry() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		if suite.requests.Load() < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"poster_path":"/fargo.jpg"}]}`))
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Fargo (1996)")
	suite.NoError(err)
	suite.Equal("https://image.tmdb.org/t/p/w500/fargo.jpg", posterURL)
	suite.Equal(int32(3), suite.requests.Load())
}

func (suite *TMDBTestSuite) TestFail() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Fargo (1996)")
	suite.Error(err)
	suite.False(errors.Is(err, errors.NotValid))
	suite.Equal(ErrorURL(), posterURL)
	suite.Equal(int32(3), suite.requests.Load())
}

func (suite *TMDBTestSuite) TestPermanentFail() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}
	posterURL, err := suite.tmdb.Poster(context.Background(), "Fargo (1996)")
	suite.True(errors.Is(err, errors.NotValid))
	suite.Contains(err.Error(), "401")
	suite.Equal(ErrorURL(), posterURL)
	suite.Equal(int32(1), suite.requests.Load())
	// failures are not cached
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"poster_path":"/fargo.jpg"}]}`))
	}
	posterURL, err = suite.tmdb.Poster(context.Background(), "Fargo (1996)")
	suite.NoError(err)
	suite.Equal("https://image.tmdb.org/t/p/w500/fargo.jpg", posterURL)
}

func (suite *TMDBTestSuite) TestMalformed() {
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":`))
	}
	_, err := suite.tmdb.Poster(context.Background(), "Fargo (1996)")
	suite.Error(err)
	suite.Equal(int32(1), suite.requests.Load())
}

func TestTMDB(t *testing.T) {
	suite.Run(t, new(TMDBTestSuite))
}
