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
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/config"
	"github.com/cineai/cineai/dataset"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"github.com/juju/ratelimit"
	"go.uber.org/zap"
)

type searchResponse struct {
	Results []struct {
		PosterPath string `json:"poster_path"`
	} `json:"results"`
}

// TMDB looks up posters with The Movie Database search API. A title is
// searched first without and then with its year. Titles without a poster get
// a placeholder. Requests are rate limited, transient failures are retried
// and results are cached.
type TMDB struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	maxRetries   uint
	client       *http.Client
	bucket       *ratelimit.Bucket
	cache        *ttlcache.Cache[string, string]
	newBackOff   func() backoff.BackOff
}

func NewTMDB(cfg config.PosterConfig) *TMDB {
	rate := int64(max(cfg.RateLimit, 1))
	return &TMDB{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimSuffix(cfg.ImageBaseURL, "/"),
		maxRetries:   cfg.MaxRetries,
		client:       &http.Client{Timeout: cfg.Timeout},
		bucket:       ratelimit.NewBucketWithQuantum(time.Second, rate, rate),
		cache:        ttlcache.New[string, string](ttlcache.WithTTL[string, string](cfg.CacheTTL)),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// NewLookup returns a TMDB lookup if an API key is configured and
// placeholders otherwise.
func NewLookup(cfg config.PosterConfig) Lookup {
	if cfg.APIKey == "" {
		return Placeholder{}
	}
	return NewTMDB(cfg)
}

func (t *TMDB) Poster(ctx context.Context, title string) (string, error) {
	if item := t.cache.Get(title); item != nil {
		return item.Value(), nil
	}
	cleanTitle, year := dataset.ParseTitle(title)
	posterPath, err := t.search(ctx, cleanTitle, "")
	if err == nil && posterPath == "" && year != "" {
		posterPath, err = t.search(ctx, cleanTitle, year)
	}
	if err != nil {
		return ErrorURL(), errors.Annotatef(err, "poster of %q", title)
	}
	posterURL := PlaceholderURL(title)
	if posterPath != "" {
		posterURL = t.imageBaseURL + posterPath
	}
	t.cache.Set(title, posterURL, ttlcache.DefaultTTL)
	return posterURL, nil
}

// search returns the poster path of the first result, or "" if there is none.
func (t *TMDB) search(ctx context.Context, query, year string) (string, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("query", query)
	if year != "" {
		params.Set("year", year)
	}
	searchURL := t.baseURL + "/search/movie?" + params.Encode()
	return backoff.Retry(ctx, func() (string, error) {
		if err := t.wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
		if err != nil {
			return "", backoff.Permanent(errors.Trace(err))
		}
		resp, err := t.client.Do(request)
		if err != nil {
			log.Logger().Warn("failed to search TMDB", zap.String("url", log.RedactURL(searchURL)), zap.Error(err))
			return "", errors.Trace(err)
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
			return "", errors.Errorf("TMDB search: %s", resp.Status)
		case resp.StatusCode != http.StatusOK:
			return "", backoff.Permanent(errors.NotValidf("TMDB search status %s", resp.Status))
		}
		var result searchResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", backoff.Permanent(errors.Annotate(err, "decode TMDB search"))
		}
		if len(result.Results) == 0 {
			return "", nil
		}
		return result.Results[0].PosterPath, nil
	}, backoff.WithBackOff(t.newBackOff()), backoff.WithMaxTries(t.maxRetries+1))
}

// wait blocks until the rate limiter admits a request.
func (t *TMDB) wait(ctx context.Context) error {
	delay := t.bucket.Take(1)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
