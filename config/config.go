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

package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for the engine.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Model     ModelConfig     `mapstructure:"model"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Poster    PosterConfig    `mapstructure:"poster"`
	Server    ServerConfig    `mapstructure:"server"`
}

// DatasetConfig locates ratings and controls the train/test split. Dir takes
// precedence over BuiltIn.
type DatasetConfig struct {
	Dir            string `mapstructure:"dir"`
	BuiltIn        string `mapstructure:"builtin" validate:"omitempty,oneof=ml-100k ml-latest-small"`
	CacheDir       string `mapstructure:"cache_dir"`
	HoldoutPerUser int    `mapstructure:"holdout_per_user" validate:"gte=0"`
	Seed           int64  `mapstructure:"seed"`
}

type ModelConfig struct {
	Algorithm  string `mapstructure:"algorithm" validate:"oneof=usercf itemcf svd"`
	K          int    `mapstructure:"k" validate:"gte=1,lte=200"`
	Rank       int    `mapstructure:"rank" validate:"gte=1,lte=500"`
	Similarity string `mapstructure:"similarity" validate:"oneof=cosine pearson msd"`
	Jobs       int    `mapstructure:"jobs" validate:"gte=1"`
}

type RecommendConfig struct {
	TopN          int           `mapstructure:"top_n" validate:"gte=1"`
	PrecisionK    int           `mapstructure:"precision_k" validate:"gte=1"`
	Threshold     float64       `mapstructure:"threshold" validate:"gte=1,lte=5"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
	CacheCapacity uint64        `mapstructure:"cache_capacity"`
}

// PosterConfig configures the TMDB poster lookup. Posters fall back to
// placeholders if APIKey is empty.
type PosterConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url" validate:"url"`
	ImageBaseURL string        `mapstructure:"image_base_url" validate:"url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RateLimit    int           `mapstructure:"rate_limit" validate:"gte=1"`
	MaxRetries   uint          `mapstructure:"max_retries"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			BuiltIn:        "ml-100k",
			HoldoutPerUser: 5,
		},
		Model: ModelConfig{
			Algorithm:  "usercf",
			K:          20,
			Rank:       20,
			Similarity: "cosine",
			Jobs:       runtime.NumCPU(),
		},
		Recommend: RecommendConfig{
			TopN:          10,
			PrecisionK:    10,
			Threshold:     3.5,
			CacheTTL:      time.Hour,
			CacheCapacity: 16,
		},
		Poster: PosterConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Timeout:      5 * time.Second,
			RateLimit:    40,
			MaxRetries:   3,
			CacheTTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8087,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.dir", defaultConfig.Dataset.Dir)
	v.SetDefault("dataset.builtin", defaultConfig.Dataset.BuiltIn)
	v.SetDefault("dataset.cache_dir", defaultConfig.Dataset.CacheDir)
	v.SetDefault("dataset.holdout_per_user", defaultConfig.Dataset.HoldoutPerUser)
	v.SetDefault("dataset.seed", defaultConfig.Dataset.Seed)
	// [model]
	v.SetDefault("model.algorithm", defaultConfig.Model.Algorithm)
	v.SetDefault("model.k", defaultConfig.Model.K)
	v.SetDefault("model.rank", defaultConfig.Model.Rank)
	v.SetDefault("model.similarity", defaultConfig.Model.Similarity)
	v.SetDefault("model.jobs", defaultConfig.Model.Jobs)
	// [recommend]
	v.SetDefault("recommend.top_n", defaultConfig.Recommend.TopN)
	v.SetDefault("recommend.precision_k", defaultConfig.Recommend.PrecisionK)
	v.SetDefault("recommend.threshold", defaultConfig.Recommend.Threshold)
	v.SetDefault("recommend.cache_ttl", defaultConfig.Recommend.CacheTTL)
	v.SetDefault("recommend.cache_capacity", defaultConfig.Recommend.CacheCapacity)
	// [poster]
	v.SetDefault("poster.api_key", defaultConfig.Poster.APIKey)
	v.SetDefault("poster.base_url", defaultConfig.Poster.BaseURL)
	v.SetDefault("poster.image_base_url", defaultConfig.Poster.ImageBaseURL)
	v.SetDefault("poster.timeout", defaultConfig.Poster.Timeout)
	v.SetDefault("poster.rate_limit", defaultConfig.Poster.RateLimit)
	v.SetDefault("poster.max_retries", defaultConfig.Poster.MaxRetries)
	v.SetDefault("poster.cache_ttl", defaultConfig.Poster.CacheTTL)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
}

// LoadConfig loads configuration from a TOML file. Environment variables
// prefixed with CINEAI_ override file values, e.g. CINEAI_MODEL_K overrides
// model.k. An empty path loads defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix("CINEAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "read config %s", path)
		}
	}
	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges of the configuration.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}
