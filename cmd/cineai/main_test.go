// Copyright 2022 gorse Project Authors
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

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/model"
	"github.com/stretchr/testify/assert"
)

func writeDataset(t *testing.T) string {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "ratings.csv"), []byte(
		"userId,movieId,rating,timestamp\n1,1,4.0,964982703\n1,2,4.5,964982224\n2,1,3.0,964983815\n"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "movies.csv"), []byte(
		"movieId,title,genres\n1,Toy Story (1995),Adventure|Animation\n2,Jumanji (1995),Adventure|Children\n"), 0644))
	return dir
}

func TestLoadConfig(t *testing.T) {
	assert.NoError(t, recommendCommand.ParseFlags([]string{"--data-dir", "/tmp/ml-100k", "-a", "svd", "--rank", "5"}))
	cfg, err := loadConfig(recommendCommand)
	assert.NoError(t, err)
	assert.Equal(t, "/tmp/ml-100k", cfg.Dataset.Dir)
	opts := commandOptions(recommendCommand)
	assert.Equal(t, model.SVDAlg, opts.Algorithm)
	assert.Equal(t, 5, opts.Rank)
	assert.Zero(t, opts.K)
}

func TestCommands(t *testing.T) {
	log.CloseLogger()
	dir := writeDataset(t)
	for _, args := range [][]string{
		{"recommend", "--data-dir", dir, "-u", "2", "-k", "1"},
		{"evaluate", "--data-dir", dir, "-a", "all"},
	} {
		rootCommand.SetArgs(args)
		assert.NoError(t, rootCommand.ExecuteContext(context.Background()), args)
	}
	rootCommand.SetArgs([]string{"recommend", "--data-dir", dir, "-u", "100"})
	assert.Error(t, rootCommand.ExecuteContext(context.Background()))
}
