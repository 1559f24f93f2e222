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
	"fmt"
	"os"
	"os/signal"

	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/cmd/version"
	"github.com/cineai/cineai/config"
	"github.com/cineai/cineai/engine"
	"github.com/cineai/cineai/poster"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "cineai",
	Short: "Movie recommendations from MovieLens ratings.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Print(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("data-dir", "", "directory of a MovieLens dataset")
	rootCommand.Flags().BoolP("version", "v", false, "cineai version")
}

// loadConfig loads the configuration file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.Dataset.Dir, _ = cmd.Flags().GetString("data-dir")
	}
	return cfg, nil
}

// loadEngine creates an engine over the configured dataset.
func loadEngine(ctx context.Context, cmd *cobra.Command) (*config.Config, *engine.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	e := engine.NewEngine(cfg, poster.NewLookup(cfg.Poster))
	if err = e.Load(ctx); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return cfg, e, nil
}

// commandOptions reads algorithm flags. Unset flags keep configured defaults.
func commandOptions(cmd *cobra.Command) engine.Options {
	var opts engine.Options
	opts.Algorithm, _ = cmd.Flags().GetString("algorithm")
	opts.K, _ = cmd.Flags().GetInt("k")
	opts.Rank, _ = cmd.Flags().GetInt("rank")
	opts.Similarity, _ = cmd.Flags().GetString("similarity")
	return opts
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("algorithm", "a", "", "algorithm (usercf, itemcf or svd)")
	cmd.Flags().IntP("k", "k", 0, "number of neighbors")
	cmd.Flags().Int("rank", 0, "number of latent factors")
	cmd.Flags().String("similarity", "", "similarity (cosine, pearson or msd)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
