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
	"fmt"
	"os"

	"github.com/cineai/cineai/logics"
	"github.com/cineai/cineai/model"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var evaluateCommand = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate precision@k of algorithms on held-out ratings.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, e, err := loadEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		k, _ := cmd.Flags().GetInt("precision-k")
		if k == 0 {
			k = cfg.Recommend.PrecisionK
		}
		threshold := cfg.Recommend.Threshold
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetFloat64("threshold")
		}
		opts := commandOptions(cmd)
		algorithms := []string{opts.Algorithm}
		if opts.Algorithm == "all" {
			algorithms = model.Algorithms
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("algorithm", fmt.Sprintf("precision@%d", k), fmt.Sprintf("recall@%d", k),
			fmt.Sprintf("ndcg@%d", k), "users", "skipped")
		for _, algorithm := range algorithms {
			opts.Algorithm = algorithm
			opts = e.Options(opts)
			score, err := e.Evaluate(cmd.Context(), k, threshold, opts)
			if errors.Is(err, logics.ErrUndefinedMetric) {
				err = table.Append(opts.Algorithm, "N/A", "N/A", "N/A", score.Users, score.Skipped)
			} else if err != nil {
				return err
			} else {
				err = table.Append(opts.Algorithm, fmt.Sprintf("%.4f", score.Precision),
					fmt.Sprintf("%.4f", score.Recall), fmt.Sprintf("%.4f", score.NDCG), score.Users, score.Skipped)
			}
			if err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func init() {
	rootCommand.AddCommand(evaluateCommand)
	addModelFlags(evaluateCommand)
	evaluateCommand.Flags().Int("precision-k", 0, "length of ranked lists")
	evaluateCommand.Flags().Float64("threshold", 0, "minimum relevant rating")
}
