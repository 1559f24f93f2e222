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
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend movies to a user.",
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, _ := cmd.Flags().GetInt("user")
		n, _ := cmd.Flags().GetInt("n")
		_, e, err := loadEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		opts := e.Options(commandOptions(cmd))
		recommendations, err := e.Recommend(cmd.Context(), userId, n, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Top %d movies for user %d (%s)\n", len(recommendations), userId, opts.Algorithm)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("rank", "item id", "title", "year", "genres", "score")
		for i, r := range recommendations {
			if err = table.Append(i+1, r.ItemId, r.Title, r.Year, strings.Join(r.Genres, "|"),
				fmt.Sprintf("%.3f", r.Score)); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func init() {
	rootCommand.AddCommand(recommendCommand)
	addModelFlags(recommendCommand)
	recommendCommand.Flags().IntP("user", "u", 1, "user id")
	recommendCommand.Flags().IntP("n", "n", 0, "number of recommendations")
}
