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

	"github.com/cineai/cineai/dataset"
	"github.com/spf13/cobra"
)

var downloadCommand = &cobra.Command{
	Use:   "download [name]",
	Short: "Download a built-in MovieLens dataset.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		name := cfg.Dataset.BuiltIn
		if len(args) > 0 {
			name = args[0]
		}
		dir := cfg.Dataset.CacheDir
		if dir == "" {
			dir = dataset.DefaultDatasetDir()
		}
		path, err := dataset.DownloadBuiltIn(cmd.Context(), name, dir)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	rootCommand.AddCommand(downloadCommand)
}
