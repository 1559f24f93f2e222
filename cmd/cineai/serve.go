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
	"github.com/cineai/cineai/base/log"
	"github.com/cineai/cineai/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCommand = &cobra.Command{
	Use:   "serve",
	Short: "Start the RESTful API server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, e, err := loadEngine(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if err = server.NewRestServer(cfg, e).Serve(cmd.Context()); err != nil {
			return err
		}
		log.Logger().Info("stop cineai server successfully", zap.String("host", cfg.Server.Host))
		return nil
	},
}

func init() {
	rootCommand.AddCommand(serveCommand)
	serveCommand.Flags().String("host", "", "host of the RESTful API server")
	serveCommand.Flags().IntP("port", "p", 0, "port of the RESTful API server")
}
