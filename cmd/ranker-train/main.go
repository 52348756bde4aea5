// Copyright 2023 venues-ranker Project Authors
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

	"github.com/spf13/cobra"
	"github.com/venues-ranker/venues-ranker/base/log"
	"github.com/venues-ranker/venues-ranker/cmd/version"
	"github.com/venues-ranker/venues-ranker/config"
	"github.com/venues-ranker/venues-ranker/storage/blob"
	"github.com/venues-ranker/venues-ranker/trainer"
	"go.uber.org/zap"
)

var trainCommand = &cobra.Command{
	Use:   "ranker-train",
	Short: "The venue ranking training pipeline.",
	Run: func(cmd *cobra.Command, args []string) {
		// show version
		showVersion, _ := cmd.PersistentFlags().GetBool("version")
		if showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debugMode, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debugMode)
		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		cfg.Validate()
		// run the pipeline
		store, err := blob.NewS3(cfg.S3)
		if err != nil {
			log.Logger().Fatal("failed to connect object storage", zap.Error(err))
		}
		pipeline := trainer.NewPipeline(cfg, store)
		pipeline.Jobs = cfg.Server.Workers
		if err = pipeline.Run(context.Background()); err != nil {
			log.Logger().Fatal("training pipeline failed",
				zap.String("state", string(pipeline.State())), zap.Error(err))
		}
	},
}

func init() {
	trainCommand.PersistentFlags().BoolP("version", "v", false, "ranker version")
	trainCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	trainCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	log.AddFlags(trainCommand.PersistentFlags())
}

func main() {
	if err := trainCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
