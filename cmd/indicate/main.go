// Copyright 2025 gorse Project Authors
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
	"time"

	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gorse-io/indicate/base/log"
	"github.com/gorse-io/indicate/cmd/version"
	"github.com/gorse-io/indicate/config"
	"github.com/gorse-io/indicate/dataset"
	"github.com/gorse-io/indicate/model/indicator"
)

var indicateCommand = &cobra.Command{
	Use:   "indicate",
	Short: "Compute item-to-item indicators from a log of user-item interactions.",
	Long: "Compute item-to-item indicators from a log of user-item interactions.\n\n" +
		"The input is read twice: the first pass collects dictionaries and occurrence\n" +
		"statistics, the second pass builds down-sampled user rows and scores item pairs\n" +
		"with the log-likelihood ratio test. The input must be grouped by user.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		conf := loadConfig(cmd)
		if err := runIndicators(conf); err != nil {
			log.Logger().Fatal("failed to compute indicators", zap.Error(err))
		}
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend to each user the items indicated by the user's history.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := loadConfig(cmd)
		numRecommendations, _ := cmd.Flags().GetInt("num-recommendations")
		if numRecommendations <= 0 {
			log.Logger().Fatal("value of `num-recommendations` must be positive",
				zap.Int("num_recommendations", numRecommendations))
		}
		if err := runRecommend(conf, numRecommendations); err != nil {
			log.Logger().Fatal("failed to compute recommendations", zap.Error(err))
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Check the version of this build.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	indicateCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	indicateCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	indicateCommand.PersistentFlags().BoolP("version", "v", false, "indicate version")
	config.AddFlags(indicateCommand.PersistentFlags())
	log.AddFlags(indicateCommand.PersistentFlags())
	recommendCommand.Flags().Int("num-recommendations", 10, "number of items to recommend per user")
	indicateCommand.AddCommand(recommendCommand)
	indicateCommand.AddCommand(versionCommand)
}

func loadConfig(cmd *cobra.Command) *config.Config {
	debug, _ := cmd.Flags().GetBool("debug")
	log.SetLogger(cmd.Flags(), debug)
	configPath, _ := cmd.Flags().GetString("config")
	conf, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return conf
}

func trainConfig(conf *config.Config) indicator.Config {
	seed := conf.Indicator.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		log.Logger().Debug("seed drawn from the clock", zap.Int64("seed", seed))
	}
	return indicator.Config{
		NumIndicators:          conf.Indicator.NumIndicators,
		MaxInteractionsPerUser: conf.Indicator.MaxInteractionsPerUser,
		MaxInteractionsPerItem: conf.Indicator.MaxInteractionsPerItem,
		Jobs:                   conf.Indicator.Jobs,
		Seed:                   seed,
	}
}

// withProgress decorates a source with a progress spinner on standard error.
func withProgress(source dataset.Source, description string) dataset.Source {
	return func(handler dataset.InteractionFunc) error {
		bar := progressbar.NewOptions64(-1,
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionClearOnFinish())
		defer func() {
			_ = bar.Finish()
		}()
		return source(func(userId, itemId string) error {
			_ = bar.Add(1)
			return handler(userId, itemId)
		})
	}
}

func runIndicators(conf *config.Config) error {
	source := dataset.FromFile(conf.Data.InputFile)
	log.Logger().Info("compute data statistics (pass 1/2)",
		zap.String("input_file", conf.Data.InputFile))
	data, err := dataset.LoadDataset(withProgress(source, "pass 1/2"))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("found interactions",
		zap.Int64("n_interactions", data.NumFeedback),
		zap.Int("n_users", data.CountUsers()),
		zap.Int("n_items", data.CountItems()))
	log.Logger().Info("compute indicators (pass 2/2)",
		zap.Int("num_indicators", conf.Indicator.NumIndicators))
	start := time.Now()
	result, err := indicator.Train(data, withProgress(source, "pass 2/2"), trainConfig(conf))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("trained indicator model",
		zap.Int64("n_cooccurrences", result.NumCooccurrences),
		zap.Int64("train_time_ms", time.Since(start).Milliseconds()),
		zap.Int64("n_scored_items", result.NumScoredItems))
	return writeIndicators(conf.Data.OutputFile, data, result)
}

func writeIndicators(path string, data *dataset.Dataset, result *indicator.Result) error {
	writer, err := dataset.NewResultWriter(path)
	if err != nil {
		return errors.Trace(err)
	}
	for itemIndex, indicated := range result.Indicators {
		record := dataset.Indicators{
			ForItem: data.ItemIndex.ToName(int32(itemIndex)),
			IndicatedItems: lo.Map(indicated, func(other int32, _ int) string {
				return data.ItemIndex.ToName(other)
			}),
		}
		if err = writer.Write(record); err != nil {
			writer.Discard()
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Close())
}

func runRecommend(conf *config.Config, numRecommendations int) error {
	source := dataset.FromFile(conf.Data.InputFile)
	log.Logger().Info("compute data statistics (pass 1/3)",
		zap.String("input_file", conf.Data.InputFile))
	data, err := dataset.LoadDataset(withProgress(source, "pass 1/3"))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("found interactions",
		zap.Int64("n_interactions", data.NumFeedback),
		zap.Int("n_users", data.CountUsers()),
		zap.Int("n_items", data.CountItems()))
	log.Logger().Info("compute indicators (pass 2/3)",
		zap.Int("num_indicators", conf.Indicator.NumIndicators))
	result, err := indicator.Train(data, withProgress(source, "pass 2/3"), trainConfig(conf))
	if err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("load user histories (pass 3/3)")
	histories, err := dataset.LoadHistories(withProgress(source, "pass 3/3"), data)
	if err != nil {
		return errors.Trace(err)
	}
	recommendations := indicator.Recommend(histories, result.Indicators, numRecommendations)
	writer, err := dataset.NewResultWriter(conf.Data.OutputFile)
	if err != nil {
		return errors.Trace(err)
	}
	for userIndex, recommended := range recommendations {
		record := dataset.Recommendations{
			ForUser: data.UserIndex.ToName(int32(userIndex)),
			RecommendedItems: lo.Map(recommended, func(itemIndex int32, _ int) string {
				return data.ItemIndex.ToName(itemIndex)
			}),
		}
		if err = writer.Write(record); err != nil {
			writer.Discard()
			return errors.Trace(err)
		}
	}
	return errors.Trace(writer.Close())
}

func main() {
	if err := indicateCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
