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

package config

import (
	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the configuration for the indicator pipeline.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Indicator IndicatorConfig `mapstructure:"indicator"`
}

// DataConfig names the input and output files.
type DataConfig struct {
	// InputFile is a TSV file with one `user TAB item` interaction per line,
	// grouped by user.
	InputFile string `mapstructure:"inputfile"`
	// OutputFile receives one JSON object per item.
	OutputFile string `mapstructure:"outputfile"`
}

// IndicatorConfig holds the training parameters.
type IndicatorConfig struct {
	// NumIndicators is the number of indicators computed per item.
	NumIndicators int `mapstructure:"num_indicators"`
	// MaxInteractionsPerUser caps the number of items retained per user (f_max).
	MaxInteractionsPerUser int `mapstructure:"f_max"`
	// MaxInteractionsPerItem caps the expected retained occurrences per item (k_max).
	MaxInteractionsPerItem int `mapstructure:"k_max"`
	// Seed fixes the sampling RNG. Zero draws a seed from the clock.
	Seed int64 `mapstructure:"seed"`
	// Jobs is the number of workers used to score items.
	Jobs int `mapstructure:"jobs"`
}

// GetDefaultConfig returns a default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Indicator: IndicatorConfig{
			NumIndicators:          10,
			MaxInteractionsPerUser: 500,
			MaxInteractionsPerItem: 500,
			Jobs:                   1,
		},
	}
}

// AddFlags adds configuration flags to the flag set.
func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringP("inputfile", "i", "", "input file with one tab-separated user-item interaction per line, grouped by user (required)")
	flagSet.StringP("outputfile", "o", "", "output file for computed indicators, one JSON object per item (required)")
	flagSet.IntP("num-indicators", "n", 10, "number of indicators to compute per item")
	flagSet.Int("f-max", 500, "maximum number of interactions to account for per user")
	flagSet.Int("k-max", 500, "maximum number of interactions to account for per item")
	flagSet.Int64("seed", 0, "seed of the sampling RNG, 0 draws a seed from the clock")
	flagSet.Int("jobs", 1, "number of workers used to score items")
}

// LoadConfig loads the configuration from an optional config file and the flag set.
// Flags changed on the command line override values from the config file.
func LoadConfig(configPath string, flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	// defaults
	defaults := GetDefaultConfig()
	v.SetDefault("indicator.num_indicators", defaults.Indicator.NumIndicators)
	v.SetDefault("indicator.f_max", defaults.Indicator.MaxInteractionsPerUser)
	v.SetDefault("indicator.k_max", defaults.Indicator.MaxInteractionsPerItem)
	v.SetDefault("indicator.seed", defaults.Indicator.Seed)
	v.SetDefault("indicator.jobs", defaults.Indicator.Jobs)
	// config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	// flags
	bindings := map[string]string{
		"data.inputfile":           "inputfile",
		"data.outputfile":          "outputfile",
		"indicator.num_indicators": "num-indicators",
		"indicator.f_max":          "f-max",
		"indicator.k_max":          "k-max",
		"indicator.seed":           "seed",
		"indicator.jobs":           "jobs",
	}
	for key, flag := range bindings {
		if lookup := flagSet.Lookup(flag); lookup != nil {
			if err := v.BindPFlag(key, lookup); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	// unmarshal
	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}
