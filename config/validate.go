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
)

// Validate rejects configurations that must not reach the pipeline.
func (config *Config) Validate() error {
	if config.Data.InputFile == "" {
		return errors.New("value of `data.inputfile` must not be empty")
	}
	if config.Data.OutputFile == "" {
		return errors.New("value of `data.outputfile` must not be empty")
	}
	if err := validatePositive("indicator.num_indicators", config.Indicator.NumIndicators); err != nil {
		return err
	}
	if err := validatePositive("indicator.f_max", config.Indicator.MaxInteractionsPerUser); err != nil {
		return err
	}
	if err := validatePositive("indicator.k_max", config.Indicator.MaxInteractionsPerItem); err != nil {
		return err
	}
	if err := validatePositive("indicator.jobs", config.Indicator.Jobs); err != nil {
		return err
	}
	return nil
}

func validatePositive(name string, val int) error {
	if val <= 0 {
		return errors.Errorf("value of `%s` must be positive, but the current value is %d", name, val)
	}
	return nil
}
