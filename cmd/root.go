// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"

	"github.com/googlecloudplatform/taskpool/cfg"
	"github.com/googlecloudplatform/taskpool/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NewRootCmd returns the taskpool command. Once the flags and the optional
// config file are merged, rationalized and validated, the resulting config is
// handed to runFn.
func NewRootCmd(runFn func(*cfg.Config) error) (*cobra.Command, error) {
	var (
		cfgFile     string
		printConfig bool
	)
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "taskpool [flags]",
		Short: "Run a synthetic grouped workload on a bounded worker pool",
		Long: `taskpool drives a fixed-size pool of workers with tasks tagged by group
and reports how the schedule queue ordered them. The fifo policy runs tasks
in submission order; the group-fair policy keeps a burst of one group from
starving the others.`,
		Version:       common.GetVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			if printConfig {
				return writeConfig(cmd, c)
			}
			return runFn(c)
		},
	}

	rootCmd.SetVersionTemplate("taskpool version {{.Version}}\n")
	rootCmd.Flags().StringVar(&cfgFile, "config-file", "", "Path to a yaml config file. Flags override values from the file.")
	rootCmd.Flags().BoolVar(&printConfig, "print-config", false, "Print the effective config as yaml and exit.")
	if err := cfg.BindFlags(v, rootCmd.Flags()); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}
	return rootCmd, nil
}

func loadConfig(v *viper.Viper, cfgFile string) (*cfg.Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error while reading the config file: %w", err)
		}
	}

	var c cfg.Config
	if err := v.Unmarshal(&c, viper.DecodeHook(cfg.DecodeHook()), cfg.UseYAMLTags); err != nil {
		return nil, fmt.Errorf("error while unmarshaling the config: %w", err)
	}
	if err := cfg.Rationalize(&c); err != nil {
		return nil, fmt.Errorf("error while rationalizing the config: %w", err)
	}
	if err := cfg.ValidateConfig(&c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func writeConfig(cmd *cobra.Command, c *cfg.Config) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error while marshaling the config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// Execute runs the taskpool command with os.Args and exits non-zero on
// failure.
func Execute() {
	rootCmd, err := NewRootCmd(Run)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err = rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
