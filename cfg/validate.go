// Copyright 2024 Google Inc. All Rights Reserved.
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

package cfg

import (
	"fmt"
)

const (
	ConcurrencyInvalidValueError = "the value of concurrency for thread-pool must be at least 1"
	GroupsInvalidValueError      = "the value of groups for workload must be at least 1"
	SubmittersInvalidValueError  = "the value of submitters for workload must be at least 1"
)

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidLogFormat(format string) error {
	switch format {
	case "", "text", "json":
		return nil
	}
	return fmt.Errorf("log format %q is not one of [text, json]", format)
}

func isValidThreadPoolConfig(c *ThreadPoolConfig) error {
	if c.Concurrency < 1 {
		return fmt.Errorf(ConcurrencyInvalidValueError)
	}
	return nil
}

func isValidWorkloadConfig(c *WorkloadConfig) error {
	if c.Groups < 1 {
		return fmt.Errorf(GroupsInvalidValueError)
	}
	if c.Submitters < 1 {
		return fmt.Errorf(SubmittersInvalidValueError)
	}
	if c.TasksPerGroup < 0 || c.HotGroupTasks < 0 {
		return fmt.Errorf("task counts for workload can't be negative")
	}
	if c.TaskDuration < 0 {
		return fmt.Errorf("task-duration for workload can't be negative")
	}
	if c.SubmitRateHz < 0 {
		return fmt.Errorf("submit-rate-hz for workload can't be negative")
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}

	if err = isValidLogFormat(config.Logging.Format); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}

	if err = isValidThreadPoolConfig(&config.ThreadPool); err != nil {
		return fmt.Errorf("error parsing thread-pool config: %w", err)
	}

	if err = isValidWorkloadConfig(&config.Workload); err != nil {
		return fmt.Errorf("error parsing workload config: %w", err)
	}

	if config.Metrics.PrometheusPort < 0 || config.Metrics.PrometheusPort > 65535 {
		return fmt.Errorf("error parsing metrics config: invalid prometheus-port %d", config.Metrics.PrometheusPort)
	}

	return nil
}
