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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validLogRotateConfig() LogRotateLoggingConfig {
	return LogRotateLoggingConfig{
		BackupFileCount: 0,
		Compress:        false,
		MaxFileSizeMb:   1,
	}
}

func validConfig() *Config {
	return &Config{
		Logging:    LoggingConfig{LogRotate: validLogRotateConfig()},
		ThreadPool: ThreadPoolConfig{Concurrency: 2},
		Workload:   WorkloadConfig{Groups: 1, Submitters: 1, TaskDuration: time.Millisecond},
	}
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "Valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "Zero max file size",
			mutate:  func(c *Config) { c.Logging.LogRotate.MaxFileSizeMb = 0 },
			wantErr: "max-file-size-mb",
		},
		{
			name:    "Negative backup count",
			mutate:  func(c *Config) { c.Logging.LogRotate.BackupFileCount = -1 },
			wantErr: "backup-file-count",
		},
		{
			name:    "Unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "log format",
		},
		{
			name:    "Zero concurrency",
			mutate:  func(c *Config) { c.ThreadPool.Concurrency = 0 },
			wantErr: ConcurrencyInvalidValueError,
		},
		{
			name:    "Zero groups",
			mutate:  func(c *Config) { c.Workload.Groups = 0 },
			wantErr: GroupsInvalidValueError,
		},
		{
			name:    "Zero submitters",
			mutate:  func(c *Config) { c.Workload.Submitters = 0 },
			wantErr: SubmittersInvalidValueError,
		},
		{
			name:    "Negative task duration",
			mutate:  func(c *Config) { c.Workload.TaskDuration = -time.Second },
			wantErr: "task-duration",
		},
		{
			name:    "Negative rate",
			mutate:  func(c *Config) { c.Workload.SubmitRateHz = -1 },
			wantErr: "submit-rate-hz",
		},
		{
			name:    "Port out of range",
			mutate:  func(c *Config) { c.Metrics.PrometheusPort = 70000 },
			wantErr: "prometheus-port",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)

			actualErr := ValidateConfig(c)

			if tc.wantErr == "" {
				assert.NoError(t, actualErr)
			} else {
				assert.ErrorContains(t, actualErr, tc.wantErr)
			}
		})
	}
}
