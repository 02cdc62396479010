// Copyright 2024 Google LLC
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
	"path/filepath"
	"runtime"
)

// DefaultPoolName is used when neither the pool nor the app carries a name.
const DefaultPoolName = "taskpool"

func resolvePoolName(c *Config) {
	if c.ThreadPool.Name != "" {
		return
	}
	if c.AppName != "" {
		c.ThreadPool.Name = c.AppName
		return
	}
	c.ThreadPool.Name = DefaultPoolName
}

func resolveConcurrency(tp *ThreadPoolConfig) {
	if tp.Concurrency == 0 {
		tp.Concurrency = int64(runtime.NumCPU())
	}
}

func resolveLoggingConfig(l *LoggingConfig) error {
	if l.FilePath == "" {
		return nil
	}
	p, err := filepath.Abs(l.FilePath)
	if err != nil {
		return err
	}
	l.FilePath = p
	return nil
}

// Rationalize updates the config fields based on the values of other fields.
func Rationalize(c *Config) error {
	if err := resolveLoggingConfig(&c.Logging); err != nil {
		return err
	}

	if c.Debug.ExitOnInvariantViolation {
		c.Logging.Severity = TraceLogSeverity
	}
	if c.ThreadPool.QueuePolicy == "" {
		c.ThreadPool.QueuePolicy = FifoQueuePolicy
	}

	resolvePoolName(c)
	resolveConcurrency(&c.ThreadPool)

	return nil
}
