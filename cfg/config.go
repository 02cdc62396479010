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

package cfg

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppName string `yaml:"app-name"`

	Debug DebugConfig `yaml:"debug"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`

	ThreadPool ThreadPoolConfig `yaml:"thread-pool"`

	Workload WorkloadConfig `yaml:"workload"`
}

type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation"`

	ExitOnWorkerPanic bool `yaml:"exit-on-worker-panic"`
}

type LogRotateLoggingConfig struct {
	BackupFileCount int64 `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`

	MaxFileSizeMb int64 `yaml:"max-file-size-mb"`
}

type LoggingConfig struct {
	FilePath string `yaml:"file-path"`

	Format string `yaml:"format"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`

	Severity LogSeverity `yaml:"severity"`
}

type MetricsConfig struct {
	PrometheusPort int64 `yaml:"prometheus-port"`
}

type ThreadPoolConfig struct {
	Concurrency int64 `yaml:"concurrency"`

	Name string `yaml:"name"`

	QueuePolicy QueuePolicy `yaml:"queue-policy"`
}

type WorkloadConfig struct {
	Groups int64 `yaml:"groups"`

	HotGroupTasks int64 `yaml:"hot-group-tasks"`

	SubmitRateHz float64 `yaml:"submit-rate-hz"`

	Submitters int64 `yaml:"submitters"`

	TaskDuration time.Duration `yaml:"task-duration"`

	TasksPerGroup int64 `yaml:"tasks-per-group"`
}

type flagBinding struct {
	name   string
	key    string
	define func(fs *pflag.FlagSet, name string)
}

var flagBindings = []flagBinding{
	{"app-name", "app-name", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "", "The application name, used as the default pool name.")
	}},
	{"debug_invariants", "debug.exit-on-invariant-violation", func(fs *pflag.FlagSet, n string) {
		fs.BoolP(n, "", false, "Exit when internal invariants are violated.")
	}},
	{"debug_worker_panic", "debug.exit-on-worker-panic", func(fs *pflag.FlagSet, n string) {
		fs.BoolP(n, "", true, "Crash the process when a task panics. When false, only the worker running the task is retired.")
	}},
	{"log-file", "logging.file-path", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "", "The file for storing logs. When not provided, logs are printed to stdout.")
	}},
	{"log-format", "logging.format", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "text", "The format of the log file: 'text' or 'json'.")
	}},
	{"log-severity", "logging.severity", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "info", "Specifies the logging severity expressed as one of [trace, debug, info, warning, error, off]")
	}},
	{"log-rotate-max-file-size-mb", "logging.log-rotate.max-file-size-mb", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 512, "The maximum size in megabytes that a log file can reach before it is rotated.")
	}},
	{"log-rotate-backup-file-count", "logging.log-rotate.backup-file-count", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 10, "The maximum number of backup log files to retain after they have been rotated. 0 retains all.")
	}},
	{"log-rotate-compress", "logging.log-rotate.compress", func(fs *pflag.FlagSet, n string) {
		fs.BoolP(n, "", true, "Controls whether the rotated log files should be compressed using gzip.")
	}},
	{"prometheus-port", "metrics.prometheus-port", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 0, "Expose Prometheus metrics endpoint on this port. 0 disables the endpoint.")
	}},
	{"pool-name", "thread-pool.name", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "", "Name of the pool, used as the worker name prefix.")
	}},
	{"concurrency", "thread-pool.concurrency", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 0, "Number of workers. 0 uses the number of CPUs.")
	}},
	{"queue-policy", "thread-pool.queue-policy", func(fs *pflag.FlagSet, n string) {
		fs.StringP(n, "", "fifo", "Scheduling policy of the pool queue: 'fifo' or 'group-fair'.")
	}},
	{"groups", "workload.groups", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 4, "Number of task groups submitted by the workload.")
	}},
	{"tasks-per-group", "workload.tasks-per-group", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 100, "Number of tasks submitted for every group.")
	}},
	{"hot-group-tasks", "workload.hot-group-tasks", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 0, "Extra tasks submitted up front for a single hot group.")
	}},
	{"task-duration", "workload.task-duration", func(fs *pflag.FlagSet, n string) {
		fs.DurationP(n, "", 10*time.Millisecond, "How long every synthetic task runs.")
	}},
	{"submit-rate-hz", "workload.submit-rate-hz", func(fs *pflag.FlagSet, n string) {
		fs.Float64P(n, "", 0, "Maximum task submissions per second across submitters. 0 means unlimited.")
	}},
	{"submitters", "workload.submitters", func(fs *pflag.FlagSet, n string) {
		fs.IntP(n, "", 1, "Number of goroutines submitting tasks concurrently.")
	}},
}

// BindFlags defines every config flag on flagSet and binds it to its config
// key in v.
func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	var err error

	for _, b := range flagBindings {
		b.define(flagSet, b.name)

		err = v.BindPFlag(b.key, flagSet.Lookup(b.name))
		if err != nil {
			return err
		}
	}

	return nil
}
