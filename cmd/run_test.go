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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/googlecloudplatform/taskpool/cfg"
	"github.com/googlecloudplatform/taskpool/internal/logger"
	"github.com/googlecloudplatform/taskpool/internal/taskctx"
	"github.com/googlecloudplatform/taskpool/internal/threadpool"
	"github.com/googlecloudplatform/taskpool/internal/workload"
	"github.com/googlecloudplatform/taskpool/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *cfg.Config {
	t.Helper()
	c := &cfg.Config{
		Logging: cfg.LoggingConfig{
			FilePath: filepath.Join(t.TempDir(), "taskpool.log"),
			Format:   "json",
			Severity: cfg.DebugLogSeverity,
			LogRotate: cfg.LogRotateLoggingConfig{
				MaxFileSizeMb:   1,
				BackupFileCount: 1,
			},
		},
		ThreadPool: cfg.ThreadPoolConfig{
			Concurrency: 2,
			Name:        "cmd-test",
			QueuePolicy: cfg.GroupFairQueuePolicy,
		},
		Workload: cfg.WorkloadConfig{
			Groups:        3,
			TasksPerGroup: 5,
			HotGroupTasks: 4,
			Submitters:    2,
		},
	}
	require.NoError(t, cfg.Rationalize(c))
	require.NoError(t, cfg.ValidateConfig(c))
	t.Cleanup(func() {
		_ = logger.InitLogFile(cfg.LoggingConfig{})
	})
	return c
}

func TestNewScheduleQueue(t *testing.T) {
	fifo, err := newScheduleQueue(cfg.FifoQueuePolicy)
	require.NoError(t, err)
	assert.IsType(t, &threadpool.FifoQueue[string, *taskctx.MetricsContext]{}, fifo)

	fair, err := newScheduleQueue(cfg.GroupFairQueuePolicy)
	require.NoError(t, err)
	assert.IsType(t, &threadpool.GroupFairQueue[string, *taskctx.MetricsContext]{}, fair)

	_, err = newScheduleQueue("lifo")
	assert.Error(t, err)
}

func TestNewPoolUsesConfiguredName(t *testing.T) {
	c := testConfig(t)

	p, err := newPool(c, metrics.NewNoopMetrics())

	require.NoError(t, err)
	assert.Equal(t, "cmd-test", p.Name())
	assert.NoError(t, p.Stop())
}

func TestRunPrintsSummaryAndLogs(t *testing.T) {
	c := testConfig(t)
	var out bytes.Buffer

	err := run(context.Background(), c, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "cmd-test (2 workers, group-fair)")
	assert.Contains(t, out.String(), "19/19 completed")
	assert.Contains(t, out.String(), "group hot")
	logs, err := os.ReadFile(c.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(logs), `"message":"Start taskpool/`)
}

func TestRunReturnsContextError(t *testing.T) {
	c := testConfig(t)
	c.Workload.TasksPerGroup = 1000
	c.Workload.TaskDuration = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	err := run(ctx, c, &out)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrintSummary(t *testing.T) {
	c := testConfig(t)
	res := &workload.Result{
		RunID:      uuid.MustParse("0b5a4a0e-3c1f-4f7e-9f1e-8d2b3a4c5d6e"),
		Submitted:  3,
		Completed:  3,
		PerGroup:   map[string]int{"b": 1, "a": 2},
		GroupOrder: []string{"b", "a"},
		MeanWait:   time.Millisecond,
		MaxWait:    2 * time.Millisecond,
		Elapsed:    time.Second,
	}
	var out bytes.Buffer

	printSummary(&out, c, res)

	assert.Equal(t, `run               0b5a4a0e-3c1f-4f7e-9f1e-8d2b3a4c5d6e
pool              cmd-test (2 workers, group-fair)
tasks             3/3 completed
elapsed           1s
wait              mean 1ms, max 2ms
group a           2
group b           1
completion order  b, a
`, out.String())
}
