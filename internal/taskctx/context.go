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

// Package taskctx provides a threadpool.Context that measures how long each
// task waited in the queue and how long it ran, and reports both to a
// metrics.MetricHandle.
package taskctx

import (
	"context"
	"sync"
	"time"

	"github.com/googlecloudplatform/taskpool/metrics"
	"github.com/jacobsa/timeutil"
)

// Keys stamped by the context itself. Values are Unix nanoseconds.
const (
	SubmitTimeKey = "submit_time_ns"
	StartTimeKey  = "start_time_ns"
	FinishTimeKey = "finish_time_ns"
)

// MetricsContext is a key/value store stamped with the submit, start and
// finish times of its task. It is safe for concurrent use.
type MetricsContext struct {
	clock  timeutil.Clock
	handle metrics.MetricHandle
	pool   string

	mu sync.Mutex
	// GUARDED_BY(mu)
	values map[string]uint64
}

func newMetricsContext(clock timeutil.Clock, handle metrics.MetricHandle, pool string) *MetricsContext {
	c := &MetricsContext{
		clock:  clock,
		handle: handle,
		pool:   pool,
		values: make(map[string]uint64),
	}
	c.stamp(SubmitTimeKey)
	return c
}

// Set stores value under key, replacing any previous value.
func (c *MetricsContext) Set(key string, value uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns the value stored under key, or 0 if there is none.
func (c *MetricsContext) Get(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[key]
}

// OnStart stamps the start time and reports the time spent queued.
func (c *MetricsContext) OnStart() {
	now := c.stamp(StartTimeKey)
	c.handle.TaskpoolTaskWaitLatency(context.Background(), c.since(SubmitTimeKey, now), c.pool)
}

// OnComplete stamps the finish time and reports the run time.
func (c *MetricsContext) OnComplete() {
	now := c.stamp(FinishTimeKey)
	c.handle.TaskpoolTaskRunLatency(context.Background(), c.since(StartTimeKey, now), c.pool)
	c.handle.TaskpoolTasksCompletedCount(1, c.pool)
}

// WaitTime is the time between submission and start, or 0 if the task has
// not started.
func (c *MetricsContext) WaitTime() time.Duration {
	return c.between(SubmitTimeKey, StartTimeKey)
}

// RunTime is the time between start and completion, or 0 if the task has not
// completed.
func (c *MetricsContext) RunTime() time.Duration {
	return c.between(StartTimeKey, FinishTimeKey)
}

func (c *MetricsContext) stamp(key string) time.Time {
	now := c.clock.Now()
	c.Set(key, uint64(now.UnixNano()))
	return now
}

func (c *MetricsContext) since(key string, now time.Time) time.Duration {
	from := c.Get(key)
	if from == 0 {
		return 0
	}
	return now.Sub(time.Unix(0, int64(from)))
}

func (c *MetricsContext) between(fromKey, toKey string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, to := c.values[fromKey], c.values[toKey]
	if from == 0 || to == 0 {
		return 0
	}
	return time.Duration(to - from)
}

// Factory creates MetricsContexts for one pool and counts every submission.
type Factory struct {
	clock  timeutil.Clock
	handle metrics.MetricHandle
	pool   string
}

// NewFactory returns a Factory. A nil clock means the real clock and a nil
// handle disables reporting.
func NewFactory(pool string, clock timeutil.Clock, handle metrics.MetricHandle) *Factory {
	if clock == nil {
		clock = timeutil.RealClock()
	}
	if handle == nil {
		handle = metrics.NewNoopMetrics()
	}
	return &Factory{clock: clock, handle: handle, pool: pool}
}

// CreateContext is safe for concurrent use.
func (f *Factory) CreateContext() *MetricsContext {
	f.handle.TaskpoolTasksSubmittedCount(1, f.pool)
	return newMetricsContext(f.clock, f.handle, f.pool)
}
