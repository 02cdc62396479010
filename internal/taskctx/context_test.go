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

package taskctx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/googlecloudplatform/taskpool/internal/threadpool"
	"github.com/googlecloudplatform/taskpool/metrics"
	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ threadpool.Context = &MetricsContext{}
var _ threadpool.ContextFactory[*MetricsContext] = &Factory{}

type fakeMetricHandle struct {
	metrics.MetricHandle

	mu        sync.Mutex
	submitted map[string]int64
	completed map[string]int64
	waits     []time.Duration
	runs      []time.Duration
}

func newFakeMetricHandle() *fakeMetricHandle {
	return &fakeMetricHandle{
		submitted: make(map[string]int64),
		completed: make(map[string]int64),
	}
}

func (f *fakeMetricHandle) TaskpoolTasksSubmittedCount(inc int64, pool string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted[pool] += inc
}

func (f *fakeMetricHandle) TaskpoolTasksCompletedCount(inc int64, pool string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[pool] += inc
}

func (f *fakeMetricHandle) TaskpoolTaskWaitLatency(_ context.Context, d time.Duration, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
}

func (f *fakeMetricHandle) TaskpoolTaskRunLatency(_ context.Context, d time.Duration, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, d)
}

func newSimulatedClock() *timeutil.SimulatedClock {
	clock := &timeutil.SimulatedClock{}
	clock.SetTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return clock
}

func TestSetAndGet(t *testing.T) {
	ctx := NewFactory("p", newSimulatedClock(), nil).CreateContext()

	assert.Equal(t, uint64(0), ctx.Get("missing"))
	ctx.Set("k", 42)
	assert.Equal(t, uint64(42), ctx.Get("k"))
	ctx.Set("k", 7)
	assert.Equal(t, uint64(7), ctx.Get("k"))
}

func TestLifecycleReportsLatencies(t *testing.T) {
	clock := newSimulatedClock()
	handle := newFakeMetricHandle()
	f := NewFactory("pool-a", clock, handle)

	ctx := f.CreateContext()
	clock.AdvanceTime(3 * time.Millisecond)
	ctx.OnStart()
	clock.AdvanceTime(5 * time.Millisecond)
	ctx.OnComplete()

	assert.Equal(t, int64(1), handle.submitted["pool-a"])
	assert.Equal(t, int64(1), handle.completed["pool-a"])
	assert.Equal(t, []time.Duration{3 * time.Millisecond}, handle.waits)
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, handle.runs)
	assert.Equal(t, 3*time.Millisecond, ctx.WaitTime())
	assert.Equal(t, 5*time.Millisecond, ctx.RunTime())
	assert.Equal(t, uint64(clock.Now().UnixNano()), ctx.Get(FinishTimeKey))
}

func TestTimesAreZeroBeforeTheyHappen(t *testing.T) {
	ctx := NewFactory("p", newSimulatedClock(), nil).CreateContext()

	assert.NotZero(t, ctx.Get(SubmitTimeKey))
	assert.Zero(t, ctx.WaitTime())
	assert.Zero(t, ctx.RunTime())
}

func TestNewFactoryDefaults(t *testing.T) {
	f := NewFactory("p", nil, nil)

	assert.NotNil(t, f.clock)
	assert.NotNil(t, f.handle)
	assert.NotPanics(t, func() {
		ctx := f.CreateContext()
		ctx.OnStart()
		ctx.OnComplete()
	})
}

func TestFactoryWithThreadPool(t *testing.T) {
	const numTasks = 20
	handle := newFakeMetricHandle()
	f := NewFactory("bench", timeutil.RealClock(), handle)
	pool := threadpool.New[string, *MetricsContext]("bench", 3, threadpool.NewFifoQueue[string, *MetricsContext](), f)

	for i := range numTasks {
		pool.Execute("g", func(ctx *MetricsContext) {
			ctx.Set("index", uint64(i))
		})
	}

	assert.Eventually(t, func() bool { return pool.GetTaskCount() == 0 }, 5*time.Second, time.Millisecond)
	require.NoError(t, pool.Stop())
	handle.mu.Lock()
	defer handle.mu.Unlock()
	assert.Equal(t, int64(numTasks), handle.submitted["bench"])
	assert.Equal(t, int64(numTasks), handle.completed["bench"])
	assert.Len(t, handle.waits, numTasks)
	assert.Len(t, handle.runs, numTasks)
}
