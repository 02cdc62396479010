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

package threadpool

import (
	"testing"

	"github.com/jacobsa/syncutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTaskPool() (*taskPool[string, NoopContext], *funnel[*Task[string, NoopContext]]) {
	jobs := newFunnel[*Task[string, NoopContext]]()
	return newTaskPool[string, NoopContext](NewFifoQueue[string, NoopContext](), jobs), jobs
}

func TestTaskPool_StampsIncreasingIDs(t *testing.T) {
	p, jobs := newTestTaskPool()
	for range 10 {
		require.NoError(t, jobs.send(NewTask("g", func(NoopContext) {}, NoopContext{})))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range 10 {
		task, ok := p.popTask()
		require.True(t, ok)
		assert.Equal(t, uint64(i), task.ID())
	}
	_, ok := p.popTask()
	assert.False(t, ok)
	assert.Equal(t, uint64(10), p.nextTaskID)
	assert.Equal(t, uint64(10), p.popped)
}

func TestTaskPool_QueueServedBeforeFunnel(t *testing.T) {
	p, jobs := newTestTaskPool()
	require.NoError(t, jobs.send(NewTask("first", func(NoopContext) {}, NoopContext{})))
	p.mu.Lock()
	p.fillQueue()
	p.mu.Unlock()
	require.NoError(t, jobs.send(NewTask("second", func(NoopContext) {}, NoopContext{})))

	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.popTask()
	require.True(t, ok)
	assert.Equal(t, "first", task.GroupID())
	assert.Equal(t, 1, jobs.len())
}

func TestTaskPool_StopIsSticky(t *testing.T) {
	p, _ := newTestTaskPool()

	p.shutdown()

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.True(t, p.isStopped())
}

func TestTaskPool_InvariantViolationPanics(t *testing.T) {
	syncutil.EnableInvariantChecking()
	p, _ := newTestTaskPool()
	p.mu.Lock()
	p.popped = 5

	assert.Panics(t, p.mu.Unlock)
}
