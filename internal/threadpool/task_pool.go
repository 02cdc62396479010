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
	"fmt"
	"sync"

	"github.com/jacobsa/syncutil"
)

// taskPool is the state shared by all workers of a ThreadPool. Everything in
// it is guarded by mu, and cond is signalled whenever a task may have become
// available or the pool was stopped.
type taskPool[T comparable, C Context] struct {
	mu   syncutil.InvariantMutex
	cond *sync.Cond

	// Id given to the next task moved out of jobs.
	//
	// GUARDED_BY(mu)
	nextTaskID uint64

	// Number of tasks handed to workers so far.
	//
	// INVARIANT: popped <= nextTaskID
	//
	// GUARDED_BY(mu)
	popped uint64

	// GUARDED_BY(mu)
	queue ScheduleQueue[T, C]

	// GUARDED_BY(mu)
	stopped bool

	// Tasks submitted but not yet id-stamped. The funnel has its own lock;
	// only a holder of mu drains it.
	jobs *funnel[*Task[T, C]]
}

func newTaskPool[T comparable, C Context](
	queue ScheduleQueue[T, C],
	jobs *funnel[*Task[T, C]]) *taskPool[T, C] {
	p := &taskPool[T, C]{
		queue: queue,
		jobs:  jobs,
	}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *taskPool[T, C]) checkInvariants() {
	if p.queue == nil {
		panic("taskPool: nil schedule queue")
	}

	if p.popped > p.nextTaskID {
		panic(fmt.Sprintf("taskPool: popped %d tasks but stamped only %d", p.popped, p.nextTaskID))
	}
}

// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) onTaskStarted(gid T) {
	p.queue.OnTaskStarted(gid)
}

// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) onTaskFinished(gid T) {
	p.queue.OnTaskFinished(gid)
}

// popTask returns the next task chosen by the schedule queue. When the queue
// is empty it first moves whatever is waiting in the funnel into it.
//
// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) popTask() (*Task[T, C], bool) {
	task, ok := p.queue.Pop()
	if !ok {
		p.fillQueue()
		task, ok = p.queue.Pop()
	}
	if ok {
		p.popped++
	}
	return task, ok
}

// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) fillQueue() {
	p.jobs.drain(func(task *Task[T, C]) {
		task.id = p.nextTaskID
		p.nextTaskID++
		p.queue.Push(task)
	})
}

// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) stop() {
	p.stopped = true
}

// LOCKS_REQUIRED(p.mu)
func (p *taskPool[T, C]) isStopped() bool {
	return p.stopped
}

// notifyOne wakes a single waiting worker. The lock is taken around the
// signal so that a worker between an empty drain and cond.Wait cannot miss it.
//
// LOCKS_EXCLUDED(p.mu)
func (p *taskPool[T, C]) notifyOne() {
	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}

// shutdown sets the stop flag and wakes every worker.
//
// LOCKS_EXCLUDED(p.mu)
func (p *taskPool[T, C]) shutdown() {
	p.mu.Lock()
	p.stop()
	p.cond.Broadcast()
	p.mu.Unlock()
}
