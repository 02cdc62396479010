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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/googlecloudplatform/taskpool/internal/logger"
)

// ThreadPool executes tasks on a fixed set of worker goroutines. Each task is
// submitted with a group id, and when a worker becomes free it takes the task
// chosen by the ScheduleQueue given at construction.
//
// Submission never blocks: tasks go through an unbounded hand-off funnel and
// are moved into the schedule queue, with increasing ids, by the next worker
// that looks for work.
type ThreadPool[T comparable, C Context] struct {
	name     string
	taskPool *taskPool[T, C]
	jobs     *funnel[*Task[T, C]]

	// Tasks submitted and not yet completed.
	taskCount *atomic.Int64

	ctxFactory ContextFactory[C]

	// Serializes Stop.
	stopMu sync.Mutex

	// GUARDED_BY(stopMu)
	workers []*worker[T, C]
}

type options struct {
	exitOnPanic bool
}

// Option customizes a ThreadPool.
type Option func(*options)

// WithExitOnPanic makes a panicking job crash the process instead of retiring
// only the worker that ran it.
func WithExitOnPanic(exit bool) Option {
	return func(o *options) {
		o.exitOnPanic = exit
	}
}

// New starts a pool of numThreads workers named after name. It panics if
// numThreads is less than one or if queue or f is nil.
func New[T comparable, C Context](
	name string,
	numThreads int,
	queue ScheduleQueue[T, C],
	f ContextFactory[C],
	opts ...Option) *ThreadPool[T, C] {
	if numThreads < 1 {
		panic(fmt.Sprintf("threadpool: invalid number of threads %d for pool %q", numThreads, name))
	}
	if queue == nil || f == nil {
		panic(fmt.Sprintf("threadpool: nil schedule queue or context factory for pool %q", name))
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	jobs := newFunnel[*Task[T, C]]()
	tp := &ThreadPool[T, C]{
		name:       name,
		taskPool:   newTaskPool(queue, jobs),
		jobs:       jobs,
		taskCount:  new(atomic.Int64),
		ctxFactory: f,
		workers:    make([]*worker[T, C], 0, numThreads),
	}

	for i := range numThreads {
		w := newWorker(fmt.Sprintf("%s-%d", name, i), tp.taskPool, tp.taskCount, o.exitOnPanic)
		tp.workers = append(tp.workers, w)
		go w.run()
	}

	logger.Debugf("threadpool: started pool %q with %d workers", name, numThreads)
	return tp
}

// Name returns the name the pool was created with.
func (tp *ThreadPool[T, C]) Name() string {
	return tp.name
}

// Execute queues job under group gid and returns immediately. The job runs
// later on one of the workers with a context created here, on the caller's
// goroutine. Execute is safe for concurrent use; calling it after Stop is a
// programming error and panics.
func (tp *ThreadPool[T, C]) Execute(gid T, job func(C)) {
	ctx := tp.ctxFactory.CreateContext()
	task := NewTask(gid, job, ctx)

	// Counted before the send so a fast worker never drives the count below zero.
	tp.taskCount.Add(1)
	if err := tp.jobs.send(task); err != nil {
		tp.taskCount.Add(-1)
		panic(fmt.Sprintf("threadpool: pool %q: %v", tp.name, err))
	}

	// The task is not in the schedule queue yet, but the woken worker drains
	// the funnel itself before giving up.
	tp.taskPool.notifyOne()
}

// GetTaskCount returns the number of tasks submitted and not yet completed.
// It is a gauge read without the pool lock: a task is counted from the moment
// it is submitted until its job and OnComplete have returned.
func (tp *ThreadPool[T, C]) GetTaskCount() int {
	return int(tp.taskCount.Load())
}

// Stop tells every worker to exit once its current task is done, and waits for
// all of them. Tasks still queued are never run. The returned error joins a
// *JoinError for every worker that did not exit cleanly. Calling Stop again
// waits for nothing and returns nil.
func (tp *ThreadPool[T, C]) Stop() error {
	tp.stopMu.Lock()
	defer tp.stopMu.Unlock()

	tp.taskPool.shutdown()

	var errs []error
	for _, w := range tp.workers {
		if err := w.join(); err != nil {
			errs = append(errs, &JoinError{Worker: w.name, Err: err})
		}
	}
	tp.workers = nil
	tp.jobs.close()

	if err := errors.Join(errs...); err != nil {
		logger.Errorf("threadpool: pool %q stopped with errors: %v", tp.name, err)
		return err
	}

	logger.Infof("threadpool: pool %q stopped, %d tasks left unfinished", tp.name, tp.GetTaskCount())
	return nil
}
