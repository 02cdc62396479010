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
	"runtime/debug"
	"sync/atomic"

	"github.com/googlecloudplatform/taskpool/internal/logger"
)

// worker is the loop run by one pool goroutine. It waits for a task, runs it
// outside the pool lock, and reports the finished group when it comes back
// for the next one.
type worker[T comparable, C Context] struct {
	name      string
	taskPool  *taskPool[T, C]
	taskCount *atomic.Int64

	// Re-raise job panics instead of retiring the worker.
	exitOnPanic bool

	// The task being run. Only touched by the worker goroutine.
	current *Task[T, C]

	// Closed when run returns. err is written before that and read only after.
	done chan struct{}
	err  error
}

func newWorker[T comparable, C Context](
	name string,
	taskPool *taskPool[T, C],
	taskCount *atomic.Int64,
	exitOnPanic bool) *worker[T, C] {
	return &worker[T, C]{
		name:        name,
		taskPool:    taskPool,
		taskCount:   taskCount,
		exitOnPanic: exitOnPanic,
		done:        make(chan struct{}),
	}
}

// getNextTask blocks until a task is available and returns it, or returns
// false once the pool is stopped. prevGID is the group of the task this worker
// just finished, if any; the queue learns about it before the next pop.
//
// LOCKS_EXCLUDED(w.taskPool.mu)
func (w *worker[T, C]) getNextTask(prevGID *T) (*Task[T, C], bool) {
	p := w.taskPool
	p.mu.Lock()
	defer p.mu.Unlock()

	if prevGID != nil {
		p.onTaskFinished(*prevGID)
	}

	for {
		if p.isStopped() {
			return nil, false
		}
		if task, ok := p.popTask(); ok {
			// Marking the group started under the same lock as the pop keeps a
			// group-aware queue from handing a second task of this group to
			// another worker in between.
			p.onTaskStarted(task.gid)
			return task, true
		}
		p.cond.Wait()
	}
}

func (w *worker[T, C]) run() {
	defer close(w.done)
	defer w.recoverPanic()

	logger.Tracef("threadpool: worker %s started", w.name)

	var prevGID *T
	for {
		task, ok := w.getNextTask(prevGID)
		if !ok {
			break
		}

		w.current = task
		task.ctx.OnStart()
		task.job(task.ctx)
		task.ctx.OnComplete()
		w.current = nil
		w.taskCount.Add(-1)

		gid := task.gid
		prevGID = &gid
	}

	logger.Tracef("threadpool: worker %s exited", w.name)
}

func (w *worker[T, C]) recoverPanic() {
	r := recover()
	if r == nil {
		return
	}

	perr := &PanicError{
		Worker: w.name,
		Value:  r,
		Stack:  debug.Stack(),
	}
	logger.Errorf("threadpool: %v\n%s", perr, perr.Stack)
	w.err = perr

	// The task is over for the queue and for the live count even though it
	// did not complete.
	if task := w.current; task != nil {
		w.current = nil
		w.taskPool.mu.Lock()
		w.taskPool.onTaskFinished(task.gid)
		w.taskPool.mu.Unlock()
		w.taskCount.Add(-1)
	}

	if w.exitOnPanic {
		panic(r)
	}
}

// join waits for the worker to exit and returns why it failed, if it did.
func (w *worker[T, C]) join() error {
	<-w.done
	return w.err
}
