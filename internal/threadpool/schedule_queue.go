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
	"github.com/eapache/queue"
)

// Once a drained FifoQueue has held more than this many tasks, it swaps its
// ring for a fresh minimum-size one. queue.Queue already halves its ring as
// it drains, so the swap only makes the release explicit at the point the
// pool goes idle.
const queueMaxCapacity = 8000

// ScheduleQueue decides the order in which queued tasks run. The pool calls
// every method with its lock held, so implementations need no locking of
// their own.
type ScheduleQueue[T comparable, C Context] interface {
	// Push takes ownership of task.
	Push(task *Task[T, C])

	// Pop returns the next task to run, or false when nothing is queued. It
	// must not block.
	Pop() (*Task[T, C], bool)

	// OnTaskStarted is called right after a task of group gid was popped and
	// before it is handed to a worker.
	OnTaskStarted(gid T)

	// OnTaskFinished is called once a task of group gid has completed, right
	// before its worker asks for the next task.
	OnTaskFinished(gid T)
}

// FifoQueue runs tasks in arrival order and ignores groups.
type FifoQueue[T comparable, C Context] struct {
	tasks *queue.Queue

	// Largest length reached since tasks was last allocated.
	highWater int
}

// NewFifoQueue returns an empty first-in-first-out queue.
func NewFifoQueue[T comparable, C Context]() *FifoQueue[T, C] {
	return &FifoQueue[T, C]{
		tasks: queue.New(),
	}
}

func (q *FifoQueue[T, C]) Push(task *Task[T, C]) {
	q.tasks.Add(task)
	if n := q.tasks.Length(); n > q.highWater {
		q.highWater = n
	}
}

func (q *FifoQueue[T, C]) Pop() (*Task[T, C], bool) {
	if q.tasks.Length() == 0 {
		return nil, false
	}
	task := q.tasks.Remove().(*Task[T, C])

	if q.tasks.Length() == 0 && q.highWater > queueMaxCapacity {
		q.tasks = queue.New()
		q.highWater = 0
	}

	return task, true
}

// Len returns the number of queued tasks.
func (q *FifoQueue[T, C]) Len() int {
	return q.tasks.Length()
}

func (q *FifoQueue[T, C]) OnTaskStarted(T)  {}
func (q *FifoQueue[T, C]) OnTaskFinished(T) {}
