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
	"cmp"
	"fmt"
)

// Task is a unit of work queued in a ThreadPool.
type Task[T comparable, C Context] struct {
	// The task's id in the pool. Each task has a unique id, and it's always
	// bigger than the ids of preceding tasks. It stays zero until the task is
	// moved from the hand-off funnel into the schedule queue.
	id uint64

	// Which group the task belongs to.
	gid T

	job func(C)
	ctx C
}

// NewTask wraps job and its context into a task of group gid. The id is
// assigned later by the pool.
func NewTask[T comparable, C Context](gid T, job func(C), ctx C) *Task[T, C] {
	return &Task[T, C]{
		gid: gid,
		job: job,
		ctx: ctx,
	}
}

// ID returns the id assigned by the pool.
func (t *Task[T, C]) ID() uint64 {
	return t.id
}

// GroupID returns the group the task was submitted to.
func (t *Task[T, C]) GroupID() T {
	return t.gid
}

// Context returns the context the task will run with.
func (t *Task[T, C]) Context() C {
	return t.ctx
}

// Compare orders tasks for priority based queues. Ids compare in reverse, so
// the task submitted earlier is the greater one and comes out first of a
// max-first structure.
func (t *Task[T, C]) Compare(other *Task[T, C]) int {
	return cmp.Compare(other.id, t.id)
}

func (t *Task[T, C]) String() string {
	return fmt.Sprintf("task_id:%d,group_id:%v", t.id, t.gid)
}
