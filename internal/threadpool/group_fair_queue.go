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

type groupState struct {
	// Tasks of the group waiting to run, in id order.
	pending *queue.Queue

	// Tasks of the group currently running on a worker.
	running int
}

// GroupFairQueue keeps one group from starving the others. Pop prefers the
// group with the fewest tasks in flight, and among equally busy groups the one
// whose oldest pending task has the smallest id. Tasks of the same group
// always run in id order.
//
// A group with a long running task therefore sinks behind every idle group
// until that task finishes.
type GroupFairQueue[T comparable, C Context] struct {
	groups map[T]*groupState

	// Total number of pending tasks across groups.
	pending int
}

// NewGroupFairQueue returns an empty group-fair queue.
func NewGroupFairQueue[T comparable, C Context]() *GroupFairQueue[T, C] {
	return &GroupFairQueue[T, C]{
		groups: make(map[T]*groupState),
	}
}

func (q *GroupFairQueue[T, C]) group(gid T) *groupState {
	g, ok := q.groups[gid]
	if !ok {
		g = &groupState{pending: queue.New()}
		q.groups[gid] = g
	}
	return g
}

func (q *GroupFairQueue[T, C]) Push(task *Task[T, C]) {
	q.group(task.gid).pending.Add(task)
	q.pending++
}

func (q *GroupFairQueue[T, C]) Pop() (*Task[T, C], bool) {
	if q.pending == 0 {
		return nil, false
	}

	var best *groupState
	var bestHead *Task[T, C]
	for _, g := range q.groups {
		if g.pending.Length() == 0 {
			continue
		}
		head := g.pending.Peek().(*Task[T, C])
		if best == nil ||
			g.running < best.running ||
			(g.running == best.running && head.Compare(bestHead) > 0) {
			best = g
			bestHead = head
		}
	}

	best.pending.Remove()
	q.pending--
	return bestHead, true
}

// Len returns the number of pending tasks.
func (q *GroupFairQueue[T, C]) Len() int {
	return q.pending
}

// Running returns the number of in-flight tasks of group gid.
func (q *GroupFairQueue[T, C]) Running(gid T) int {
	if g, ok := q.groups[gid]; ok {
		return g.running
	}
	return 0
}

func (q *GroupFairQueue[T, C]) OnTaskStarted(gid T) {
	q.group(gid).running++
}

func (q *GroupFairQueue[T, C]) OnTaskFinished(gid T) {
	g, ok := q.groups[gid]
	if !ok {
		return
	}
	if g.running > 0 {
		g.running--
	}
	if g.running == 0 && g.pending.Length() == 0 {
		delete(q.groups, gid)
	}
}
