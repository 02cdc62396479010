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
	"sync"

	"github.com/googlecloudplatform/taskpool/common"
)

var errFunnelClosed = errors.New("hand-off funnel is closed")

// funnel is the unbounded hand-off list between submitters and workers. It has
// its own lock so that a submission never waits on the pool lock, and senders
// never block.
type funnel[E any] struct {
	mu sync.Mutex

	// GUARDED_BY(mu)
	pending *common.Queue[E]

	// GUARDED_BY(mu)
	closed bool
}

func newFunnel[E any]() *funnel[E] {
	return &funnel[E]{pending: common.NewQueue[E]()}
}

// send appends v. It fails only once the funnel was closed.
func (f *funnel[E]) send(v E) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errFunnelClosed
	}
	f.pending.Push(v)
	return nil
}

// drain detaches everything sent so far and passes it to fn in send order,
// outside the funnel lock. It returns the number of items drained.
func (f *funnel[E]) drain(fn func(E)) int {
	f.mu.Lock()
	taken := f.pending.TakeAll()
	f.mu.Unlock()

	count := taken.Len()
	for v, ok := taken.Pop(); ok; v, ok = taken.Pop() {
		fn(v)
	}
	return count
}

func (f *funnel[E]) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending.Len()
}

func (f *funnel[E]) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
