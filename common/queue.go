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

package common

// node is a link of the list.
type node[T any] struct {
	value T
	next  *node[T]
}

// Queue is an unbounded singly linked FIFO list. It is not safe for
// concurrent use.
type Queue[T any] struct {
	start, end *node[T]
	size       int
}

// NewQueue creates a new empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// IsEmpty returns true if the queue is empty.
func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

// Push appends value at the back.
func (q *Queue[T]) Push(value T) {
	n := &node[T]{value: value}
	if q.end == nil {
		q.start = n
	} else {
		q.end.next = n
	}
	q.end = n
	q.size++
}

// Pop removes and returns the front item. ok is false if q is empty.
func (q *Queue[T]) Pop() (value T, ok bool) {
	n := q.start
	if n == nil {
		return value, false
	}

	q.start = n.next
	if q.start == nil {
		q.end = nil
	}
	q.size--
	return n.value, true
}

// TakeAll moves every item into a new queue and leaves q empty. It runs in
// constant time.
func (q *Queue[T]) TakeAll() *Queue[T] {
	taken := &Queue[T]{start: q.start, end: q.end, size: q.size}
	q.start, q.end, q.size = nil, nil, 0
	return taken
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	return q.size
}
