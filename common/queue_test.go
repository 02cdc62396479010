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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQueue(t *testing.T) {
	q := NewQueue[int]()

	assert.NotNil(t, q, "NewQueue() should return a non-nil queue.")
	assert.True(t, q.IsEmpty(), "A new queue should be empty.")
	assert.Equal(t, 0, q.Len(), "A new queue should have a size of 0.")
}

func TestQueue_PushPop(t *testing.T) {
	q := NewQueue[int]()
	q.Push(4)
	q.Push(5)
	require.Equal(t, 2, q.Len())

	val, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 4, val)

	val, ok = q.Pop()
	assert.True(t, ok)
	assert.Equal(t, 5, val)
	assert.True(t, q.IsEmpty())

	val, ok = q.Pop()
	assert.False(t, ok)
	assert.Zero(t, val)
}

func TestQueue_PushAfterDrainingReusesQueue(t *testing.T) {
	q := NewQueue[string]()
	q.Push("a")
	_, _ = q.Pop()

	q.Push("b")

	val, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, "b", val)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_TakeAll(t *testing.T) {
	q := NewQueue[int]()
	for i := range 3 {
		q.Push(i)
	}

	taken := q.TakeAll()

	assert.True(t, q.IsEmpty())
	assert.Equal(t, 3, taken.Len())
	for i := range 3 {
		val, ok := taken.Pop()
		require.True(t, ok)
		assert.Equal(t, i, val)
	}

	// The source is usable after the move.
	q.Push(9)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_TakeAllOnEmpty(t *testing.T) {
	q := NewQueue[int]()

	taken := q.TakeAll()

	assert.True(t, taken.IsEmpty())
	assert.True(t, q.IsEmpty())
}
