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

// Context travels with a task through its execution. The pool calls OnStart
// right before the job and OnComplete right after it returns, both on the
// worker goroutine. Get and Set are a key/value store for the caller's
// bookkeeping; the pool never reads them.
type Context interface {
	Set(key string, value uint64)
	Get(key string) uint64
	OnStart()
	OnComplete()
}

// ContextFactory creates one Context per submitted task. CreateContext runs on
// the submitting goroutine, possibly from several goroutines at once, so it
// must be cheap and safe for concurrent use.
type ContextFactory[C Context] interface {
	CreateContext() C
}

// NoopContext is a Context that stores nothing and has no hooks.
type NoopContext struct{}

func (NoopContext) Set(string, uint64) {}
func (NoopContext) Get(string) uint64  { return 0 }
func (NoopContext) OnStart()           {}
func (NoopContext) OnComplete()        {}

// NoopContextFactory hands out NoopContext values.
type NoopContextFactory struct{}

func (NoopContextFactory) CreateContext() NoopContext {
	return NoopContext{}
}
