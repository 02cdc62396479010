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
)

// PanicError records a job that panicked and took its worker down with it.
type PanicError struct {
	// Name of the worker that ran the job.
	Worker string

	// Value passed to panic.
	Value any

	// Stack of the worker goroutine at the time of the panic.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker %s panicked: %v", e.Worker, e.Value)
}

// JoinError reports a worker that did not terminate cleanly during Stop.
type JoinError struct {
	Worker string
	Err    error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("Failed to join thread %s with err: %v;", e.Worker, e.Err)
}

func (e *JoinError) Unwrap() error {
	return e.Err
}
