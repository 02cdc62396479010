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

package metrics

import (
	"context"
	"time"
)

// MetricHandle records the task pool metrics. Every method is labelled with the
// name of the pool the measurement belongs to.
type MetricHandle interface {
	// TaskpoolTasksSubmittedCount - The cumulative number of tasks handed to the pool.
	TaskpoolTasksSubmittedCount(inc int64, pool string)

	// TaskpoolTasksCompletedCount - The cumulative number of tasks whose job returned.
	TaskpoolTasksCompletedCount(inc int64, pool string)

	// TaskpoolTaskWaitLatency - The cumulative distribution of the time tasks spent queued before a worker picked them up.
	TaskpoolTaskWaitLatency(ctx context.Context, duration time.Duration, pool string)

	// TaskpoolTaskRunLatency - The cumulative distribution of task run times.
	TaskpoolTaskRunLatency(ctx context.Context, duration time.Duration, pool string)
}
