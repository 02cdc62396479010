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
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/googlecloudplatform/taskpool/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const poolAttr = "pool"

var latencyBucketsUs = []float64{50, 100, 200, 400, 800, 1200, 2000, 5000, 10000, 20000, 50000, 100000, 200000, 500000, 1000000, 2000000, 5000000, 10000000, 50000000, 100000000}

type histogramRecord struct {
	ctx        context.Context
	instrument metric.Int64Histogram
	value      int64
	attributes metric.RecordOption
}

// poolCounters holds the cumulative counters of one pool.
type poolCounters struct {
	submitted atomic.Int64
	completed atomic.Int64
	observe   metric.ObserveOption
	record    metric.RecordOption
}

type otelMetrics struct {
	ch chan histogramRecord
	wg *sync.WaitGroup

	// Pool name to *poolCounters.
	pools sync.Map

	taskWaitLatency metric.Int64Histogram
	taskRunLatency  metric.Int64Histogram
}

func (o *otelMetrics) countersFor(pool string) *poolCounters {
	if c, ok := o.pools.Load(pool); ok {
		return c.(*poolCounters)
	}
	set := attribute.NewSet(attribute.String(poolAttr, pool))
	c, _ := o.pools.LoadOrStore(pool, &poolCounters{
		observe: metric.WithAttributeSet(set),
		record:  metric.WithAttributeSet(set),
	})
	return c.(*poolCounters)
}

func (o *otelMetrics) TaskpoolTasksSubmittedCount(inc int64, pool string) {
	if inc < 0 {
		logger.Errorf("Counter metric taskpool/tasks_submitted_count received a negative increment: %d", inc)
		return
	}
	o.countersFor(pool).submitted.Add(inc)
}

func (o *otelMetrics) TaskpoolTasksCompletedCount(inc int64, pool string) {
	if inc < 0 {
		logger.Errorf("Counter metric taskpool/tasks_completed_count received a negative increment: %d", inc)
		return
	}
	o.countersFor(pool).completed.Add(inc)
}

func (o *otelMetrics) TaskpoolTaskWaitLatency(ctx context.Context, latency time.Duration, pool string) {
	o.recordHistogram(histogramRecord{ctx: ctx, instrument: o.taskWaitLatency, value: latency.Microseconds(), attributes: o.countersFor(pool).record})
}

func (o *otelMetrics) TaskpoolTaskRunLatency(ctx context.Context, latency time.Duration, pool string) {
	o.recordHistogram(histogramRecord{ctx: ctx, instrument: o.taskRunLatency, value: latency.Microseconds(), attributes: o.countersFor(pool).record})
}

func (o *otelMetrics) recordHistogram(record histogramRecord) {
	select {
	case o.ch <- record: // Do nothing
	default: // Unblock writes to channel if it's full.
	}
}

func (o *otelMetrics) observeEach(obsrv metric.Int64Observer, load func(*poolCounters) int64) {
	o.pools.Range(func(_, v any) bool {
		c := v.(*poolCounters)
		conditionallyObserve(obsrv, load(c), c.observe)
		return true
	})
}

// NewOTelMetrics creates the instruments on the global meter provider.
// Histogram samples are handed to workers goroutines through a buffered
// channel of bufferSize and dropped when it is full.
func NewOTelMetrics(ctx context.Context, workers int, bufferSize int) (*otelMetrics, error) {
	ch := make(chan histogramRecord, bufferSize)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range ch {
				if record.attributes != nil {
					record.instrument.Record(record.ctx, record.value, record.attributes)
				} else {
					record.instrument.Record(record.ctx, record.value)
				}
			}
		}()
	}
	meter := otel.Meter("taskpool")
	o := &otelMetrics{ch: ch, wg: &wg}

	_, err0 := meter.Int64ObservableCounter("taskpool/tasks_submitted_count",
		metric.WithDescription("The cumulative number of tasks handed to the pool."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			o.observeEach(obsrv, func(c *poolCounters) int64 { return c.submitted.Load() })
			return nil
		}))

	_, err1 := meter.Int64ObservableCounter("taskpool/tasks_completed_count",
		metric.WithDescription("The cumulative number of tasks whose job returned."),
		metric.WithUnit(""),
		metric.WithInt64Callback(func(_ context.Context, obsrv metric.Int64Observer) error {
			o.observeEach(obsrv, func(c *poolCounters) int64 { return c.completed.Load() })
			return nil
		}))

	taskWaitLatency, err2 := meter.Int64Histogram("taskpool/task_wait_latency",
		metric.WithDescription("The cumulative distribution of the time tasks spent queued before a worker picked them up."),
		metric.WithUnit("us"),
		metric.WithExplicitBucketBoundaries(latencyBucketsUs...))

	taskRunLatency, err3 := meter.Int64Histogram("taskpool/task_run_latency",
		metric.WithDescription("The cumulative distribution of task run times."),
		metric.WithUnit("us"),
		metric.WithExplicitBucketBoundaries(latencyBucketsUs...))

	errs := []error{err0, err1, err2, err3}
	if err := errors.Join(errs...); err != nil {
		close(ch)
		wg.Wait()
		return nil, err
	}

	o.taskWaitLatency = taskWaitLatency
	o.taskRunLatency = taskRunLatency
	return o, nil
}

// Close stops the histogram workers after they flushed the pending samples.
func (o *otelMetrics) Close() {
	close(o.ch)
	o.wg.Wait()
}

func conditionallyObserve(obsrv metric.Int64Observer, val int64, obsrvOptions ...metric.ObserveOption) {
	if val > 0 {
		obsrv.Observe(val, obsrvOptions...)
	}
}
