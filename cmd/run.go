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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/googlecloudplatform/taskpool/cfg"
	"github.com/googlecloudplatform/taskpool/common"
	"github.com/googlecloudplatform/taskpool/internal/logger"
	"github.com/googlecloudplatform/taskpool/internal/monitor"
	"github.com/googlecloudplatform/taskpool/internal/taskctx"
	"github.com/googlecloudplatform/taskpool/internal/threadpool"
	"github.com/googlecloudplatform/taskpool/internal/workload"
	"github.com/googlecloudplatform/taskpool/metrics"
	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
)

const (
	metricsWorkers    = 3
	metricsBufferSize = 256
)

type pool = threadpool.ThreadPool[string, *taskctx.MetricsContext]

// registerTerminatingSignalHandler cancels the run on SIGINT or SIGTERM.
func registerTerminatingSignalHandler(cancel context.CancelFunc) (stop func()) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-signalChan:
			logger.Infof("Received %v, stopping the workload...", sig)
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(signalChan)
		close(done)
	}
}

func newScheduleQueue(policy cfg.QueuePolicy) (threadpool.ScheduleQueue[string, *taskctx.MetricsContext], error) {
	switch policy {
	case cfg.FifoQueuePolicy, "":
		return threadpool.NewFifoQueue[string, *taskctx.MetricsContext](), nil
	case cfg.GroupFairQueuePolicy:
		return threadpool.NewGroupFairQueue[string, *taskctx.MetricsContext](), nil
	default:
		return nil, fmt.Errorf("unsupported queue policy %q", policy)
	}
}

func newPool(c *cfg.Config, handle metrics.MetricHandle) (*pool, error) {
	queue, err := newScheduleQueue(c.ThreadPool.QueuePolicy)
	if err != nil {
		return nil, err
	}
	factory := taskctx.NewFactory(c.ThreadPool.Name, timeutil.RealClock(), handle)
	return threadpool.New(
		c.ThreadPool.Name,
		int(c.ThreadPool.Concurrency),
		queue,
		factory,
		threadpool.WithExitOnPanic(c.Debug.ExitOnWorkerPanic)), nil
}

func newMetricHandle(ctx context.Context, c *cfg.Config) (metrics.MetricHandle, func()) {
	if c.Metrics.PrometheusPort <= 0 {
		return metrics.NewNoopMetrics(), func() {}
	}
	handle, err := metrics.NewOTelMetrics(ctx, metricsWorkers, metricsBufferSize)
	if err != nil {
		logger.Errorf("Failed to create the metric handle, continuing without metrics: %v", err)
		return metrics.NewNoopMetrics(), func() {}
	}
	return handle, handle.Close
}

// Run executes the configured workload and prints a summary to stdout.
func Run(c *cfg.Config) error {
	return run(context.Background(), c, os.Stdout)
}

func run(ctx context.Context, c *cfg.Config, out io.Writer) (err error) {
	if err = logger.InitLogFile(c.Logging); err != nil {
		return fmt.Errorf("init log file: %w", err)
	}
	defer logger.Close()

	if c.Debug.ExitOnInvariantViolation {
		syncutil.EnableInvariantChecking()
	}

	logger.Infof("Start taskpool/%s for pool %q with %d workers and the %s queue policy",
		common.GetVersion(), c.ThreadPool.Name, c.ThreadPool.Concurrency, c.ThreadPool.QueuePolicy)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopSignals := registerTerminatingSignalHandler(cancel)
	defer stopSignals()

	shutdownFn := monitor.SetupOTelMetricExporters(ctx, c)
	handle, closeHandle := newMetricHandle(ctx, c)

	p, err := newPool(c, handle)
	if err != nil {
		closeHandle()
		return err
	}

	res, runErr := workload.Run(ctx, p, workload.ProfileFromConfig(c.Workload))
	stopErr := p.Stop()
	closeHandle()
	if shutdownFn != nil {
		if err := shutdownFn(context.Background()); err != nil {
			logger.Warnf("Error while shutting down the metric exporters: %v", err)
		}
	}

	if res != nil {
		printSummary(out, c, res)
	}
	if stopErr != nil {
		logger.Errorf("Pool %q stopped with worker failures: %v", c.ThreadPool.Name, stopErr)
	}
	return errors.Join(runErr, stopErr)
}

func printSummary(out io.Writer, c *cfg.Config, res *workload.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", res.RunID)
	fmt.Fprintf(w, "pool\t%s (%d workers, %s)\n", c.ThreadPool.Name, c.ThreadPool.Concurrency, c.ThreadPool.QueuePolicy)
	fmt.Fprintf(w, "tasks\t%d/%d completed\n", res.Completed, res.Submitted)
	fmt.Fprintf(w, "elapsed\t%v\n", res.Elapsed)
	fmt.Fprintf(w, "wait\tmean %v, max %v\n", res.MeanWait, res.MaxWait)
	for _, gid := range res.Groups() {
		fmt.Fprintf(w, "group %s\t%d\n", gid, res.PerGroup[gid])
	}
	fmt.Fprintf(w, "completion order\t%s\n", strings.Join(res.GroupOrder, ", "))
	_ = w.Flush()
}
