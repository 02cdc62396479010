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

// Package workload drives a thread pool with synthetic grouped tasks and
// reports how the pool scheduled them.
package workload

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/googlecloudplatform/taskpool/cfg"
	"github.com/googlecloudplatform/taskpool/internal/logger"
	"github.com/googlecloudplatform/taskpool/internal/taskctx"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// HotGroup is the group that receives the up-front burst of Profile.HotGroupTasks.
const HotGroup = "hot"

// Pool is the part of a thread pool the driver needs.
type Pool interface {
	Execute(gid string, job func(*taskctx.MetricsContext))
	GetTaskCount() int
}

// Profile describes one synthetic run.
type Profile struct {
	Groups        int
	TasksPerGroup int
	HotGroupTasks int
	TaskDuration  time.Duration

	// Submissions per second across all submitters. Zero means unlimited.
	SubmitRateHz float64
	Submitters   int
}

// ProfileFromConfig converts the workload section of the config.
func ProfileFromConfig(c cfg.WorkloadConfig) Profile {
	return Profile{
		Groups:        int(c.Groups),
		TasksPerGroup: int(c.TasksPerGroup),
		HotGroupTasks: int(c.HotGroupTasks),
		TaskDuration:  c.TaskDuration,
		SubmitRateHz:  c.SubmitRateHz,
		Submitters:    int(c.Submitters),
	}
}

// GroupName returns the id of the i-th regular group.
func GroupName(i int) string {
	return fmt.Sprintf("group-%d", i)
}

// Result summarizes a run.
type Result struct {
	RunID     uuid.UUID
	Submitted int
	Completed int

	// Completed tasks per group.
	PerGroup map[string]int

	// Groups in the order their last task completed.
	GroupOrder []string

	MeanWait time.Duration
	MaxWait  time.Duration
	Elapsed  time.Duration
}

type submission struct {
	gid string
}

// plan lists every submission: the hot burst first, then the regular groups
// interleaved round-robin.
func (s Profile) plan() []submission {
	subs := make([]submission, 0, s.HotGroupTasks+s.Groups*s.TasksPerGroup)
	for range s.HotGroupTasks {
		subs = append(subs, submission{gid: HotGroup})
	}
	for range s.TasksPerGroup {
		for g := range s.Groups {
			subs = append(subs, submission{gid: GroupName(g)})
		}
	}
	return subs
}

func (s Profile) limiter() *rate.Limiter {
	if s.SubmitRateHz <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(s.SubmitRateHz), 1)
}

// tracker accumulates completions reported by the jobs.
type tracker struct {
	mu         sync.Mutex
	expected   map[string]int
	perGroup   map[string]int
	groupOrder []string
	totalWait  time.Duration
	maxWait    time.Duration
	submitted  int
	completed  int

	// Set once no more tasks will be submitted.
	sealed bool

	// Closed when sealed and every submitted task completed.
	allDone chan struct{}
}

func newTracker(subs []submission) *tracker {
	t := &tracker{
		expected: make(map[string]int),
		perGroup: make(map[string]int),
		allDone:  make(chan struct{}),
	}
	for _, s := range subs {
		t.expected[s.gid]++
	}
	return t
}

func (t *tracker) submit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.submitted++
}

// seal records that submission is over.
func (t *tracker) seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
	t.closeIfDoneLocked()
}

// LOCKS_REQUIRED(t.mu)
func (t *tracker) closeIfDoneLocked() {
	if t.sealed && t.completed == t.submitted {
		close(t.allDone)
	}
}

func (t *tracker) done(gid string, wait time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	t.perGroup[gid]++
	if t.perGroup[gid] == t.expected[gid] {
		t.groupOrder = append(t.groupOrder, gid)
	}
	t.totalWait += wait
	t.maxWait = max(t.maxWait, wait)
	t.closeIfDoneLocked()
}

// Run submits the tasks of prof to pool and waits for all of them to
// complete. If ctx is done first, Run returns what completed so far together
// with the context error. Tasks still queued in pool are not waited for.
func Run(ctx context.Context, pool Pool, prof Profile) (*Result, error) {
	if prof.Submitters < 1 {
		return nil, fmt.Errorf("workload: need at least one submitter, got %d", prof.Submitters)
	}

	runID := uuid.New()
	subs := prof.plan()
	t := newTracker(subs)
	limiter := prof.limiter()
	start := time.Now()
	logger.Infof("workload %s: submitting %d tasks from %d submitters", runID, len(subs), prof.Submitters)

	job := func(gid string) func(*taskctx.MetricsContext) {
		return func(c *taskctx.MetricsContext) {
			if prof.TaskDuration > 0 {
				time.Sleep(prof.TaskDuration)
			}
			t.done(gid, c.WaitTime())
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for s := range prof.Submitters {
		g.Go(func() error {
			for i := s; i < len(subs); i += prof.Submitters {
				if limiter.Wait(gctx) != nil {
					// The limiter also gives up early when the next slot lies
					// past the deadline, before ctx itself is done.
					<-gctx.Done()
					return gctx.Err()
				}
				t.submit()
				pool.Execute(subs[i].gid, job(subs[i].gid))
			}
			return nil
		})
	}
	submitErr := g.Wait()
	t.seal()

	var err error
	if submitErr != nil {
		err = fmt.Errorf("workload %s: submitting: %w", runID, submitErr)
	} else {
		select {
		case <-t.allDone:
		case <-ctx.Done():
			err = fmt.Errorf("workload %s: waiting for tasks: %w", runID, ctx.Err())
		}
	}

	res := t.result(runID, start)
	logger.Infof("workload %s: %d/%d tasks completed in %v", runID, res.Completed, res.Submitted, res.Elapsed)
	return res, err
}

func (t *tracker) result(runID uuid.UUID, start time.Time) *Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := &Result{
		RunID:      runID,
		Submitted:  t.submitted,
		Completed:  t.completed,
		PerGroup:   make(map[string]int, len(t.perGroup)),
		GroupOrder: append([]string(nil), t.groupOrder...),
		MaxWait:    t.maxWait,
		Elapsed:    time.Since(start),
	}
	for gid, n := range t.perGroup {
		res.PerGroup[gid] = n
	}
	if t.completed > 0 {
		res.MeanWait = t.totalWait / time.Duration(t.completed)
	}
	return res
}

// Groups returns the group ids of res sorted by name.
func (r *Result) Groups() []string {
	gids := make([]string, 0, len(r.PerGroup))
	for gid := range r.PerGroup {
		gids = append(gids, gid)
	}
	sort.Strings(gids)
	return gids
}
