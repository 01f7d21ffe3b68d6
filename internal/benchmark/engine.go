// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// EXECUTION RESULT
// =============================================================================

// ExecutionResult is the timing of one sample.
type ExecutionResult struct {
	Elapsed  time.Duration
	Replicas int
}

// ElapsedMs returns Elapsed in fractional milliseconds.
func (r ExecutionResult) ElapsedMs() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine times workloads. It runs either one sequential sample or a fixed
// number of concurrent replicas, each executing the whole workload.
type Engine struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewEngine creates an engine. A nil logger is replaced by a no-op logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, now: time.Now}
}

// RunSingle executes d once on the calling goroutine. The timer brackets
// only the Run call; Prepare happens before it starts.
func (e *Engine) RunSingle(d Descriptor, workSize int) (ExecutionResult, error) {
	run, err := d.prepare(1, workSize)
	if err != nil {
		return ExecutionResult{}, &WorkloadFault{Workload: d.ID, Err: fmt.Errorf("prepare: %w", err)}
	}

	start := e.now()
	err = safeRun(d.ID, run, 0, workSize)
	elapsed := e.now().Sub(start)

	if err != nil {
		e.logger.Debug("workload faulted", zap.String("workload", d.ID), zap.Error(err))
		return ExecutionResult{}, err
	}
	return ExecutionResult{Elapsed: elapsed, Replicas: 1}, nil
}

// RunReplicated starts replicas concurrent copies of d, each running the
// complete workload with its own replica index. Elapsed spans from just
// before the first replica starts until the last one has returned. If any
// replica faults, the sample is discarded and the first fault is returned.
func (e *Engine) RunReplicated(d Descriptor, workSize, replicas int) (ExecutionResult, error) {
	if replicas < 1 {
		return ExecutionResult{}, fmt.Errorf("%w: workload %s asked for %d", ErrInvalidReplicas, d.ID, replicas)
	}

	run, err := d.prepare(replicas, workSize)
	if err != nil {
		return ExecutionResult{}, &WorkloadFault{Workload: d.ID, Err: fmt.Errorf("prepare: %w", err)}
	}

	var g errgroup.Group
	start := e.now()
	for i := 0; i < replicas; i++ {
		replica := i
		g.Go(func() error {
			return safeRun(d.ID, run, replica, workSize)
		})
	}
	err = g.Wait()
	elapsed := e.now().Sub(start)

	if err != nil {
		e.logger.Debug("replicated workload faulted",
			zap.String("workload", d.ID),
			zap.Int("replicas", replicas),
			zap.Error(err))
		return ExecutionResult{}, err
	}
	return ExecutionResult{Elapsed: elapsed, Replicas: replicas}, nil
}

// safeRun calls run and converts both returned errors and panics into a
// *WorkloadFault.
func safeRun(id string, run RunFunc, replica, workSize int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkloadFault{
				Workload: id,
				Replica:  replica,
				Panic:    r,
				Stack:    debug.Stack(),
			}
		}
	}()

	if runErr := run(replica, workSize); runErr != nil {
		return &WorkloadFault{Workload: id, Replica: replica, Err: runErr}
	}
	return nil
}
