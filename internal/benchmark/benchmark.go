// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/rigbench/internal/detect"
)

// =============================================================================
// PROGRESS
// =============================================================================

// Progress is reported before and after every workload.
type Progress struct {
	Suite    Suite
	Workload string
	Name     string
	Index    int // 1-based position within the whole run
	Total    int
	Done     bool
	Record   *WorkloadResult // set when Done
}

// =============================================================================
// BENCHMARK RUNNER
// =============================================================================

// Runner drives a full benchmark run over a catalog.
// Note: Runner is not thread-safe and should not be used concurrently
// from multiple goroutines.
type Runner struct {
	catalog    *Catalog
	probe      detect.Probe
	engine     *Engine
	normalizer *Normalizer
	logger     *zap.Logger
	topology   detect.Topology
	replicas   int
	suites     Suite
	filter     []string
	progress   func(Progress)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner and engine logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithEngine replaces the execution engine.
func WithEngine(e *Engine) RunnerOption {
	return func(r *Runner) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithNormalizer replaces the score normalizer.
func WithNormalizer(n *Normalizer) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.normalizer = n
		}
	}
}

// WithTopology records the host topology and takes the replica count from
// its logical CPU count unless WithReplicas overrides it.
func WithTopology(t detect.Topology) RunnerOption {
	return func(r *Runner) {
		r.topology = t
		if r.replicas == 0 && t.LogicalCPUs > 0 {
			r.replicas = t.LogicalCPUs
		}
	}
}

// WithReplicas fixes the multi-core replica count.
func WithReplicas(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.replicas = n
		}
	}
}

// WithSuites limits the run to the given suites.
func WithSuites(s Suite) RunnerOption {
	return func(r *Runner) {
		if s != 0 {
			r.suites = s
		}
	}
}

// WithFilter restricts the run to the listed workload ids. Unknown ids make
// Run fail before any workload starts.
func WithFilter(ids []string) RunnerOption {
	return func(r *Runner) {
		r.filter = append([]string(nil), ids...)
	}
}

// WithProgress installs a progress callback. It is called synchronously
// from Run.
func WithProgress(fn func(Progress)) RunnerOption {
	return func(r *Runner) {
		r.progress = fn
	}
}

// NewRunner creates a benchmark runner.
func NewRunner(catalog *Catalog, probe detect.Probe, opts ...RunnerOption) *Runner {
	r := &Runner{
		catalog:    catalog,
		probe:      probe,
		normalizer: NewNormalizer(0, 0),
		logger:     zap.NewNop(),
		suites:     SuiteAll,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.probe == nil {
		r.probe = detect.DefaultProbe()
	}
	if r.engine == nil {
		r.engine = NewEngine(r.logger)
	}
	if r.replicas < 1 {
		r.replicas = runtime.NumCPU()
	}
	return r
}

// Replicas returns the multi-core replica count.
func (r *Runner) Replicas() int { return r.replicas }

type plannedRun struct {
	suite Suite
	desc  Descriptor
}

// plan lists the (suite, workload) pairs in run order: memory, then
// single-core, then multi-core.
func (r *Runner) plan() []plannedRun {
	var out []plannedRun
	for _, s := range []Suite{SuiteMemory, SuiteSingleCore, SuiteMultiCore} {
		if !r.suites.Has(s) {
			continue
		}
		for _, d := range r.catalog.Suite(s) {
			out = append(out, plannedRun{suite: s, desc: d})
		}
	}
	return out
}

// Run executes every planned workload. A failing workload is recorded and
// the run continues. The context is checked between workloads only; a
// workload that has started always runs to completion. If ctx is cancelled
// the partial result is returned together with ctx.Err().
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:                 uuid.NewString(),
		Host:                  r.topology,
		Capabilities:          r.supportedCapabilities(),
		NormalizationConstant: r.normalizer.K(),
		Replicas:              r.replicas,
		Suites:                r.suites.String(),
		StartTime:             time.Now(),
		Workloads:             make([]WorkloadResult, 0),
	}

	if len(r.filter) > 0 {
		filtered, err := r.catalog.Filter(r.filter)
		if err != nil {
			return nil, err
		}
		r.catalog = filtered
		r.filter = nil
	}

	agg := NewAggregator()
	plan := r.plan()

	r.logger.Info("benchmark run starting",
		zap.String("run_id", result.RunID),
		zap.Int("workloads", len(plan)),
		zap.Int("replicas", r.replicas),
		zap.Float64("k", r.normalizer.K()))

	var runErr error
	for i, p := range plan {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		r.report(Progress{Suite: p.suite, Workload: p.desc.ID, Name: p.desc.DisplayName(), Index: i + 1, Total: len(plan)})

		rec := r.runWorkload(p.desc, p.suite)
		r.aggregate(agg, p.desc, p.suite, rec)
		result.Workloads = append(result.Workloads, rec)

		r.report(Progress{Suite: p.suite, Workload: p.desc.ID, Name: p.desc.DisplayName(), Index: i + 1, Total: len(plan), Done: true, Record: &rec})
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Aggregates = agg.Snapshot()
	result.computeAggregates()

	r.logger.Info("benchmark run finished",
		zap.String("run_id", result.RunID),
		zap.Duration("duration", result.Duration),
		zap.Int("passed", result.PassedCount),
		zap.Int("failed", result.FailedCount),
		zap.Int("skipped", result.SkippedCount))

	return result, runErr
}

// RunOne executes a single workload in a single suite, outside any run.
func (r *Runner) RunOne(id string, suite Suite) (WorkloadResult, error) {
	d, err := r.catalog.Get(id)
	if err != nil {
		return WorkloadResult{}, err
	}
	if !d.Suites.Has(suite) {
		return WorkloadResult{}, fmt.Errorf("workload %s is not part of the %s suite", id, suite)
	}
	return r.runWorkload(d, suite), nil
}

// runWorkload executes d once for suite and scores it. It never returns an
// error; failures are recorded on the WorkloadResult.
func (r *Runner) runWorkload(d Descriptor, suite Suite) WorkloadResult {
	rec := WorkloadResult{
		ID:         d.ID,
		Name:       d.DisplayName(),
		Category:   d.Category,
		Capability: d.Capability.String(),
		Suite:      suite.Key(),
		WorkSize:   d.WorkSize,
		Status:     StatusRunning,
	}
	if !d.Gated() {
		rec.Capability = ""
	}

	if !r.probe.IsSupported(d.Capability) {
		rec.Status = StatusSkipped
		rec.Error = fmt.Errorf("%w: %s", ErrCapabilityUnsupported, d.Capability).Error()
		r.logger.Info("workload skipped",
			zap.String("workload", d.ID),
			zap.String("capability", d.Capability.String()))
		return rec
	}

	var (
		res       ExecutionResult
		err       error
		aggregate = suite == SuiteMultiCore
	)
	if aggregate {
		res, err = r.engine.RunReplicated(d, d.WorkSize, r.replicas)
	} else {
		res, err = r.engine.RunSingle(d, d.WorkSize)
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		r.logger.Warn("workload failed", zap.String("workload", d.ID), zap.String("suite", rec.Suite), zap.Error(err))
		return rec
	}

	rec.Replicas = res.Replicas
	rec.Elapsed = res.Elapsed
	rec.ElapsedMs = res.ElapsedMs()

	score, err := r.normalizer.ScoreResult(res, aggregate)
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		r.logger.Warn("workload timing rejected", zap.String("workload", d.ID), zap.Error(err))
		return rec
	}

	rec.Score = score
	rec.Status = StatusPassed
	r.logger.Debug("workload finished",
		zap.String("workload", d.ID),
		zap.String("suite", rec.Suite),
		zap.Float64("elapsed_ms", rec.ElapsedMs),
		zap.Float64("score", score))
	return rec
}

// aggregate folds rec into the suite aggregate and, for single- and
// multi-core, into the variants that leave out vector or AVX-512 workloads.
func (r *Runner) aggregate(agg *Aggregator, d Descriptor, suite Suite, rec WorkloadResult) {
	keys := []string{suite.Key()}
	var scalarKey, noAVX512Key string
	switch suite {
	case SuiteSingleCore:
		scalarKey, noAVX512Key = AggregateSingleCoreScalar, AggregateSingleCoreNoAVX512
	case SuiteMultiCore:
		scalarKey, noAVX512Key = AggregateMultiCoreScalar, AggregateMultiCoreNoAVX512
	}
	if scalarKey != "" {
		if d.Capability.IsVector() {
			agg.Exclude(scalarKey)
		} else {
			keys = append(keys, scalarKey)
		}
		if d.Capability == detect.CapabilityAVX512F {
			agg.Exclude(noAVX512Key)
		} else {
			keys = append(keys, noAVX512Key)
		}
	}

	for _, key := range keys {
		switch rec.Status {
		case StatusPassed:
			agg.Add(key, rec.Score)
		case StatusSkipped:
			agg.Exclude(key)
		default:
			agg.Fail(key)
		}
	}
}

func (r *Runner) supportedCapabilities() []string {
	out := make([]string, 0)
	for _, c := range detect.AllCapabilities {
		if r.probe.IsSupported(c) {
			out = append(out, c.String())
		}
	}
	return out
}

func (r *Runner) report(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// FormatScore formats a score for display.
func FormatScore(score float64) string {
	if score == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.0f", score)
}

// FormatElapsed formats a workload elapsed time.
func FormatElapsed(d time.Duration) string {
	if d == 0 {
		return "N/A"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// FormatDuration formats duration for display.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "N/A"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
