// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"sort"
	"sync"
)

// Aggregate keys reported for every run.
const (
	AggregateMemory     = "memory"
	AggregateSingleCore = "single-core"
	AggregateMultiCore  = "multi-core"

	// The scalar variants leave out every vector-gated workload, so machines
	// with and without AVX can be compared on the same footing.
	AggregateSingleCoreScalar = "single-core-scalar"
	AggregateMultiCoreScalar  = "multi-core-scalar"

	// The no-avx512 variants leave out only AVX-512 workloads.
	AggregateSingleCoreNoAVX512 = "single-core-no-avx512"
	AggregateMultiCoreNoAVX512  = "multi-core-no-avx512"
)

// AggregateKeys lists the aggregates in report order.
var AggregateKeys = []string{
	AggregateMemory,
	AggregateSingleCore,
	AggregateMultiCore,
	AggregateSingleCoreScalar,
	AggregateMultiCoreScalar,
	AggregateSingleCoreNoAVX512,
	AggregateMultiCoreNoAVX512,
}

// =============================================================================
// CATEGORY AGGREGATE
// =============================================================================

// CategoryAggregate accumulates the included scores of one category.
// Excluded and failed workloads are counted for reporting but never enter
// Sum or IncludedCount.
type CategoryAggregate struct {
	Sum           float64 `json:"sum" yaml:"sum"`
	IncludedCount int     `json:"included" yaml:"included"`
	ExcludedCount int     `json:"excluded" yaml:"excluded"`
	FailedCount   int     `json:"failed" yaml:"failed"`
}

// Mean returns Sum / IncludedCount, or 0 when nothing was included.
func (a CategoryAggregate) Mean() float64 {
	if a.IncludedCount == 0 {
		return 0
	}
	return a.Sum / float64(a.IncludedCount)
}

// Complete reports whether no included workload failed.
func (a CategoryAggregate) Complete() bool {
	return a.FailedCount == 0
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator combines normalized scores per aggregate key. It is safe for
// concurrent use.
type Aggregator struct {
	mu    sync.Mutex
	items map[string]*CategoryAggregate
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{items: make(map[string]*CategoryAggregate)}
}

func (a *Aggregator) entry(key string) *CategoryAggregate {
	e, ok := a.items[key]
	if !ok {
		e = &CategoryAggregate{}
		a.items[key] = e
	}
	return e
}

// Add includes score under key.
func (a *Aggregator) Add(key string, score float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	e := a.entry(key)
	e.Sum += score
	e.IncludedCount++
}

// Exclude records a workload skipped for an unsupported capability.
func (a *Aggregator) Exclude(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entry(key).ExcludedCount++
}

// Fail records a workload whose sample was invalidated.
func (a *Aggregator) Fail(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entry(key).FailedCount++
}

// Get returns a copy of the aggregate for key.
func (a *Aggregator) Get(key string) CategoryAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.items[key]; ok {
		return *e
	}
	return CategoryAggregate{}
}

// Mean returns the current mean for key.
func (a *Aggregator) Mean(key string) float64 {
	return a.Get(key).Mean()
}

// Keys returns every key seen, sorted.
func (a *Aggregator) Keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.items))
	for k := range a.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot copies every aggregate.
func (a *Aggregator) Snapshot() map[string]CategoryAggregate {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]CategoryAggregate, len(a.items))
	for k, v := range a.items {
		out[k] = *v
	}
	return out
}
