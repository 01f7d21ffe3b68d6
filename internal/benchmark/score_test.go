// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// NORMALIZER TESTS
// =============================================================================

func TestNewNormalizer_Defaults(t *testing.T) {
	n := NewNormalizer(0, 0)
	assert.Equal(t, DefaultNormalizationConstant, n.K())
	assert.Equal(t, DefaultResolution, n.Resolution())

	n = NewNormalizer(math.NaN(), -1)
	assert.Equal(t, DefaultNormalizationConstant, n.K())

	n = NewNormalizer(500, time.Millisecond)
	assert.Equal(t, 500.0, n.K())
	assert.Equal(t, time.Millisecond, n.Resolution())
}

func TestNormalizer_Score(t *testing.T) {
	n := NewNormalizer(0, 0)

	tests := []struct {
		name      string
		elapsedMs float64
		replicas  int
		aggregate bool
		want      float64
	}{
		{"one second single", 1000, 1, false, 1000},
		{"replicas ignored when not aggregate", 1000, 8, false, 1000},
		{"aggregate scales by replicas", 1000, 8, true, 8000},
		{"rounds half up", 1_000_000.0 / 2.5, 1, false, 3},
		{"rounds before scaling", 3, 4, true, 333333 * 4},
		{"sub-millisecond", 0.5, 1, false, 2_000_000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := n.Score(tc.elapsedMs, tc.replicas, tc.aggregate)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// A multi-core score is exactly P times the rounded per-replica score.
func TestNormalizer_AggregateIsRoundedTimesReplicas(t *testing.T) {
	n := NewNormalizer(0, 0)
	for _, ms := range []float64{0.7, 1, 3, 17.3, 999.9, 12345.6} {
		single, err := n.Score(ms, 1, false)
		require.NoError(t, err)
		for _, p := range []int{1, 2, 7, 64} {
			multi, err := n.Score(ms, p, true)
			require.NoError(t, err)
			assert.Equal(t, single*float64(p), multi, "T=%v P=%d", ms, p)
		}
	}
}

func TestNormalizer_Degenerate(t *testing.T) {
	n := NewNormalizer(0, time.Microsecond)

	for _, ms := range []float64{0, -1, 0.001, 0.0005, math.NaN()} {
		_, err := n.Score(ms, 1, false)
		assert.ErrorIs(t, err, ErrDegenerateTiming, "elapsed %v", ms)
	}

	_, err := n.Score(0.0011, 1, false)
	assert.NoError(t, err)
}

func TestNormalizer_InvalidReplicas(t *testing.T) {
	_, err := NewNormalizer(0, 0).Score(10, 0, true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegenerateTiming)
}

func TestNormalizer_ScoreResult(t *testing.T) {
	n := NewNormalizer(0, 0)
	got, err := n.ScoreResult(ExecutionResult{Elapsed: 10 * time.Millisecond, Replicas: 4}, true)
	require.NoError(t, err)
	assert.Equal(t, 400000.0, got)
}

// =============================================================================
// AGGREGATOR TESTS
// =============================================================================

func TestAggregator_MeanOfIncludedOnly(t *testing.T) {
	a := NewAggregator()
	a.Add(AggregateSingleCore, 100)
	a.Add(AggregateSingleCore, 300)
	a.Exclude(AggregateSingleCore)
	a.Fail(AggregateSingleCore)

	got := a.Get(AggregateSingleCore)
	assert.Equal(t, 400.0, got.Sum)
	assert.Equal(t, 2, got.IncludedCount)
	assert.Equal(t, 1, got.ExcludedCount)
	assert.Equal(t, 1, got.FailedCount)
	assert.Equal(t, 200.0, got.Mean())
	assert.False(t, got.Complete())
}

// Excluding a workload gives the same mean as never having run it.
func TestAggregator_ExclusionMatchesAbsence(t *testing.T) {
	with, without := NewAggregator(), NewAggregator()
	for _, s := range []float64{10, 20, 60} {
		with.Add(AggregateMultiCore, s)
		without.Add(AggregateMultiCore, s)
	}
	with.Exclude(AggregateMultiCore)
	with.Exclude(AggregateMultiCore)

	assert.Equal(t, without.Mean(AggregateMultiCore), with.Mean(AggregateMultiCore))
}

func TestAggregator_Empty(t *testing.T) {
	a := NewAggregator()
	assert.Zero(t, a.Mean("missing"))
	assert.Empty(t, a.Keys())

	a.Exclude(AggregateMemory)
	assert.Zero(t, a.Mean(AggregateMemory))
	assert.True(t, a.Get(AggregateMemory).Complete())
	assert.Equal(t, []string{AggregateMemory}, a.Keys())
}

func TestAggregator_Concurrent(t *testing.T) {
	a := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Add(AggregateMultiCore, 2)
		}()
	}
	wg.Wait()

	got := a.Get(AggregateMultiCore)
	assert.Equal(t, 50, got.IncludedCount)
	assert.Equal(t, 100.0, got.Sum)
	assert.Len(t, a.Snapshot(), 1)
}
