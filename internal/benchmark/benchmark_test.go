// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigbench/internal/detect"
)

// fakeProbe answers from a fixed set.
type fakeProbe map[detect.Capability]bool

func (p fakeProbe) IsSupported(c detect.Capability) bool {
	return c == detect.CapabilityNone || p[c]
}

func noop(int, int) error { return nil }

func desc(id string, cat Category, suites Suite) Descriptor {
	return Descriptor{ID: id, Name: strings.ToUpper(id), Category: cat, Suites: suites, WorkSize: 1, Run: noop}
}

// newTestRunner uses a clock that advances 10ms per reading, so every
// sample takes exactly 10ms.
func newTestRunner(t *testing.T, c *Catalog, probe detect.Probe, opts ...RunnerOption) *Runner {
	t.Helper()
	e := NewEngine(nil)
	e.now = tickingClock(10 * time.Millisecond)
	opts = append([]RunnerOption{WithEngine(e), WithReplicas(4)}, opts...)
	return NewRunner(c, probe, opts...)
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestCatalog_Register(t *testing.T) {
	tests := []struct {
		name    string
		d       Descriptor
		wantErr error
	}{
		{"valid", desc("a", CategoryArithmetic, SuiteSingleCore), nil},
		{"empty id", desc(" ", CategoryArithmetic, SuiteSingleCore), ErrInvalidDescriptor},
		{"no suites", desc("b", CategoryArithmetic, 0), ErrInvalidDescriptor},
		{"bad category", desc("c", Category("gpu"), SuiteSingleCore), ErrInvalidDescriptor},
		{"no run", Descriptor{ID: "d", Category: CategoryMemory, Suites: SuiteMemory}, ErrInvalidDescriptor},
		{"negative size", Descriptor{ID: "e", Category: CategoryMemory, Suites: SuiteMemory, WorkSize: -1, Run: noop}, ErrInvalidDescriptor},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := NewCatalog().Register(tc.d)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestCatalog_DuplicateAndLookup(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Register(desc("a", CategoryArithmetic, SuiteSingleCore)))
	assert.ErrorIs(t, c.Register(desc("a", CategoryRecursive, SuiteSingleCore)), ErrDuplicateWorkload)

	_, err := c.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownWorkload)

	got, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, CategoryArithmetic, got.Category)
}

func TestCatalog_OrderAndSuites(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(
		desc("mem", CategoryMemory, SuiteMemory),
		desc("int", CategoryArithmetic, SuiteSingleCore|SuiteMultiCore),
		desc("comm", CategoryThreadCommunication, SuiteMultiCore),
	)

	assert.Equal(t, 3, c.Len())
	ids := func(ds []Descriptor) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Equal(t, []string{"mem", "int", "comm"}, ids(c.All()))
	assert.Equal(t, []string{"int"}, ids(c.Suite(SuiteSingleCore)))
	assert.Equal(t, []string{"int", "comm"}, ids(c.Suite(SuiteMultiCore)))

	f, err := c.Filter([]string{"comm", "mem"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mem", "comm"}, ids(f.All()))

	_, err = c.Filter([]string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownWorkload)
}

func TestCatalog_MustRegisterPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewCatalog().MustRegister(desc("", CategoryMemory, SuiteMemory))
	})
}

func TestParseSuites(t *testing.T) {
	tests := []struct {
		in      string
		want    Suite
		wantErr bool
	}{
		{"", 0, true},
		{"all", SuiteAll, false},
		{"memory", SuiteMemory, false},
		{"single,multi", SuiteSingleCore | SuiteMultiCore, false},
		{"single-core, memory", SuiteSingleCore | SuiteMemory, false},
		{"gpu", 0, true},
	}

	for _, tc := range tests {
		got, err := ParseSuites(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

// =============================================================================
// RUNNER TESTS
// =============================================================================

func TestRunner_FullRun(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(
		desc("mem", CategoryMemory, SuiteMemory),
		desc("int", CategoryArithmetic, SuiteSingleCore|SuiteMultiCore),
		Descriptor{ID: "avx", Category: CategoryArithmetic, Capability: detect.CapabilityAVX2,
			Suites: SuiteSingleCore | SuiteMultiCore, Run: noop},
		desc("comm", CategoryThreadCommunication, SuiteMultiCore),
	)

	var events []Progress
	r := newTestRunner(t, c, fakeProbe{detect.CapabilityAVX2: true},
		WithProgress(func(p Progress) { events = append(events, p) }))

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// mem; int, avx single; int, avx, comm multi.
	require.Len(t, res.Workloads, 6)
	assert.Equal(t, 6, res.PassedCount)
	assert.Len(t, events, 12)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 4, res.Replicas)
	assert.Contains(t, res.Capabilities, "avx2")

	for _, w := range res.Workloads {
		switch w.Suite {
		case AggregateMultiCore:
			assert.Equal(t, 400000.0, w.Score, w.ID)
			assert.Equal(t, 4, w.Replicas)
		default:
			assert.Equal(t, 100000.0, w.Score, w.ID)
			assert.Equal(t, 1, w.Replicas)
		}
	}

	assert.Equal(t, 100000.0, res.Scores[AggregateMemory])
	assert.Equal(t, 100000.0, res.Scores[AggregateSingleCore])
	assert.Equal(t, 400000.0, res.Scores[AggregateMultiCore])

	scalar := res.Aggregates[AggregateSingleCoreScalar]
	assert.Equal(t, 1, scalar.IncludedCount)
	assert.Equal(t, 1, scalar.ExcludedCount, "vector workload stays out of the scalar mean")
}

func TestRunner_VectorVariants(t *testing.T) {
	tests := []struct {
		name  string
		probe fakeProbe
		want  map[string][2]int // included, excluded
	}{
		{
			name:  "all supported",
			probe: fakeProbe{detect.CapabilityAVX2: true, detect.CapabilityAVX512F: true},
			want: map[string][2]int{
				AggregateSingleCore:         {3, 0},
				AggregateSingleCoreScalar:   {1, 2},
				AggregateSingleCoreNoAVX512: {2, 1},
			},
		},
		{
			name:  "avx2 only",
			probe: fakeProbe{detect.CapabilityAVX2: true},
			want: map[string][2]int{
				AggregateSingleCore:         {2, 1},
				AggregateSingleCoreScalar:   {1, 2},
				AggregateSingleCoreNoAVX512: {2, 1},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCatalog()
			c.MustRegister(
				desc("int", CategoryArithmetic, SuiteSingleCore),
				Descriptor{ID: "avx2", Category: CategoryArithmetic, Capability: detect.CapabilityAVX2,
					Suites: SuiteSingleCore, Run: noop},
				Descriptor{ID: "avx512", Category: CategoryArithmetic, Capability: detect.CapabilityAVX512F,
					Suites: SuiteSingleCore, Run: noop},
			)

			res, err := newTestRunner(t, c, tc.probe).Run(context.Background())
			require.NoError(t, err)

			for key, counts := range tc.want {
				agg := res.Aggregates[key]
				assert.Equal(t, counts[0], agg.IncludedCount, key)
				assert.Equal(t, counts[1], agg.ExcludedCount, key)
				assert.Equal(t, 100000.0, res.Scores[key], key)
			}
			_, ok := res.Score(AggregateMultiCoreNoAVX512)
			assert.False(t, ok, "no multi-core workloads ran")
		})
	}
}

func TestRunner_SkipsUnsupportedCapability(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(
		desc("int", CategoryArithmetic, SuiteSingleCore),
		Descriptor{ID: "avx512", Category: CategoryArithmetic, Capability: detect.CapabilityAVX512F,
			Suites: SuiteSingleCore, Run: func(int, int) error {
				t.Error("unsupported workload must not run")
				return nil
			}},
	)

	res, err := newTestRunner(t, c, fakeProbe{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Workloads, 2)
	assert.Equal(t, StatusSkipped, res.Workloads[1].Status)
	assert.Contains(t, res.Workloads[1].Error, ErrCapabilityUnsupported.Error())
	assert.Equal(t, 1, res.SkippedCount)

	agg := res.Aggregates[AggregateSingleCore]
	assert.Equal(t, 1, agg.IncludedCount)
	assert.Equal(t, 1, agg.ExcludedCount)
	assert.Equal(t, 100000.0, res.Scores[AggregateSingleCore])
}

func TestRunner_FailureDoesNotAbort(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(
		Descriptor{ID: "bad", Category: CategoryArithmetic, Suites: SuiteSingleCore,
			Run: func(int, int) error { return errors.New("broken") }},
		Descriptor{ID: "panics", Category: CategoryArithmetic, Suites: SuiteSingleCore,
			Run: func(int, int) error { panic("nil map") }},
		desc("good", CategoryArithmetic, SuiteSingleCore),
	)

	res, err := newTestRunner(t, c, fakeProbe{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Workloads, 3)
	assert.Equal(t, StatusFailed, res.Workloads[0].Status)
	assert.Equal(t, StatusFailed, res.Workloads[1].Status)
	assert.Equal(t, StatusPassed, res.Workloads[2].Status)
	assert.Len(t, res.Failed(), 2)

	agg := res.Aggregates[AggregateSingleCore]
	assert.Equal(t, 2, agg.FailedCount)
	assert.False(t, agg.Complete())
	assert.Equal(t, 100000.0, res.Scores[AggregateSingleCore], "failed workloads are left out of the mean")
}

func TestRunner_DegenerateTimingFails(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(desc("fast", CategoryArithmetic, SuiteSingleCore))

	e := NewEngine(nil)
	frozen := time.Now()
	e.now = func() time.Time { return frozen }

	res, err := NewRunner(c, fakeProbe{}, WithEngine(e)).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Workloads, 1)
	assert.Equal(t, StatusFailed, res.Workloads[0].Status)
	assert.Contains(t, res.Workloads[0].Error, ErrDegenerateTiming.Error())
	_, ok := res.Score(AggregateSingleCore)
	assert.False(t, ok)
}

func TestRunner_SuitesAndFilter(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(
		desc("mem", CategoryMemory, SuiteMemory),
		desc("int", CategoryArithmetic, SuiteSingleCore|SuiteMultiCore),
		desc("fp", CategoryArithmetic, SuiteSingleCore|SuiteMultiCore),
	)

	res, err := newTestRunner(t, c, fakeProbe{}, WithSuites(SuiteMultiCore), WithFilter([]string{"fp"})).
		Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Workloads, 1)
	assert.Equal(t, "fp", res.Workloads[0].ID)
	assert.Equal(t, AggregateMultiCore, res.Workloads[0].Suite)

	_, err = newTestRunner(t, c, fakeProbe{}, WithFilter([]string{"nope"})).Run(context.Background())
	assert.ErrorIs(t, err, ErrUnknownWorkload)
}

func TestRunner_ContextCancelledBetweenWorkloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCatalog()
	c.MustRegister(
		Descriptor{ID: "first", Category: CategoryArithmetic, Suites: SuiteSingleCore,
			Run: func(int, int) error { cancel(); return nil }},
		desc("second", CategoryArithmetic, SuiteSingleCore),
	)

	res, err := newTestRunner(t, c, fakeProbe{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	require.Len(t, res.Workloads, 1, "the started workload completes, the next never starts")
	assert.Equal(t, StatusPassed, res.Workloads[0].Status)
}

func TestRunner_RunOne(t *testing.T) {
	c := NewCatalog()
	c.MustRegister(desc("int", CategoryArithmetic, SuiteSingleCore))
	r := newTestRunner(t, c, fakeProbe{})

	rec, err := r.RunOne("int", SuiteSingleCore)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, rec.Status)

	_, err = r.RunOne("int", SuiteMultiCore)
	assert.Error(t, err)
	_, err = r.RunOne("nope", SuiteSingleCore)
	assert.ErrorIs(t, err, ErrUnknownWorkload)
}

func TestRunner_WithTopologySetsReplicas(t *testing.T) {
	r := NewRunner(NewCatalog(), fakeProbe{}, WithTopology(detect.Topology{LogicalCPUs: 12}))
	assert.Equal(t, 12, r.Replicas())

	r = NewRunner(NewCatalog(), fakeProbe{}, WithReplicas(3), WithTopology(detect.Topology{LogicalCPUs: 12}))
	assert.Equal(t, 3, r.Replicas())
}

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "N/A", FormatScore(0))
	assert.Equal(t, "1235", FormatScore(1234.6))
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{1500 * time.Millisecond, "1.50s"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatElapsed(tc.d))
	}
}
