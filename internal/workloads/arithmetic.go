// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math"
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/detect"
)

// =============================================================================
// SCALAR ARITHMETIC
// =============================================================================

const (
	intInnerLoop   = 500
	floatInnerLoop = 1000
	lookupTableLen = 10000
)

// sink keeps results observable so loops are not eliminated.
var sink struct {
	i int64
	f float64
	v float32
}

// IntegerTables holds the transcendental values the integer workload reuses.
// Building them is the untimed part of the workload.
type IntegerTables struct {
	sinOuter []float64 // sin(i*0.01) for each outer step
	cosInner []float64 // cos(j*0.01) for each inner step
	noise    []float64 // random values in [0,1)
}

// NewIntegerTables precomputes tables for outer outer-loop steps.
func NewIntegerTables(outer int, rng *rand.Rand) *IntegerTables {
	t := &IntegerTables{
		sinOuter: make([]float64, outer),
		cosInner: make([]float64, intInnerLoop),
		noise:    make([]float64, lookupTableLen),
	}
	for i := range t.sinOuter {
		t.sinOuter[i] = math.Sin(float64(i) * 0.01)
	}
	for j := range t.cosInner {
		t.cosInner[j] = math.Cos(float64(j) * 0.01)
	}
	for k := range t.noise {
		t.noise[k] = rng.Float64()
	}
	return t
}

// IntegerArithmetic mixes integer multiply/add with table lookups.
func IntegerArithmetic(t *IntegerTables, outer int) int64 {
	var result int64
	for i := 0; i < outer; i++ {
		si := t.sinOuter[i]
		for j := 0; j < intInnerLoop; j++ {
			result += int64(i+j) * int64(i-j)
			result += int64((si + t.cosInner[j]) * 100)
			result += int64(t.noise[(i+j)%lookupTableLen] * 100)
		}
	}
	return result
}

// FloatingPoint accumulates sqrt(i+j)*sin(i-j).
func FloatingPoint(outer int) float64 {
	var result float64
	for i := 0; i < outer; i++ {
		for j := 0; j < floatInnerLoop; j++ {
			result += math.Sqrt(float64(i+j)) * math.Sin(float64(i-j))
		}
	}
	return result
}

// RandomNumbers draws n floats from rng.
func RandomNumbers(rng *rand.Rand, n int) float64 {
	var acc float64
	for i := 0; i < n; i++ {
		acc += rng.Float64()
	}
	return acc
}

func integerArithmeticWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDIntegerArithmetic,
		Name:        "Integer Arithmetic",
		Description: "integer multiply/add with precomputed sin/cos tables",
		Category:    benchmark.CategoryArithmetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, workSize int) (benchmark.RunFunc, error) {
			tables := make([]*IntegerTables, replicas)
			for r := range tables {
				tables[r] = NewIntegerTables(workSize, NewReplicaRand(r))
			}
			return func(replica, workSize int) error {
				v := IntegerArithmetic(tables[replica], workSize)
				if replica == 0 {
					sink.i = v
				}
				return nil
			}, nil
		},
	}
}

func floatingPointWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDFloatingPoint,
		Name:        "Floating Point",
		Description: "sqrt and sin accumulation",
		Category:    benchmark.CategoryArithmetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			v := FloatingPoint(workSize)
			if replica == 0 {
				sink.f = v
			}
			return nil
		},
	}
}

func randomNumbersWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDRandomNumbers,
		Name:        "Random Number Generation",
		Description: "PCG float draws",
		Category:    benchmark.CategoryArithmetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			rngs := make([]*rand.Rand, replicas)
			for r := range rngs {
				rngs[r] = NewReplicaRand(r)
			}
			return func(replica, workSize int) error {
				v := RandomNumbers(rngs[replica], workSize)
				if replica == 0 {
					sink.f = v
				}
				return nil
			}, nil
		},
	}
}

// =============================================================================
// VECTOR LANES
// =============================================================================

// vectorPasses is how many times the op chain is repeated per work unit.
const vectorPasses = 7

// Lanes8 and Lanes16 mirror 256-bit and 512-bit float registers.
type (
	Lanes8  [8]float32
	Lanes16 [16]float32
)

// VectorChain8 runs the multiply/add/reciprocal/sqrt chain over 8 lanes n
// times per pass.
func VectorChain8(a, b Lanes8, n int) Lanes8 {
	var out Lanes8
	for p := 0; p < vectorPasses; p++ {
		for i := 0; i < n; i++ {
			for l := 0; l < 8; l++ {
				r := a[l] * b[l]
				r = r + a[l]
				r = r - b[l]
				r = r * a[l]
				r = 1 / r
				r = float32(math.Sqrt(float64(r)))
				r = r/a[l] + b[l]
				out[l] += r * r
			}
		}
	}
	return out
}

// VectorChain16 is VectorChain8 over 16 lanes.
func VectorChain16(a, b Lanes16, n int) Lanes16 {
	var out Lanes16
	for p := 0; p < vectorPasses; p++ {
		for i := 0; i < n; i++ {
			for l := 0; l < 16; l++ {
				r := a[l] * b[l]
				r = r + a[l]
				r = r - b[l]
				r = r * a[l]
				r = 1 / r
				r = float32(math.Sqrt(float64(r)))
				r = r/a[l] + b[l]
				out[l] += r * r
			}
		}
	}
	return out
}

func vectorAVX2Workload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDVectorAVX2,
		Name:        "AVX2",
		Description: "8-lane float op chain, gated on AVX2",
		Category:    benchmark.CategoryArithmetic,
		Capability:  detect.CapabilityAVX2,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			var a, b Lanes8
			for l := range a {
				a[l], b[l] = 1024, 1024
			}
			out := VectorChain8(a, b, workSize)
			if replica == 0 {
				sink.v = out[0]
			}
			return nil
		},
	}
}

func vectorAVX512Workload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDVectorAVX512,
		Name:        "AVX-512",
		Description: "16-lane float op chain, gated on AVX-512F",
		Category:    benchmark.CategoryArithmetic,
		Capability:  detect.CapabilityAVX512F,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			var a, b Lanes16
			for l := range a {
				a[l], b[l] = 1024, 1024
			}
			out := VectorChain16(a, b, workSize)
			if replica == 0 {
				sink.v = out[0]
			}
			return nil
		},
	}
}
