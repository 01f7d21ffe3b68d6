// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// RECURSIVE / DIVIDE AND CONQUER
// =============================================================================

const (
	fibonacciN  = 30
	sieveLimit  = 10000
	sortLength  = 10000
	branchInner = 1000
)

// Fibonacci is the naive doubly recursive definition.
func Fibonacci(n int) int {
	if n <= 1 {
		return n
	}
	return Fibonacci(n-1) + Fibonacci(n-2)
}

// Sieve returns prime[i] for 0 <= i <= n.
func Sieve(n int) []bool {
	if n < 0 {
		return nil
	}
	prime := make([]bool, n+1)
	for i := 2; i <= n; i++ {
		prime[i] = true
	}
	for p := 2; p*p <= n; p++ {
		if prime[p] {
			for i := p * p; i <= n; i += p {
				prime[i] = false
			}
		}
	}
	return prime
}

// CountPrimes counts the true entries of a sieve.
func CountPrimes(prime []bool) int {
	n := 0
	for _, p := range prime {
		if p {
			n++
		}
	}
	return n
}

// QuickSort sorts a in place with Hoare partitioning around the middle
// element.
func QuickSort(a []int) {
	if len(a) < 2 {
		return
	}
	quickSort(a, 0, len(a)-1)
}

func quickSort(a []int, lo, hi int) {
	for lo < hi {
		p := partition(a, lo, hi)
		// Recurse into the smaller half to bound stack depth.
		if p-lo < hi-p {
			quickSort(a, lo, p)
			lo = p + 1
		} else {
			quickSort(a, p+1, hi)
			hi = p
		}
	}
}

func partition(a []int, lo, hi int) int {
	pivot := a[lo+(hi-lo)/2]
	i, j := lo-1, hi+1
	for {
		for {
			i++
			if a[i] >= pivot {
				break
			}
		}
		for {
			j--
			if a[j] <= pivot {
				break
			}
		}
		if i >= j {
			return j
		}
		a[i], a[j] = a[j], a[i]
	}
}

// BranchPredictable alternates add/subtract on k%2.
func BranchPredictable(outer int) int64 {
	var result int64
	for i := 0; i < outer; i++ {
		for k := 0; k < branchInner; k++ {
			if k%2 == 0 {
				result += int64(k)
			} else {
				result -= int64(k)
			}
		}
	}
	return result
}

// BranchRandom chooses add/subtract from a coin flip.
func BranchRandom(rng *rand.Rand, outer int) int64 {
	var result int64
	for i := 0; i < outer; i++ {
		bits := rng.Uint64()
		for k := 0; k < branchInner; k++ {
			if k%64 == 0 {
				bits = rng.Uint64()
			}
			if bits&1 == 0 {
				result += int64(k)
			} else {
				result -= int64(k)
			}
			bits >>= 1
		}
	}
	return result
}

func fibonacciWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDFibonacci,
		Name:        "Fibonacci",
		Description: "recursive fibonacci(30)",
		Category:    benchmark.CategoryRecursive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			var v int
			for i := 0; i < workSize; i++ {
				v = Fibonacci(fibonacciN)
			}
			if replica == 0 {
				sink.i = int64(v)
			}
			return nil
		},
	}
}

func primeSieveWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDPrimeSieve,
		Name:        "Prime Numbers",
		Description: "sieve of Eratosthenes up to 10000",
		Category:    benchmark.CategoryRecursive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			var prime []bool
			for i := 0; i < workSize; i++ {
				prime = Sieve(sieveLimit)
			}
			if replica == 0 && prime != nil {
				sink.i = int64(len(prime))
			}
			return nil
		},
	}
}

// quickSortWorkload re-randomizes its array before every sort. The fills are
// part of the measured work and are identical in single and multi runs.
func quickSortWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDQuickSort,
		Name:        "QuickSort",
		Description: "in-place quicksort of 10000 random ints",
		Category:    benchmark.CategoryRecursive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			arrays := make([][]int, replicas)
			rngs := make([]*rand.Rand, replicas)
			for r := range arrays {
				arrays[r] = make([]int, sortLength)
				rngs[r] = NewReplicaRand(r)
			}
			return func(replica, workSize int) error {
				a, rng := arrays[replica], rngs[replica]
				for i := 0; i < workSize; i++ {
					for k := range a {
						a[k] = rng.Int()
					}
					QuickSort(a)
				}
				return nil
			}, nil
		},
	}
}

func branchPredictableWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDBranchPredictable,
		Name:        "Branch Prediction (Predictable)",
		Description: "alternating branch pattern",
		Category:    benchmark.CategoryRecursive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Run: func(replica, workSize int) error {
			v := BranchPredictable(workSize)
			if replica == 0 {
				sink.i = v
			}
			return nil
		},
	}
}

func branchRandomWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDBranchRandom,
		Name:        "Branch Prediction (Unpredictable)",
		Description: "random branch pattern",
		Category:    benchmark.CategoryRecursive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			rngs := make([]*rand.Rand, replicas)
			for r := range rngs {
				rngs[r] = NewReplicaRand(r)
			}
			return func(replica, workSize int) error {
				v := BranchRandom(rngs[replica], workSize)
				if replica == 0 {
					sink.i = v
				}
				return nil
			}, nil
		},
	}
}
