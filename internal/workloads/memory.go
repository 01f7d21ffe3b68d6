// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"fmt"
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// MEMORY SUBSYSTEM
// =============================================================================

const (
	// gatherStep is the distance between gathered elements.
	gatherStep = 128
	// maxStride bounds the doubling stride sweep.
	maxStride = 16
)

// MemorySweep runs passes full passes over buf. Each pass performs, in order,
// a forward read-modify-write sweep, a reverse sweep, a random-index sweep,
// a stride sweep (strides 1..16, doubling) and a fixed-offset gather.
func MemorySweep(buf []int32, passes int, rng *rand.Rand) {
	n := len(buf)
	if n == 0 {
		return
	}
	for p := 0; p < passes; p++ {
		for i := 0; i < n; i++ {
			v := buf[i]
			buf[i] = v*2 + v/3 - v%5
		}

		for i := 0; i < n; i++ {
			r := n - 1 - i
			v := buf[r]
			buf[r] = v*3/2 + v%7
		}

		for i := 0; i < n; i++ {
			idx := rng.IntN(n)
			buf[idx] = (buf[idx] + rng.Int32()) / 2
		}

		for stride := 1; stride <= maxStride; stride *= 2 {
			s := int32(stride)
			for i := 0; i < n; i += stride {
				v := buf[i]
				buf[i] = v*s - v%5
			}
		}

		for i := 0; i < n; i += gatherStep {
			buf[i] = buf[(i+gatherStep/2)%n] + buf[(i+gatherStep)%n]
		}
	}
}

// memoryWorkload builds the descriptor for one buffer size. The buffer is
// allocated and randomized in Prepare, before the timer starts.
func memoryWorkload(id, name string, sizeBytes int, passes int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          id,
		Name:        name,
		Description: fmt.Sprintf("read-modify-write sweeps over a %s buffer", formatBytes(sizeBytes)),
		Category:    benchmark.CategoryMemory,
		Suites:      benchmark.SuiteMemory,
		WorkSize:    sizeBytes,
		Prepare: func(replicas, workSize int) (benchmark.RunFunc, error) {
			elements := workSize / 4
			if elements < 1 {
				return nil, fmt.Errorf("buffer of %d bytes holds no elements", workSize)
			}
			buffers := make([][]int32, replicas)
			rngs := make([]*rand.Rand, replicas)
			for r := range buffers {
				rngs[r] = NewReplicaRand(r)
				buf := make([]int32, elements)
				for i := range buf {
					buf[i] = rngs[r].Int32()
				}
				buffers[r] = buf
			}
			return func(replica, _ int) error {
				MemorySweep(buffers[replica], passes, rngs[replica])
				return nil
			}, nil
		},
	}
}
