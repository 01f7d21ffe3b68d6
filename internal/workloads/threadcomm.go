// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"fmt"
	"sync"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// THREAD COMMUNICATION
// =============================================================================

// SharedCounter is the state the thread-communication replicas contend on.
//
// Every iteration of ThreadCommunication takes mu twice:
//
//  1. increment counter, store it in the caller's slot, read the next
//     replica's slot;
//  2. add the value read in step 1 into the caller's slot.
//
// All fields are guarded by mu. Nothing else in the workloads package
// shares mutable state across replicas.
type SharedCounter struct {
	mu       sync.Mutex
	counter  int64
	slots    []int64
	finished int
}

// NewSharedCounter returns a handle for threads replicas.
func NewSharedCounter(threads int) (*SharedCounter, error) {
	if threads < 1 {
		return nil, fmt.Errorf("thread count must be at least 1, got %d", threads)
	}
	return &SharedCounter{slots: make([]int64, threads)}, nil
}

// Threads is the number of slots.
func (s *SharedCounter) Threads() int { return len(s.slots) }

// Counter returns the current shared counter.
func (s *SharedCounter) Counter() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Slot returns replica i's slot.
func (s *SharedCounter) Slot(i int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[i]
}

// ThreadCommunication runs iterations rounds of the two critical sections
// for one replica.
func ThreadCommunication(s *SharedCounter, replica, iterations int) error {
	n := len(s.slots)
	if replica < 0 || replica >= n {
		return fmt.Errorf("replica %d out of range [0,%d)", replica, n)
	}
	next := (replica + 1) % n
	for i := 0; i < iterations; i++ {
		s.mu.Lock()
		s.counter++
		s.slots[replica] = s.counter
		neighbor := s.slots[next]
		s.mu.Unlock()

		s.mu.Lock()
		s.slots[replica] += neighbor
		s.mu.Unlock()
	}
	return nil
}

// finish marks one replica done. The last replica to finish checks that no
// increment was lost.
func (s *SharedCounter) finish(iterations int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
	if s.finished < len(s.slots) {
		return nil
	}
	want := int64(len(s.slots)) * int64(iterations)
	if s.counter != want {
		return fmt.Errorf("shared counter is %d, want %d", s.counter, want)
	}
	return nil
}

func threadCommWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDThreadCommunication,
		Name:        "Thread Communication",
		Description: "replicas exchange values through one mutex-guarded array",
		Category:    benchmark.CategoryThreadCommunication,
		Suites:      benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			shared, err := NewSharedCounter(replicas)
			if err != nil {
				return nil, err
			}
			return func(replica, workSize int) error {
				if err := ThreadCommunication(shared, replica, workSize); err != nil {
					return err
				}
				return shared.finish(workSize)
			}, nil
		},
	}
}
