// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigbench/internal/detect"
)

// =============================================================================
// CATEGORIES
// =============================================================================

// Category classifies what kind of work a workload generates.
type Category string

const (
	CategoryMemory              Category = "memory"
	CategoryArithmetic          Category = "arithmetic"
	CategoryRecursive           Category = "recursive"
	CategoryExternalPrimitive   Category = "external-primitive"
	CategoryStructuredSynthetic Category = "structured-synthetic"
	CategoryThreadCommunication Category = "thread-communication"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMemory, CategoryArithmetic, CategoryRecursive,
		CategoryExternalPrimitive, CategoryStructuredSynthetic, CategoryThreadCommunication:
		return true
	}
	return false
}

// =============================================================================
// SUITES
// =============================================================================

// Suite selects which phases of a run include a workload.
type Suite uint8

const (
	// SuiteMemory runs once per buffer size on a single thread.
	SuiteMemory Suite = 1 << iota
	// SuiteSingleCore runs once on the calling goroutine.
	SuiteSingleCore
	// SuiteMultiCore runs one full replica per logical CPU.
	SuiteMultiCore

	SuiteAll = SuiteMemory | SuiteSingleCore | SuiteMultiCore
)

// Has reports whether s includes every bit of other.
func (s Suite) Has(other Suite) bool {
	return other != 0 && s&other == other
}

// Key returns the aggregate key for a single-suite value.
func (s Suite) Key() string {
	switch s {
	case SuiteMemory:
		return AggregateMemory
	case SuiteSingleCore:
		return AggregateSingleCore
	case SuiteMultiCore:
		return AggregateMultiCore
	}
	return ""
}

// String lists the suites in s, e.g. "single-core,multi-core".
func (s Suite) String() string {
	var parts []string
	for _, one := range []Suite{SuiteMemory, SuiteSingleCore, SuiteMultiCore} {
		if s.Has(one) {
			parts = append(parts, one.Key())
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseSuites parses a comma-separated list such as "memory,single,multi".
func ParseSuites(s string) (Suite, error) {
	var out Suite
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "":
		case "memory", "mem":
			out |= SuiteMemory
		case "single", "single-core", "st":
			out |= SuiteSingleCore
		case "multi", "multi-core", "mt":
			out |= SuiteMultiCore
		case "all":
			out |= SuiteAll
		default:
			return 0, fmt.Errorf("unknown suite %q", part)
		}
	}
	if out == 0 {
		return 0, fmt.Errorf("no suites in %q", s)
	}
	return out, nil
}

// =============================================================================
// DESCRIPTOR
// =============================================================================

// RunFunc performs one complete unit of work. replica identifies the
// concurrent copy (0 for single runs); every replica does the same total work.
type RunFunc func(replica, workSize int) error

// PrepareFunc builds the RunFunc for a run of the given width. It is called
// outside the timed region and is where lookup tables, input buffers and
// shared handles are created.
type PrepareFunc func(replicas, workSize int) (RunFunc, error)

// Descriptor describes one workload in the catalog.
type Descriptor struct {
	ID          string
	Name        string
	Description string
	Category    Category
	// Capability gates the workload; CapabilityNone means always run.
	Capability detect.Capability
	Suites     Suite
	// WorkSize is the default size passed to Run (iterations, bytes, ...).
	WorkSize int
	// Prepare is optional. When nil, Run is used directly.
	Prepare PrepareFunc
	Run     RunFunc
}

// Gated reports whether the workload needs an optional capability.
func (d Descriptor) Gated() bool {
	return d.Capability != detect.CapabilityNone
}

// DisplayName returns Name, or ID when no name is set.
func (d Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// prepare resolves the RunFunc for a run of the given width.
func (d Descriptor) prepare(replicas, workSize int) (RunFunc, error) {
	if d.Prepare == nil {
		return d.Run, nil
	}
	run, err := d.Prepare(replicas, workSize)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("workload %s: prepare returned nil run", d.ID)
	}
	return run, nil
}

func (d Descriptor) validate() error {
	switch {
	case strings.TrimSpace(d.ID) == "":
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	case d.Run == nil && d.Prepare == nil:
		return fmt.Errorf("%w: %s has no run function", ErrInvalidDescriptor, d.ID)
	case d.Suites == 0:
		return fmt.Errorf("%w: %s belongs to no suite", ErrInvalidDescriptor, d.ID)
	case d.WorkSize < 0:
		return fmt.Errorf("%w: %s has negative work size", ErrInvalidDescriptor, d.ID)
	case !d.Category.Valid():
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidDescriptor, d.ID, d.Category)
	}
	return nil
}
