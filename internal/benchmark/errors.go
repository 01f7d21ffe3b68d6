// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCapabilityUnsupported marks a gated workload whose capability is absent.
	// Such a workload is excluded from timing and from every aggregate.
	ErrCapabilityUnsupported = errors.New("capability unsupported")

	// ErrWorkloadFault matches any *WorkloadFault via errors.Is.
	ErrWorkloadFault = errors.New("workload fault")

	// ErrDegenerateTiming marks an elapsed time at or below clock resolution.
	ErrDegenerateTiming = errors.New("degenerate timing")

	// ErrInvalidDescriptor is returned by Catalog.Register.
	ErrInvalidDescriptor = errors.New("invalid workload descriptor")

	// ErrDuplicateWorkload is returned when an id is registered twice.
	ErrDuplicateWorkload = errors.New("duplicate workload id")

	// ErrInvalidReplicas is returned when a replicated run asks for fewer
	// than one replica.
	ErrInvalidReplicas = errors.New("invalid replica count")

	// ErrUnknownWorkload is returned by Catalog lookups.
	ErrUnknownWorkload = errors.New("unknown workload")
)

// WorkloadFault is a failure raised while a workload, or one of its replicas,
// was executing. A panic is recovered at the replica boundary and recorded
// here together with its stack.
type WorkloadFault struct {
	Workload string
	Replica  int
	Err      error
	Panic    any
	Stack    []byte
}

func (f *WorkloadFault) Error() string {
	if f.Panic != nil {
		return fmt.Sprintf("workload %s replica %d panicked: %v", f.Workload, f.Replica, f.Panic)
	}
	return fmt.Sprintf("workload %s replica %d failed: %v", f.Workload, f.Replica, f.Err)
}

// Unwrap returns the underlying error, if the fault was not a panic.
func (f *WorkloadFault) Unwrap() error {
	return f.Err
}

// Is matches ErrWorkloadFault.
func (f *WorkloadFault) Is(target error) bool {
	return target == ErrWorkloadFault
}

// IsWorkloadFault reports whether err carries a WorkloadFault.
func IsWorkloadFault(err error) bool {
	var f *WorkloadFault
	return errors.As(err, &f)
}
