// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detect provides host processor detection for rigbench.
//
// It answers two questions for the benchmark harness: which optional
// instruction-set features are present, and what the processor topology
// (logical CPUs and cache sizes) looks like.
//
// # Key Types
//
//   - Capability: an optional instruction-set feature (AVX2, AVX-512F, ...)
//   - Probe: capability query interface; CPUProbe is the cpuid-backed cache
//   - Topology: logical/physical core counts and L1/L2/L3 sizes
//
// # Failure Behavior
//
// Capability detection fails safe: if cpuid cannot be queried the capability
// is reported unsupported. Topology detection returns ErrTopologyUnavailable
// alongside a partial result; WithFallbacks fills the gaps.
//
// # Usage
//
//	probe := detect.DefaultProbe()
//	if probe.IsSupported(detect.CapabilityAVX2) {
//		// run the AVX2 workload
//	}
//
//	topo, err := detect.DetectTopologyCached()
//	if errors.Is(err, detect.ErrTopologyUnavailable) {
//		log.Printf("using fallbacks: %v", err)
//	}
//	topo = topo.WithFallbacks(0, 0)
package detect
