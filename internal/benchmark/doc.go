// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package benchmark is the execution and scoring harness of rigbench.
//
// A run walks a Catalog of workload descriptors through three suites
// (memory, single-core, multi-core), times each workload with the Engine,
// turns elapsed time into a score with the Normalizer and folds the scores
// into per-suite aggregates.
//
// # Key Types
//
//   - Descriptor: one workload with its category, gate and run function
//   - Catalog: ordered, data-driven registry of descriptors
//   - Engine: RunSingle and RunReplicated timing
//   - Normalizer: round(K / elapsedMs), times replicas for multi-core
//   - Aggregator: per-suite means over included workloads only
//   - Runner: drives a whole run and produces a Result
//   - Storage: JSON persistence of results
//
// # Replication
//
// Multi-core runs start one replica per logical CPU and every replica runs
// the complete workload. Elapsed time ends when the last replica joins, so
// the multi-core score measures aggregate throughput rather than speedup.
//
// # Usage
//
//	runner := benchmark.NewRunner(catalog, detect.DefaultProbe(),
//		benchmark.WithTopology(topo),
//		benchmark.WithLogger(logger))
//	result, err := runner.Run(ctx)
//	fmt.Println(result.Summary())
//
// # Failures
//
//   - Unsupported capability: the workload is skipped and excluded
//   - WorkloadFault: a returned error or recovered panic in any replica
//   - ErrDegenerateTiming: elapsed time too small to score
//
// None of these abort the run; the workload is recorded and the next starts.
package benchmark
