// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workloads is the standard rigbench battery.
//
// Every workload is a benchmark.Descriptor built from a size and registered
// by NewCatalog. Per-replica inputs, lookup tables and shared handles are
// built in Prepare so the timed region only covers the work itself.
//
// Replicas never share a random generator: NewReplicaRand seeds one per
// replica. The thread-communication workload is the one place replicas
// share mutable state, through a SharedCounter.
package workloads
