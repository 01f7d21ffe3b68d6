// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package runview is the live Bubble Tea display shown while a benchmark
// runs: a spinner on the active workload, a gradient progress bar and the
// most recent finished workloads. Pressing q cancels the run after the
// current workload; a second press leaves immediately.
package runview
