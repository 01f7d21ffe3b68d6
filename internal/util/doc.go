// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the storage and display code.
//
//   - AtomicWriteFile: crash-safe file writes for result files and config
//   - TruncateWidth, PadWidth: column-aware truncation for table output
package util
