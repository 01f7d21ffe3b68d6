// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps a SQLite index of past benchmark runs.
//
// The full results stay in the JSON files written by benchmark.Storage; the
// index holds the aggregate scores and per-workload outcomes so runs can be
// listed, looked up by id prefix and charted per workload without reading
// every file.
//
// # Usage
//
//	h, err := history.Open(ctx, path)
//	if err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	err = h.Record(ctx, result, savedPath)
//	runs, err := h.List(ctx, 20)
package history
