// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for the run index.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per completed run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    started_at INTEGER NOT NULL,   -- Unix nanoseconds
    duration_ns INTEGER NOT NULL,
    cpu_name TEXT,
    logical_cpus INTEGER NOT NULL,
    replicas INTEGER NOT NULL,
    suites TEXT NOT NULL,
    normalization_constant REAL NOT NULL,
    passed INTEGER NOT NULL,
    failed INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    result_path TEXT               -- JSON file written by the result storage
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

-- Aggregate scores per run (memory, single-core, ...)
CREATE TABLE IF NOT EXISTS scores (
    run_id TEXT NOT NULL,
    key TEXT NOT NULL,
    score REAL NOT NULL,
    PRIMARY KEY (run_id, key),
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
) WITHOUT ROWID;

-- Per-workload outcomes
CREATE TABLE IF NOT EXISTS workloads (
    run_id TEXT NOT NULL,
    workload_id TEXT NOT NULL,
    suite TEXT NOT NULL,
    status TEXT NOT NULL,
    elapsed_ms REAL NOT NULL,
    score REAL NOT NULL,
    PRIMARY KEY (run_id, workload_id, suite),
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_workloads_workload ON workloads(workload_id, suite);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
