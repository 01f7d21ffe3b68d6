// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrRunNotFound   = errors.New("run not found")
	ErrAmbiguousID   = errors.New("run id prefix is ambiguous")
	ErrDatabaseError = errors.New("database error")
	ErrClosed        = errors.New("history is closed")
)

// =============================================================================
// TYPES
// =============================================================================

// Entry is one indexed run.
type Entry struct {
	RunID                 string             `json:"run_id" yaml:"run_id"`
	StartTime             time.Time          `json:"start_time" yaml:"start_time"`
	Duration              time.Duration      `json:"duration" yaml:"duration"`
	CPUName               string             `json:"cpu_name" yaml:"cpu_name"`
	LogicalCPUs           int                `json:"logical_cpus" yaml:"logical_cpus"`
	Replicas              int                `json:"replicas" yaml:"replicas"`
	Suites                string             `json:"suites" yaml:"suites"`
	NormalizationConstant float64            `json:"normalization_constant" yaml:"normalization_constant"`
	Passed                int                `json:"passed" yaml:"passed"`
	Failed                int                `json:"failed" yaml:"failed"`
	Skipped               int                `json:"skipped" yaml:"skipped"`
	ResultPath            string             `json:"result_path,omitempty" yaml:"result_path,omitempty"`
	Scores                map[string]float64 `json:"scores" yaml:"scores"`
}

// ShortID returns the first eight characters of the run id.
func (e Entry) ShortID() string {
	if len(e.RunID) > 8 {
		return e.RunID[:8]
	}
	return e.RunID
}

// Point is one workload sample in a trend.
type Point struct {
	RunID     string                   `json:"run_id" yaml:"run_id"`
	StartTime time.Time                `json:"start_time" yaml:"start_time"`
	Status    benchmark.WorkloadStatus `json:"status" yaml:"status"`
	ElapsedMs float64                  `json:"elapsed_ms" yaml:"elapsed_ms"`
	Score     float64                  `json:"score" yaml:"score"`
}

// =============================================================================
// HISTORY
// =============================================================================

// History is a SQLite-backed run index.
type History struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens (creating if needed) the index at path.
func Open(ctx context.Context, path string) (*History, error) {
	if path == "" {
		return nil, errors.New("history path cannot be empty")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to set pragma: %w", err), db.Close())
		}
	}

	h := &History{db: db, path: path}
	if err := h.initSchema(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to initialize schema: %w", err), db.Close())
	}
	return h, nil
}

func (h *History) initSchema(ctx context.Context) error {
	if _, err := h.db.ExecContext(ctx, Schema); err != nil {
		return err
	}
	_, err := h.db.ExecContext(ctx, InitMetadata)
	return err
}

// Path returns the database path.
func (h *History) Path() string { return h.path }

// Close closes the database.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *History) conn() (*sql.DB, error) {
	if h.db == nil {
		return nil, ErrClosed
	}
	return h.db, nil
}

// =============================================================================
// WRITE
// =============================================================================

// Record indexes a finished run. resultPath is where the full JSON result was
// saved and may be empty. Recording the same run id twice replaces it.
func (h *History) Record(ctx context.Context, r *benchmark.Result, resultPath string) (err error) {
	if r == nil || r.RunID == "" {
		return errors.New("result must have a run id")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	db, err := h.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, ignoreDone(tx.Rollback()))
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", r.RunID); err != nil {
		return fmt.Errorf("failed to replace run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, duration_ns, cpu_name, logical_cpus, replicas,
			suites, normalization_constant, passed, failed, skipped, result_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.StartTime.UnixNano(), int64(r.Duration), r.Host.CPUName, r.Host.LogicalCPUs,
		r.Replicas, r.Suites, r.NormalizationConstant, r.PassedCount, r.FailedCount,
		r.SkippedCount, resultPath)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for key, score := range r.Scores {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO scores (run_id, key, score) VALUES (?, ?, ?)",
			r.RunID, key, score); err != nil {
			return fmt.Errorf("failed to insert score %s: %w", key, err)
		}
	}

	for _, w := range r.Workloads {
		if _, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO workloads (run_id, workload_id, suite, status, elapsed_ms, score)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.RunID, w.ID, w.Suite, string(w.Status), w.ElapsedMs, w.Score); err != nil {
			return fmt.Errorf("failed to insert workload %s: %w", w.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func ignoreDone(err error) error {
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Clear removes every indexed run and returns how many there were.
func (h *History) Clear(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	db, err := h.conn()
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, "DELETE FROM runs")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// =============================================================================
// READ
// =============================================================================

const entryColumns = `run_id, started_at, duration_ns, COALESCE(cpu_name, ''), logical_cpus,
	replicas, suites, normalization_constant, passed, failed, skipped, COALESCE(result_path, '')`

func scanEntry(row interface{ Scan(...any) error }) (Entry, error) {
	var (
		e         Entry
		startedAt int64
		duration  int64
	)
	err := row.Scan(&e.RunID, &startedAt, &duration, &e.CPUName, &e.LogicalCPUs,
		&e.Replicas, &e.Suites, &e.NormalizationConstant, &e.Passed, &e.Failed,
		&e.Skipped, &e.ResultPath)
	if err != nil {
		return Entry{}, err
	}
	e.StartTime = time.Unix(0, startedAt)
	e.Duration = time.Duration(duration)
	return e, nil
}

// List returns the most recent runs first. limit <= 0 means all.
func (h *History) List(ctx context.Context, limit int) ([]Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	db, err := h.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + entryColumns + " FROM runs ORDER BY started_at DESC, run_id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, multierr.Append(err, rows.Close())
		}
		entries = append(entries, e)
	}
	if err := multierr.Append(rows.Err(), rows.Close()); err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].Scores, err = h.scores(ctx, db, entries[i].RunID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Get finds a run by id or unique id prefix.
func (h *History) Get(ctx context.Context, prefix string) (Entry, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Entry{}, ErrRunNotFound
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	db, err := h.conn()
	if err != nil {
		return Entry{}, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM runs WHERE run_id LIKE ? ESCAPE '\\' ORDER BY started_at DESC LIMIT 2",
		escapeLike(prefix)+"%")
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	var matches []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Entry{}, multierr.Append(err, rows.Close())
		}
		matches = append(matches, e)
	}
	if err := multierr.Append(rows.Err(), rows.Close()); err != nil {
		return Entry{}, err
	}

	switch len(matches) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
	default:
		if matches[0].RunID != prefix {
			return Entry{}, fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
		}
	}

	e := matches[0]
	if e.Scores, err = h.scores(ctx, db, e.RunID); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (h *History) scores(ctx context.Context, db *sql.DB, runID string) (map[string]float64, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, score FROM scores WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	out := make(map[string]float64)
	for rows.Next() {
		var (
			key   string
			score float64
		)
		if err := rows.Scan(&key, &score); err != nil {
			return nil, multierr.Append(err, rows.Close())
		}
		out[key] = score
	}
	return out, multierr.Append(rows.Err(), rows.Close())
}

// Trend returns a workload's samples oldest first. An empty suite matches
// every suite the workload ran in.
func (h *History) Trend(ctx context.Context, workloadID, suite string) ([]Point, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	db, err := h.conn()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT w.run_id, r.started_at, w.status, w.elapsed_ms, w.score
		FROM workloads w JOIN runs r ON r.run_id = w.run_id
		WHERE w.workload_id = ?`
	args := []any{workloadID}
	if suite != "" {
		query += " AND w.suite = ?"
		args = append(args, suite)
	}
	query += " ORDER BY r.started_at"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	var points []Point
	for rows.Next() {
		var (
			p         Point
			startedAt int64
			status    string
		)
		if err := rows.Scan(&p.RunID, &startedAt, &status, &p.ElapsedMs, &p.Score); err != nil {
			return nil, multierr.Append(err, rows.Close())
		}
		p.StartTime = time.Unix(0, startedAt)
		p.Status = benchmark.WorkloadStatus(status)
		points = append(points, p)
	}
	return points, multierr.Append(rows.Err(), rows.Close())
}

// Best returns the highest recorded score for each aggregate key, keyed by
// aggregate. Runs with a different normalization constant are left out.
func (h *History) Best(ctx context.Context, k float64) (map[string]Entry, error) {
	entries, err := h.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	best := make(map[string]Entry)
	for _, e := range entries {
		if e.NormalizationConstant != k {
			continue
		}
		for key, score := range e.Scores {
			if cur, ok := best[key]; !ok || score > cur.Scores[key] {
				best[key] = e
			}
		}
	}
	return best, nil
}

// Keys returns the aggregate keys present in e in report order, followed by
// any others alphabetically.
func (e Entry) Keys() []string {
	var keys []string
	seen := make(map[string]bool)
	for _, k := range benchmark.AggregateKeys {
		if _, ok := e.Scores[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range e.Scores {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
