// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/util"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Result contains a complete benchmark run.
type Result struct {
	RunID                 string                       `json:"run_id" yaml:"run_id"`
	Host                  detect.Topology              `json:"host" yaml:"host"`
	Capabilities          []string                     `json:"capabilities" yaml:"capabilities"`
	NormalizationConstant float64                      `json:"normalization_constant" yaml:"normalization_constant"`
	Replicas              int                          `json:"replicas" yaml:"replicas"`
	Suites                string                       `json:"suites" yaml:"suites"`
	StartTime             time.Time                    `json:"start_time" yaml:"start_time"`
	EndTime               time.Time                    `json:"end_time" yaml:"end_time"`
	Duration              time.Duration                `json:"duration" yaml:"duration"`
	Workloads             []WorkloadResult             `json:"workloads" yaml:"workloads"`
	Aggregates            map[string]CategoryAggregate `json:"aggregates" yaml:"aggregates"`
	Scores                map[string]float64           `json:"scores" yaml:"scores"`
	PassedCount           int                          `json:"passed" yaml:"passed"`
	FailedCount           int                          `json:"failed" yaml:"failed"`
	SkippedCount          int                          `json:"skipped" yaml:"skipped"`
}

// WorkloadResult is the outcome of one workload in one suite.
type WorkloadResult struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Category   Category       `json:"category" yaml:"category"`
	Capability string         `json:"capability,omitempty" yaml:"capability,omitempty"`
	Suite      string         `json:"suite" yaml:"suite"`
	WorkSize   int            `json:"work_size" yaml:"work_size"`
	Replicas   int            `json:"replicas" yaml:"replicas"`
	Status     WorkloadStatus `json:"status" yaml:"status"`
	Elapsed    time.Duration  `json:"elapsed" yaml:"elapsed"`
	ElapsedMs  float64        `json:"elapsed_ms" yaml:"elapsed_ms"`
	Score      float64        `json:"score" yaml:"score"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// WorkloadStatus indicates the outcome of a workload.
type WorkloadStatus string

const (
	StatusPending WorkloadStatus = "pending"
	StatusRunning WorkloadStatus = "running"
	StatusPassed  WorkloadStatus = "passed"
	StatusFailed  WorkloadStatus = "failed"
	StatusSkipped WorkloadStatus = "skipped"
)

// computeAggregates derives rounded scores and status counts from
// Aggregates and Workloads.
func (r *Result) computeAggregates() {
	r.Scores = make(map[string]float64, len(r.Aggregates))
	for key, a := range r.Aggregates {
		if a.IncludedCount > 0 {
			r.Scores[key] = math.Round(a.Mean())
		}
	}

	r.PassedCount, r.FailedCount, r.SkippedCount = 0, 0, 0
	for _, w := range r.Workloads {
		switch w.Status {
		case StatusPassed:
			r.PassedCount++
		case StatusFailed:
			r.FailedCount++
		case StatusSkipped:
			r.SkippedCount++
		}
	}
}

// Score returns the rounded mean for an aggregate key and whether it exists.
func (r *Result) Score(key string) (float64, bool) {
	s, ok := r.Scores[key]
	return s, ok
}

// Failed returns the workloads that did not pass or get skipped.
func (r *Result) Failed() []WorkloadResult {
	var out []WorkloadResult
	for _, w := range r.Workloads {
		if w.Status == StatusFailed {
			out = append(out, w)
		}
	}
	return out
}

// ShortID returns the first eight characters of the run id.
func (r *Result) ShortID() string {
	if len(r.RunID) > 8 {
		return r.RunID[:8]
	}
	return r.RunID
}

// =============================================================================
// COMPARISON
// =============================================================================

// Comparison contrasts two runs aggregate by aggregate.
type Comparison struct {
	Baseline  *Result          `json:"baseline" yaml:"baseline"`
	Candidate *Result          `json:"candidate" yaml:"candidate"`
	Deltas    []AggregateDelta `json:"deltas" yaml:"deltas"`
	Warnings  []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// AggregateDelta is the change in one aggregate between two runs.
type AggregateDelta struct {
	Key       string  `json:"key" yaml:"key"`
	Baseline  float64 `json:"baseline" yaml:"baseline"`
	Candidate float64 `json:"candidate" yaml:"candidate"`
	// Ratio is Candidate/Baseline; 0 when either side is missing.
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

// Compare builds a Comparison. Runs scored with different normalization
// constants are not comparable; a warning is attached.
func Compare(baseline, candidate *Result) *Comparison {
	c := &Comparison{Baseline: baseline, Candidate: candidate}
	if baseline.NormalizationConstant != candidate.NormalizationConstant {
		c.Warnings = append(c.Warnings, fmt.Sprintf(
			"normalization constants differ (%.0f vs %.0f); scores are not comparable",
			baseline.NormalizationConstant, candidate.NormalizationConstant))
	}
	for _, key := range AggregateKeys {
		b, okB := baseline.Score(key)
		cand, okC := candidate.Score(key)
		if !okB && !okC {
			continue
		}
		d := AggregateDelta{Key: key, Baseline: b, Candidate: cand}
		if okB && okC && b > 0 {
			d.Ratio = cand / b
		}
		c.Deltas = append(c.Deltas, d)
	}
	return c
}

// =============================================================================
// RESULT STORAGE
// =============================================================================

// ErrResultNotFound is returned when no stored run matches.
var ErrResultNotFound = errors.New("benchmark result not found")

// Storage handles saving and loading benchmark results as JSON files.
type Storage struct {
	dir string
}

// DefaultResultsDir returns ~/.rigbench/results.
func DefaultResultsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".rigbench", "results"), nil
}

// NewStorage creates a storage instance in the default directory.
func NewStorage() (*Storage, error) {
	dir, err := DefaultResultsDir()
	if err != nil {
		return nil, err
	}
	return NewStorageWithDir(dir)
}

// NewStorageWithDir creates a storage instance with a custom directory.
func NewStorageWithDir(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Storage) Dir() string { return s.dir }

// Save writes result atomically and returns the file path.
func (s *Storage) Save(result *Result) (string, error) {
	if result.RunID == "" {
		return "", errors.New("result has no run id")
	}
	timestamp := result.StartTime.UTC().Format("20060102-150405")
	filename := fmt.Sprintf("%s_%s.json", timestamp, sanitizeFilename(result.RunID))
	path := filepath.Join(s.dir, filename)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return path, nil
}

// Load reads a result by file name.
func (s *Storage) Load(filename string) (*Result, error) {
	path := filepath.Join(s.dir, filepath.Base(filename))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResultNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Find loads the newest result whose run id starts with prefix.
func (s *Storage) Find(prefix string) (*Result, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrResultNotFound)
	}
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		_, id, ok := strings.Cut(strings.TrimSuffix(f, ".json"), "_")
		if ok && strings.HasPrefix(id, prefix) {
			return s.Load(f)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrResultNotFound, prefix)
}

// List returns stored result files, newest first.
func (s *Storage) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			files = append(files, entry.Name())
		}
	}

	// File names start with a sortable UTC timestamp.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

// Latest loads the most recent stored result.
func (s *Storage) Latest() (*Result, error) {
	files, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrResultNotFound
	}
	return s.Load(files[0])
}

// Delete removes every stored result and returns how many were removed.
func (s *Storage) Delete() (int, error) {
	files, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := os.Remove(filepath.Join(s.dir, f)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", f, err)
		}
		removed++
	}
	return removed, nil
}

// sanitizeFilename removes characters that aren't safe for filenames.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', ' ', '*', '?', '<', '>', '|', '"', '_':
			return '-'
		}
		return r
	}, name)
}

// =============================================================================
// SUMMARY GENERATION
// =============================================================================

// Summary returns a plain-text summary of the run.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Host: %s\n", r.Host.String())
	fmt.Fprintf(&b, "Duration: %s\n", FormatDuration(r.Duration))
	fmt.Fprintf(&b, "Workloads: %d passed, %d failed, %d skipped\n", r.PassedCount, r.FailedCount, r.SkippedCount)
	for _, key := range AggregateKeys {
		if s, ok := r.Score(key); ok {
			fmt.Fprintf(&b, "%s: %s\n", key, FormatScore(s))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ComparisonSummary returns a plain-text summary of a comparison.
func (c *Comparison) ComparisonSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Baseline:  %s (%s)\n", c.Baseline.ShortID(), c.Baseline.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "Candidate: %s (%s)\n", c.Candidate.ShortID(), c.Candidate.StartTime.Format(time.RFC3339))
	for _, d := range c.Deltas {
		if d.Ratio > 0 {
			fmt.Fprintf(&b, "%s: %s -> %s (%+.1f%%)\n", d.Key, FormatScore(d.Baseline), FormatScore(d.Candidate), (d.Ratio-1)*100)
		} else {
			fmt.Fprintf(&b, "%s: %s -> %s\n", d.Key, FormatScore(d.Baseline), FormatScore(d.Candidate))
		}
	}
	for _, w := range c.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return strings.TrimRight(b.String(), "\n")
}
