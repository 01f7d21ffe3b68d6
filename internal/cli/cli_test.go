// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/history"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// captureOutput redirects the package writers for the duration of a test.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	prevOut, prevErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return out, errOut
}

// isolate points configuration, results and history at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RIGBENCH_RESULTS_DIR", filepath.Join(home, "results"))
	t.Setenv("RIGBENCH_HISTORY_DB", filepath.Join(home, "history.db"))
	t.Setenv("RIGBENCH_NO_PRIORITY", "1")
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	return home
}

func testResult(id string, start time.Time, single float64) *benchmark.Result {
	return &benchmark.Result{
		RunID:                 id,
		Host:                  detect.Topology{CPUName: "Test CPU", LogicalCPUs: 4, PhysicalCores: 2},
		NormalizationConstant: benchmark.DefaultNormalizationConstant,
		Replicas:              4,
		Suites:                "single-core",
		StartTime:             start,
		Duration:              3 * time.Second,
		Workloads: []benchmark.WorkloadResult{
			{ID: "fibonacci", Name: "Fibonacci", Suite: benchmark.AggregateSingleCore,
				Status: benchmark.StatusPassed, Elapsed: 10 * time.Millisecond, Score: single},
		},
		Aggregates: map[string]benchmark.CategoryAggregate{
			benchmark.AggregateSingleCore: {Sum: single, IncludedCount: 1},
		},
		Scores:      map[string]float64{benchmark.AggregateSingleCore: single},
		PassedCount: 1,
	}
}

// storeRuns saves results to disk and indexes them, as a run would.
func storeRuns(t *testing.T, results ...*benchmark.Result) {
	t.Helper()
	ctx := context.Background()
	cfg, err := config.Load()
	require.NoError(t, err)

	store, err := openStorage(cfg)
	require.NoError(t, err)
	h, err := openHistory(ctx, cfg)
	require.NoError(t, err)
	defer h.Close()

	for _, r := range results {
		path, err := store.Save(r)
		require.NoError(t, err)
		require.NoError(t, h.Record(ctx, r, path))
	}
}

// =============================================================================
// PARSE TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(t *testing.T, a Args)
	}{
		{name: "no args runs", argv: nil, wantCmd: CmdRun},
		{name: "flag first runs", argv: []string{"--suite", "single"}, wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, []string{"--suite", "single"}, a.Raw)
				assert.Empty(t, a.Subcommand)
			}},
		{name: "bench alias", argv: []string{"bench"}, wantCmd: CmdRun},
		{name: "list alias", argv: []string{"workloads"}, wantCmd: CmdList},
		{name: "info alias", argv: []string{"host"}, wantCmd: CmdInfo},
		{name: "history subcommand", argv: []string{"history", "Show", "abc123"}, wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				assert.Equal(t, "show", a.Subcommand)
				assert.Equal(t, []string{"Show", "abc123"}, a.Raw)
			}},
		{name: "config alias", argv: []string{"cfg", "path"}, wantCmd: CmdConfig},
		{name: "help flag", argv: []string{"-h"}, wantCmd: CmdHelp},
		{name: "version flag", argv: []string{"--version"}, wantCmd: CmdVersion},
		{name: "global flags anywhere", argv: []string{"history", "list", "--json", "-v", "--config", "/tmp/x.toml"}, wantCmd: CmdHistory,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.True(t, a.Verbose)
				assert.Equal(t, "/tmp/x.toml", a.ConfigPath)
				assert.Equal(t, "json", a.Format)
				assert.Equal(t, []string{"list"}, a.Raw)
			}},
		{name: "format json implies JSON", argv: []string{"--format=JSON"}, wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.True(t, a.JSON)
				assert.Equal(t, "json", a.Format)
			}},
		{name: "format yaml", argv: []string{"run", "--format", "yaml", "-q"}, wantCmd: CmdRun,
			check: func(t *testing.T, a Args) {
				assert.False(t, a.JSON)
				assert.True(t, a.Quiet)
				assert.Equal(t, "yaml", a.Format)
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, cmd, "got %s", cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		field string
	}{
		{"unknown command", []string{"frobnicate"}, "command"},
		{"unsupported format", []string{"--format", "xml"}, "format"},
		{"missing config value", []string{"--config"}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.argv)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, ExitUsageError, GetExitCode(err))
		})
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "history", CmdHistory.String())
	assert.Equal(t, "unknown", Command(99).String())
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		bools    []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "flag with value",
			args:    []string{"list", "--limit", "5"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				n, err := p.FlagInt("limit")
				require.NoError(t, err)
				assert.Equal(t, 5, n)
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"trend", "fibonacci", "--suite=single"},
			wantSub: "trend",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "single", p.Flag("suite"))
				assert.Equal(t, "fibonacci", p.Positional(1))
			},
		},
		{
			name:    "declared bool does not consume the next argument",
			args:    []string{"clear", "--yes", "extra"},
			bools:   []string{"yes"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("yes"))
				assert.Equal(t, 2, p.PositionalCount())
			},
		},
		{
			name: "undeclared flag takes the next argument",
			args: []string{"--yes", "extra"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("yes"))
				assert.Equal(t, "extra", p.Flag("yes"))
			},
		},
		{
			name: "explicit false",
			args: []string{"--no-save=false"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("no-save"))
				assert.True(t, p.HasFlag("no-save"))
			},
		},
		{
			name:    "double dash ends flags",
			args:    []string{"get", "--", "--weird"},
			wantSub: "get",
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, []string{"--weird"}, p.PositionalFrom(1))
			},
		},
		{
			name: "trailing flag is boolean",
			args: []string{"--tui"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("tui"))
				assert.Equal(t, "auto", p.FlagOrDefault("tui", "auto"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, tt.bools...)
			assert.Equal(t, tt.wantSub, p.Subcommand())
			assert.Equal(t, tt.args, p.Raw())
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestParseIntWithValidation(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"12", 12, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntWithValidation(tt.in, "replicas")
			if tt.wantErr {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "replicas", verr.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"fibonacci", "quick-sort"}, ParseList(" fibonacci, ,quick-sort,"))
	assert.Nil(t, ParseList(""))
}

// =============================================================================
// ERROR TESTS (errors.go)
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"generic", errors.New("boom"), ExitGeneralError},
		{"validation", NewValidationError("limit", "x", "bad"), ExitUsageError},
		{"config", &ConfigError{Path: "a.toml", Err: errors.New("parse")}, ExitConfigError},
		{"config validation", fmt.Errorf("invalid config: %w", config.ValidateErrors{{Field: "output.format", Message: "bad"}}), ExitConfigError},
		{"not found", &NotFoundError{Resource: "run", ID: "abc"}, ExitNotFoundError},
		{"stored result missing", fmt.Errorf("load: %w", benchmark.ErrResultNotFound), ExitNotFoundError},
		{"history missing", history.ErrRunNotFound, ExitNotFoundError},
		{"unknown workload", WrapError(benchmark.ErrUnknownWorkload, "run"), ExitNotFoundError},
		{"benchmark failed", &BenchmarkFailedError{RunID: "abc", Failed: []string{"single-core/fibonacci"}}, ExitBenchmarkFailed},
		{"interrupted", WrapError(ErrInterrupted, "run"), ExitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestNewBenchmarkFailed(t *testing.T) {
	r := testResult("abcdef0123", time.Now(), 100)
	assert.NoError(t, newBenchmarkFailed(r))

	r.Workloads = append(r.Workloads, benchmark.WorkloadResult{
		ID: "quick-sort", Suite: benchmark.AggregateMultiCore, Status: benchmark.StatusFailed, Error: "panic",
	})
	err := newBenchmarkFailed(r)
	var bf *BenchmarkFailedError
	require.ErrorAs(t, err, &bf)
	assert.Equal(t, "abcdef01", bf.RunID)
	assert.Equal(t, []string{"multi-core/quick-sort"}, bf.Failed)
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, &NotFoundError{Resource: "run", ID: "abc"}, false)
	assert.Contains(t, buf.String(), "run not found: abc")

	buf.Reset()
	DisplayError(&buf, &NotFoundError{Resource: "run", ID: "abc"}, true)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "not_found_error", out["error_type"])
	assert.Equal(t, float64(ExitNotFoundError), out["exit_code"])
	assert.Equal(t, false, out["success"])

	buf.Reset()
	DisplayError(&buf, nil, false)
	assert.Empty(t, buf.String())
}

// =============================================================================
// TERMINAL TESTS (terminal.go)
// =============================================================================

func TestUseTUI(t *testing.T) {
	tests := []struct {
		name  string
		mode  string
		force bool
		args  Args
		want  bool
	}{
		{"json never", "always", true, Args{JSON: true}, false},
		{"quiet never", "always", true, Args{Quiet: true}, false},
		{"yaml never", "always", false, Args{Format: "yaml"}, false},
		{"forced", "never", true, Args{}, true},
		{"always", "always", false, Args{Format: "text"}, true},
		{"never", "never", false, Args{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UseTUI(tt.mode, tt.force, tt.args))
		})
	}
}

func TestWrapText(t *testing.T) {
	wrapped := WrapText("the quick brown fox jumps over the lazy dog", 15)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 15)
	}
	assert.Equal(t, "short", WrapText("short", 40))
}

// =============================================================================
// REPORT TESTS (output.go)
// =============================================================================

func TestWriteReport_Formats(t *testing.T) {
	r := testResult("0f3a9c1e-7d2b-4c55-9a10-1b2c3d4e5f60", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), 83333)

	t.Run("json envelope", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, "run", "json", r, false))
		var resp struct {
			Success bool              `json:"success"`
			Command string            `json:"command"`
			Data    *benchmark.Result `json:"data"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "run", resp.Command)
		require.NotNil(t, resp.Data)
		assert.Equal(t, r.RunID, resp.Data.RunID)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, "run", "yaml", r, false))
		var doc map[string]interface{}
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
		assert.NotEmpty(t, doc)
		assert.Contains(t, buf.String(), r.RunID)
	})

	t.Run("plain markdown", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, "run", "markdown", r, false))
		assert.True(t, strings.HasPrefix(buf.String(), "# Benchmark 0f3a9c1e"))
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, "run", "text", r, false))
		assert.Contains(t, buf.String(), "83,333")
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := WriteReport(&bytes.Buffer{}, "run", "xml", r, false)
		assert.Equal(t, ExitUsageError, GetExitCode(err))
	})

	t.Run("unsupported payload", func(t *testing.T) {
		assert.Error(t, WriteReport(&bytes.Buffer{}, "run", "json", "nope", false))
	})
}

func TestResultMarkdown(t *testing.T) {
	r := testResult("0f3a9c1e-7d2b", time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), 83333)
	r.Capabilities = []string{"avx2"}
	r.Workloads = append(r.Workloads,
		benchmark.WorkloadResult{ID: "vector-avx512", Name: "Vector Math (AVX-512)", Suite: benchmark.AggregateSingleCore,
			Status: benchmark.StatusSkipped, Capability: "avx512f"},
		benchmark.WorkloadResult{ID: "quick-sort", Name: "Quick Sort", Suite: benchmark.AggregateMultiCore,
			Status: benchmark.StatusFailed, Error: "bad | input"},
	)

	md := ResultMarkdown(r)
	assert.Contains(t, md, "- **Extensions:** avx2")
	assert.Contains(t, md, "| single-core | 83,333 | 1 | 0 | 0 |")
	assert.Contains(t, md, "skipped (requires avx512f)")
	assert.Contains(t, md, `failed: bad \| input`)
}

func TestComparisonMarkdown(t *testing.T) {
	base := testResult("aaaaaaaa-1", time.Now(), 100)
	cand := testResult("bbbbbbbb-2", time.Now(), 125)
	cand.NormalizationConstant = 2_000_000

	md := ComparisonMarkdown(benchmark.Compare(base, cand))
	assert.Contains(t, md, "# Comparison aaaaaaaa vs bbbbbbbb")
	assert.Contains(t, md, "+25.0%")
	assert.Contains(t, md, "**Warning:**")
}

// =============================================================================
// PROGRESS TESTS (run.go)
// =============================================================================

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	pp := newProgressPrinter(&buf, false, zap.NewNop())

	pp.report(benchmark.Progress{Suite: benchmark.SuiteSingleCore, Workload: "fibonacci", Name: "Fibonacci", Index: 1, Total: 2})
	assert.Empty(t, buf.String(), "start events print nothing")

	pp.heartbeat(time.Now().Add(heartbeatInterval + time.Second))
	assert.Contains(t, buf.String(), "still running Fibonacci")

	buf.Reset()
	pp.heartbeat(time.Now().Add(heartbeatInterval + 2*time.Second))
	assert.Empty(t, buf.String(), "heartbeat is throttled")

	rec := benchmark.WorkloadResult{ID: "fibonacci", Name: "Fibonacci", Suite: benchmark.AggregateSingleCore,
		Status: benchmark.StatusPassed, Elapsed: 5 * time.Millisecond, Score: 200000}
	pp.report(benchmark.Progress{Suite: benchmark.SuiteSingleCore, Workload: "fibonacci", Name: "Fibonacci",
		Index: 1, Total: 2, Done: true, Record: &rec})
	assert.Contains(t, buf.String(), "200,000")

	buf.Reset()
	pp.heartbeat(time.Now().Add(time.Hour))
	assert.Empty(t, buf.String(), "no heartbeat between workloads")
}

func TestProgressPrinter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	pp := newProgressPrinter(&buf, true, zap.NewNop())
	rec := benchmark.WorkloadResult{ID: "fibonacci", Status: benchmark.StatusPassed}
	pp.report(benchmark.Progress{Name: "Fibonacci", Index: 1, Total: 1})
	pp.heartbeat(time.Now().Add(time.Hour))
	pp.report(benchmark.Progress{Name: "Fibonacci", Index: 1, Total: 1, Done: true, Record: &rec})
	assert.Empty(t, buf.String())

	stop := pp.startHeartbeat()
	stop()
}

// =============================================================================
// CONFIRMATION TESTS (confirm.go)
// =============================================================================

type fakePrompter struct {
	answers []string
	prompts []string
	closed  bool
}

func (f *fakePrompter) Prompt(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.answers) == 0 {
		return "", errors.New("no more answers")
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

func (f *fakePrompter) Close() error {
	f.closed = true
	return nil
}

func withPrompter(t *testing.T, tty bool, answers ...string) *fakePrompter {
	t.Helper()
	fake := &fakePrompter{answers: answers}
	prevNew, prevCan := newPrompter, canPrompt
	newPrompter = func() Prompter { return fake }
	canPrompt = func() bool { return tty }
	t.Cleanup(func() { newPrompter, canPrompt = prevNew, prevCan })
	return fake
}

func TestRequireConfirmation(t *testing.T) {
	tests := []struct {
		name    string
		flag    bool
		json    bool
		tty     bool
		answer  string
		want    bool
		wantErr bool
	}{
		{name: "flag skips prompt", flag: true, want: true},
		{name: "json needs flag", json: true, tty: true, wantErr: true},
		{name: "no terminal needs flag", wantErr: true},
		{name: "yes", tty: true, answer: "YES", want: true},
		{name: "y", tty: true, answer: " y ", want: true},
		{name: "empty declines", tty: true, answer: ""},
		{name: "no", tty: true, answer: "n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := withPrompter(t, tt.tty, tt.answer)
			got, err := RequireConfirmation(tt.flag, "delete every stored run", tt.json)
			if tt.wantErr {
				assert.Equal(t, ExitUsageError, GetExitCode(err))
				assert.Empty(t, fake.prompts)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if !tt.flag {
				require.Len(t, fake.prompts, 1)
				assert.Contains(t, fake.prompts[0], "delete every stored run? [y/N]")
				assert.True(t, fake.closed)
			}
		})
	}
}

func TestPromptValue(t *testing.T) {
	fake := &fakePrompter{answers: []string{"", "  500  "}}
	v, err := PromptValue(fake, "Iterations", "1000")
	require.NoError(t, err)
	assert.Equal(t, "1000", v)

	v, err = PromptValue(fake, "Iterations", "1000")
	require.NoError(t, err)
	assert.Equal(t, "500", v)
	assert.Equal(t, "Iterations [1000]: ", fake.prompts[0])
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestHandleVersion_JSON(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, HandleVersion(Args{JSON: true}))

	var resp struct {
		Data VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, Version, resp.Data.Version)
	assert.NotEmpty(t, resp.Data.Platform)
}

func TestHandleHelp(t *testing.T) {
	out, _ := captureOutput(t)
	require.NoError(t, HandleHelp())
	assert.Contains(t, out.String(), "rigbench history compare")
	assert.Contains(t, out.String(), "Version: "+Version)
}

func TestHandleList_JSON(t *testing.T) {
	isolate(t)
	out, _ := captureOutput(t)
	require.NoError(t, HandleList(Args{JSON: true}))

	var resp struct {
		Data []WorkloadRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotEmpty(t, resp.Data)

	byID := make(map[string]WorkloadRow)
	for _, r := range resp.Data {
		byID[r.ID] = r
	}
	fib, ok := byID["fibonacci"]
	require.True(t, ok)
	assert.True(t, fib.Supported)
	assert.Empty(t, fib.Capability)
	assert.Equal(t, "avx512f", byID["vector-avx512"].Capability)
}

func TestHandleInfo_DisabledCapability(t *testing.T) {
	isolate(t)
	t.Setenv("RIGBENCH_DISABLE_CAPS", "avx2")
	out, _ := captureOutput(t)
	require.NoError(t, HandleInfo(Args{JSON: true}))

	var resp struct {
		Data InfoData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	for _, c := range resp.Data.Capabilities {
		if c.Name == "avx2" {
			assert.True(t, c.Disabled)
			assert.False(t, c.Supported)
			return
		}
	}
	t.Fatal("avx2 missing from capability rows")
}

func TestHandleRun_SingleWorkload(t *testing.T) {
	home := isolate(t)
	out, errOut := captureOutput(t)

	_, args, err := Parse([]string{"run", "--only", "fibonacci", "--suite", "single", "--iterations", "5000", "--json", "--no-tui"})
	require.NoError(t, err)
	require.NoError(t, HandleRun(context.Background(), args))
	assert.Empty(t, errOut.String(), "JSON runs print no progress")

	var resp struct {
		Success bool              `json:"success"`
		Data    *benchmark.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	require.Len(t, resp.Data.Workloads, 1)
	assert.Equal(t, "fibonacci", resp.Data.Workloads[0].ID)

	files, err := os.ReadDir(filepath.Join(home, "results"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "result saved")
}

func TestHandleRun_Errors(t *testing.T) {
	isolate(t)
	captureOutput(t)

	tests := []struct {
		name string
		argv []string
		want int
	}{
		{"positional argument", []string{"run", "extra"}, ExitUsageError},
		{"bad suite", []string{"run", "--suite", "gpu", "--no-tui"}, ExitUsageError},
		{"bad replicas", []string{"run", "--replicas", "0", "--no-tui"}, ExitUsageError},
		{"unknown workload", []string{"run", "--only", "nope", "--no-save", "--no-tui", "--json"}, ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, args, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, GetExitCode(HandleRun(context.Background(), args)))
		})
	}
}

func TestHandleRun_Canceled(t *testing.T) {
	isolate(t)
	captureOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, args, err := Parse([]string{"run", "--only", "fibonacci", "--iterations", "5000", "--no-tui", "--json"})
	require.NoError(t, err)
	assert.ErrorIs(t, HandleRun(ctx, args), ErrInterrupted)
}

func TestHandleHistory(t *testing.T) {
	isolate(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	first := testResult("11111111-aaaa", base, 100)
	second := testResult("22222222-bbbb", base.Add(time.Hour), 150)
	storeRuns(t, first, second)

	t.Run("list", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{Subcommand: "list", Raw: []string{"list"}}))
		assert.Contains(t, out.String(), "11111111")
		assert.Contains(t, out.String(), "22222222")
	})

	t.Run("list limit json", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{JSON: true, Subcommand: "list", Raw: []string{"list", "--limit", "1"}}))
		var resp struct {
			Data []history.Entry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, second.RunID, resp.Data[0].RunID)
	})

	t.Run("show by prefix", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{Format: "markdown", Subcommand: "show", Raw: []string{"show", "1111"}}))
		assert.Contains(t, out.String(), "# Benchmark 11111111")
	})

	t.Run("show missing", func(t *testing.T) {
		captureOutput(t)
		err := HandleHistory(context.Background(), Args{Subcommand: "show", Raw: []string{"show", "ffff"}})
		assert.Equal(t, ExitNotFoundError, GetExitCode(err))
	})

	t.Run("compare", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{Format: "markdown", Subcommand: "compare", Raw: []string{"compare", "1111", "2222"}}))
		assert.Contains(t, out.String(), "+50.0%")
	})

	t.Run("trend", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{Subcommand: "trend", Raw: []string{"trend", "fibonacci", "--suite", "single"}}))
		assert.Contains(t, out.String(), "Trend: fibonacci")
		assert.Contains(t, out.String(), "+50.0%")
	})

	t.Run("trend rejects several suites", func(t *testing.T) {
		captureOutput(t)
		err := HandleHistory(context.Background(), Args{Subcommand: "trend", Raw: []string{"trend", "fibonacci", "--suite", "single,multi"}})
		assert.Equal(t, ExitUsageError, GetExitCode(err))
	})

	t.Run("unknown subcommand", func(t *testing.T) {
		captureOutput(t)
		err := HandleHistory(context.Background(), Args{Subcommand: "frob", Raw: []string{"frob"}})
		assert.Equal(t, ExitUsageError, GetExitCode(err))
	})

	t.Run("clear", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleHistory(context.Background(), Args{Subcommand: "clear", Raw: []string{"clear", "--yes"}}))
		assert.Contains(t, out.String(), "removed 2 indexed run(s) and 2 result file(s)")

		out.Reset()
		require.NoError(t, HandleHistory(context.Background(), Args{Subcommand: "list", Raw: []string{"list"}}))
		assert.Contains(t, out.String(), "No stored runs")
	})
}

func TestHandleConfig(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".rigbench", "config.toml")

	t.Run("init", func(t *testing.T) {
		withPrompter(t, false)
		out, _ := captureOutput(t)
		require.NoError(t, HandleConfig(Args{Subcommand: "init", Raw: []string{"init", "--yes"}}))
		assert.FileExists(t, path)
		assert.Contains(t, out.String(), path)

		err := HandleConfig(Args{Subcommand: "init", Raw: []string{"init", "--yes"}})
		assert.Error(t, err, "existing file needs --force")
	})

	t.Run("set and get", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "workloads.iterations", "200000"}}))
		require.NoError(t, HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "workloads.sizes.fibonacci", "30"}}))

		out.Reset()
		require.NoError(t, HandleConfig(Args{Subcommand: "get", Raw: []string{"get", "workloads.iterations"}}))
		assert.Equal(t, "200000\n", out.String())

		out.Reset()
		require.NoError(t, HandleConfig(Args{Subcommand: "get", Raw: []string{"get", "workloads.sizes.fibonacci"}}))
		assert.Equal(t, "30\n", out.String())

		cfg, err := config.LoadFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, 200000, cfg.Workloads.Iterations)
		assert.Equal(t, 30, cfg.Workloads.Sizes["fibonacci"])
	})

	t.Run("set does not persist environment overrides", func(t *testing.T) {
		captureOutput(t)
		require.NoError(t, HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "output.format", "yaml"}}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), filepath.Join(home, "results"))
	})

	t.Run("set rejects invalid values", func(t *testing.T) {
		captureOutput(t)
		assert.Equal(t, ExitConfigError, GetExitCode(
			HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "output.format", "xml"}})))
		assert.Equal(t, ExitUsageError, GetExitCode(
			HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "workloads.sizes.fibonacci", "-1"}})))
		assert.Equal(t, ExitNotFoundError, GetExitCode(
			HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "workloads.sizes.nope", "3"}})))
		assert.Equal(t, ExitUsageError, GetExitCode(
			HandleConfig(Args{Subcommand: "set", Raw: []string{"set", "workloads.iterations"}})))
	})

	t.Run("get unknown key", func(t *testing.T) {
		captureOutput(t)
		err := HandleConfig(Args{Subcommand: "get", Raw: []string{"get", "nope.nothing"}})
		assert.Equal(t, ExitNotFoundError, GetExitCode(err))
	})

	t.Run("validate", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleConfig(Args{Subcommand: "validate", Raw: []string{"validate"}}))
		assert.Contains(t, out.String(), "is valid")

		bad := filepath.Join(home, "bad.toml")
		require.NoError(t, os.WriteFile(bad, []byte("[output]\nformat = \"xml\"\n"), 0644))
		out.Reset()
		err := HandleConfig(Args{JSON: true, ConfigPath: bad, Subcommand: "validate", Raw: []string{"validate"}})
		assert.Equal(t, ExitConfigError, GetExitCode(err))
		assert.Contains(t, out.String(), `"valid": false`)
	})

	t.Run("show yaml", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleConfig(Args{Format: "yaml", Subcommand: "show", Raw: []string{"show"}}))
		assert.Contains(t, out.String(), "iterations: 200000")
	})

	t.Run("keys", func(t *testing.T) {
		out, _ := captureOutput(t)
		require.NoError(t, HandleConfig(Args{Subcommand: "keys", Raw: []string{"keys"}}))
		assert.Contains(t, out.String(), "scoring.normalization_constant")
	})
}

func TestHandleConfig_InitPrompts(t *testing.T) {
	home := isolate(t)
	captureOutput(t)
	fake := withPrompter(t, true, "50000", "", "", "markdown", "", "never", "")

	require.NoError(t, HandleConfig(Args{Subcommand: "init", Raw: []string{"init"}}))
	assert.True(t, fake.closed)

	cfg, err := config.LoadFromPath(filepath.Join(home, ".rigbench", "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 50000, cfg.Workloads.Iterations)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.Equal(t, "never", cfg.Run.TUI)
	assert.Equal(t, config.Default().Workloads.MemoryPasses, cfg.Workloads.MemoryPasses)
}
