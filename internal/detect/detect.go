// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// =============================================================================
// TOPOLOGY DEFAULTS
// =============================================================================

const (
	// DefaultL1DataBytes is used when the L1 data cache size is unknown.
	DefaultL1DataBytes int64 = 32 * 1024
	// DefaultL2Bytes is used when the L2 cache size is unknown.
	DefaultL2Bytes int64 = 256 * 1024
	// DefaultL3Bytes is used when the L3 cache size is unknown.
	DefaultL3Bytes int64 = 16 * 1024 * 1024
)

// ErrTopologyUnavailable reports that one or more topology facts could not be
// read. It is never fatal; the returned Topology carries fallbacks.
var ErrTopologyUnavailable = errors.New("topology unavailable")

// sysfsCacheRoot is where Linux exposes per-level cache descriptions.
var sysfsCacheRoot = "/sys/devices/system/cpu/cpu0/cache"

// =============================================================================
// TOPOLOGY
// =============================================================================

// Topology describes the host processor as seen by the benchmark.
type Topology struct {
	CPUName       string   `json:"cpu_name" yaml:"cpu_name"`
	Vendor        string   `json:"vendor" yaml:"vendor"`
	OS            string   `json:"os" yaml:"os"`
	Arch          string   `json:"arch" yaml:"arch"`
	LogicalCPUs   int      `json:"logical_cpus" yaml:"logical_cpus"`
	PhysicalCores int      `json:"physical_cores" yaml:"physical_cores"`
	L1DataBytes   int64    `json:"l1d_bytes" yaml:"l1d_bytes"`
	L2Bytes       int64    `json:"l2_bytes" yaml:"l2_bytes"`
	L3Bytes       int64    `json:"l3_bytes" yaml:"l3_bytes"`
	Warnings      []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// String returns a one-line summary.
func (t Topology) String() string {
	name := t.CPUName
	if name == "" {
		name = "Unknown CPU"
	}
	return fmt.Sprintf("%s (%d cores / %d threads)", name, t.PhysicalCores, t.LogicalCPUs)
}

// WithFallbacks fills unknown facts. A zero l2 or l3 selects the package
// defaults.
func (t Topology) WithFallbacks(l2, l3 int64) Topology {
	if l2 <= 0 {
		l2 = DefaultL2Bytes
	}
	if l3 <= 0 {
		l3 = DefaultL3Bytes
	}
	if t.LogicalCPUs < 1 {
		t.LogicalCPUs = 1
	}
	if t.PhysicalCores < 1 {
		t.PhysicalCores = t.LogicalCPUs
	}
	if t.L1DataBytes <= 0 {
		t.L1DataBytes = DefaultL1DataBytes
	}
	if t.L2Bytes <= 0 {
		t.L2Bytes = l2
	}
	if t.L3Bytes <= 0 {
		t.L3Bytes = l3
	}
	return t
}

var (
	topologyCache   *Topology
	topologyErr     error
	topologyCacheMu sync.Mutex
)

// DetectTopology reads the host topology. When some facts are missing it
// returns the partial Topology together with an error wrapping
// ErrTopologyUnavailable; callers should apply WithFallbacks and continue.
func DetectTopology() (Topology, error) {
	t := Topology{
		CPUName:       strings.TrimSpace(cpuid.CPU.BrandName),
		Vendor:        cpuid.CPU.VendorString,
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		LogicalCPUs:   runtime.NumCPU(),
		PhysicalCores: cpuid.CPU.PhysicalCores,
		L1DataBytes:   int64(cpuid.CPU.Cache.L1D),
		L2Bytes:       int64(cpuid.CPU.Cache.L2),
		L3Bytes:       int64(cpuid.CPU.Cache.L3),
	}

	if runtime.GOOS == "linux" {
		fillFromSysfs(&t, sysfsCacheRoot)
		if t.CPUName == "" {
			t.CPUName = cpuNameFromProc()
		}
	}

	var missing []string
	if t.L2Bytes <= 0 {
		missing = append(missing, "L2 cache size")
	}
	if t.L3Bytes <= 0 {
		missing = append(missing, "L3 cache size")
	}
	if t.LogicalCPUs < 1 {
		missing = append(missing, "logical processor count")
	}
	if len(missing) == 0 {
		return t, nil
	}
	for _, m := range missing {
		t.Warnings = append(t.Warnings, m+" unknown, using fallback")
	}
	return t, fmt.Errorf("%w: %s", ErrTopologyUnavailable, strings.Join(missing, ", "))
}

// DetectTopologyCached runs DetectTopology once per process.
func DetectTopologyCached() (Topology, error) {
	topologyCacheMu.Lock()
	defer topologyCacheMu.Unlock()

	if topologyCache != nil {
		return *topologyCache, topologyErr
	}
	t, err := DetectTopology()
	topologyCache = &t
	topologyErr = err
	return t, err
}

// ClearTopologyCache forces fresh detection on the next cached call.
func ClearTopologyCache() {
	topologyCacheMu.Lock()
	defer topologyCacheMu.Unlock()
	topologyCache = nil
	topologyErr = nil
}

// =============================================================================
// LINUX SOURCES
// =============================================================================

// fillFromSysfs fills cache sizes cpuid could not report from
// <root>/index*/{level,type,size}.
func fillFromSysfs(t *Topology, root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "index") {
			continue
		}
		dir := filepath.Join(root, e.Name())
		level := readTrimmed(filepath.Join(dir, "level"))
		kind := readTrimmed(filepath.Join(dir, "type"))
		size, ok := ParseCacheSize(readTrimmed(filepath.Join(dir, "size")))
		if !ok {
			continue
		}
		switch {
		case level == "1" && kind == "Data" && t.L1DataBytes <= 0:
			t.L1DataBytes = size
		case level == "2" && t.L2Bytes <= 0:
			t.L2Bytes = size
		case level == "3" && t.L3Bytes <= 0:
			t.L3Bytes = size
		}
	}
}

// cpuNameFromProc returns the first "model name" in /proc/cpuinfo.
func cpuNameFromProc() string {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") {
			if _, v, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// ParseCacheSize parses sysfs sizes such as "32K", "1024K" or "16M".
func ParseCacheSize(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, false
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1024, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1024*1024, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		mult, s = 1024*1024*1024, strings.TrimSuffix(s, "G")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n * mult, true
}
