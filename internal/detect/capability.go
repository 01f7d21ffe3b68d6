// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// =============================================================================
// CAPABILITY DEFINITIONS
// =============================================================================

// Capability names an optional instruction-set feature a workload may need.
type Capability string

const (
	// CapabilityNone marks a workload that needs no optional feature.
	CapabilityNone Capability = ""
	// CapabilitySSE42 is SSE 4.2.
	CapabilitySSE42 Capability = "sse4.2"
	// CapabilityAVX is the 256-bit AVX float extension.
	CapabilityAVX Capability = "avx"
	// CapabilityAVX2 is AVX2 (256-bit integer vectors).
	CapabilityAVX2 Capability = "avx2"
	// CapabilityFMA3 is fused multiply-add.
	CapabilityFMA3 Capability = "fma3"
	// CapabilityAVX512F is the AVX-512 foundation.
	CapabilityAVX512F Capability = "avx512f"
	// CapabilitySHA is the SHA extension.
	CapabilitySHA Capability = "sha"
	// CapabilityAES is AES-NI.
	CapabilityAES Capability = "aes"
)

// AllCapabilities lists every capability the probe understands.
var AllCapabilities = []Capability{
	CapabilitySSE42,
	CapabilityAVX,
	CapabilityAVX2,
	CapabilityFMA3,
	CapabilityAVX512F,
	CapabilitySHA,
	CapabilityAES,
}

// String returns the capability name, or "none".
func (c Capability) String() string {
	if c == CapabilityNone {
		return "none"
	}
	return string(c)
}

// IsVector reports whether c belongs to the AVX family of wide-vector extensions.
func (c Capability) IsVector() bool {
	switch c {
	case CapabilityAVX, CapabilityAVX2, CapabilityAVX512F, CapabilityFMA3:
		return true
	}
	return false
}

// ParseCapability converts a name such as "AVX2" or "avx-512f" to a Capability.
func ParseCapability(s string) (Capability, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "")
	norm = strings.ReplaceAll(norm, "_", "")
	switch norm {
	case "", "none":
		return CapabilityNone, nil
	case "sse4.2", "sse42":
		return CapabilitySSE42, nil
	case "avx":
		return CapabilityAVX, nil
	case "avx2":
		return CapabilityAVX2, nil
	case "fma", "fma3":
		return CapabilityFMA3, nil
	case "avx512", "avx512f":
		return CapabilityAVX512F, nil
	case "sha", "shani":
		return CapabilitySHA, nil
	case "aes", "aesni":
		return CapabilityAES, nil
	}
	return CapabilityNone, fmt.Errorf("unknown capability %q", s)
}

// ErrDetectionUnavailable is returned by a Detector that cannot query the CPU.
var ErrDetectionUnavailable = errors.New("feature detection unavailable")

// =============================================================================
// PROBE
// =============================================================================

// Probe answers whether an optional capability is present.
type Probe interface {
	IsSupported(c Capability) bool
}

// Detector performs the raw, uncached feature query behind a CPUProbe.
type Detector func(c Capability) (bool, error)

// CPUProbe is a Probe backed by cpuid. Each capability is detected at most
// once and the answer is kept for the lifetime of the probe.
type CPUProbe struct {
	detector Detector
	disabled map[Capability]bool

	mu    sync.Mutex
	cache map[Capability]bool
}

// ProbeOption configures a CPUProbe.
type ProbeOption func(*CPUProbe)

// WithDetector replaces the cpuid-based detector.
func WithDetector(d Detector) ProbeOption {
	return func(p *CPUProbe) {
		if d != nil {
			p.detector = d
		}
	}
}

// WithDisabled forces the given capabilities to report unsupported.
func WithDisabled(caps ...Capability) ProbeOption {
	return func(p *CPUProbe) {
		for _, c := range caps {
			if c != CapabilityNone {
				p.disabled[c] = true
			}
		}
	}
}

// NewCPUProbe creates a probe with an empty cache.
func NewCPUProbe(opts ...ProbeOption) *CPUProbe {
	p := &CPUProbe{
		detector: CPUIDDetector,
		disabled: make(map[Capability]bool),
		cache:    make(map[Capability]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsSupported reports whether c is available. It never panics: a detector
// error or panic is cached as unsupported.
func (p *CPUProbe) IsSupported(c Capability) bool {
	if c == CapabilityNone {
		return true
	}
	if p.disabled[c] {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ok, found := p.cache[c]; found {
		return ok
	}
	ok := p.detect(c)
	p.cache[c] = ok
	return ok
}

func (p *CPUProbe) detect(c Capability) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	supported, err := p.detector(c)
	if err != nil {
		return false
	}
	return supported
}

// Supported returns every known capability the probe reports as present, sorted.
func (p *CPUProbe) Supported() []Capability {
	var out []Capability
	for _, c := range AllCapabilities {
		if p.IsSupported(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	defaultProbe     *CPUProbe
	defaultProbeOnce sync.Once
)

// DefaultProbe returns the process-wide cpuid probe.
func DefaultProbe() *CPUProbe {
	defaultProbeOnce.Do(func() {
		defaultProbe = NewCPUProbe()
	})
	return defaultProbe
}

// =============================================================================
// CPUID DETECTOR
// =============================================================================

var cpuidFeatures = map[Capability]cpuid.FeatureID{
	CapabilitySSE42:   cpuid.SSE42,
	CapabilityAVX:     cpuid.AVX,
	CapabilityAVX2:    cpuid.AVX2,
	CapabilityFMA3:    cpuid.FMA3,
	CapabilityAVX512F: cpuid.AVX512F,
	CapabilitySHA:     cpuid.SHA,
	CapabilityAES:     cpuid.AESNI,
}

// CPUIDDetector queries the processor through cpuid. Every capability here is
// an x86 extension, so other architectures report ErrDetectionUnavailable.
func CPUIDDetector(c Capability) (bool, error) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "386" {
		return false, ErrDetectionUnavailable
	}
	id, ok := cpuidFeatures[c]
	if !ok {
		return false, fmt.Errorf("no cpuid mapping for %s", c)
	}
	if cpuid.CPU.VendorID == cpuid.VendorUnknown && cpuid.CPU.BrandName == "" {
		return false, ErrDetectionUnavailable
	}
	return cpuid.CPU.Supports(id), nil
}
