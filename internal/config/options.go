// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/workloads"
)

// DisabledCapabilities parses Capabilities.Disable. Every bad name is reported.
func (c *Config) DisabledCapabilities() ([]detect.Capability, error) {
	var (
		caps []detect.Capability
		errs error
	)
	for _, name := range c.Capabilities.Disable {
		capability, err := detect.ParseCapability(name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		caps = append(caps, capability)
	}
	return caps, errs
}

// Probe builds a capability probe honoring Capabilities.Disable.
func (c *Config) Probe() (*detect.CPUProbe, error) {
	caps, err := c.DisabledCapabilities()
	if err != nil {
		return nil, err
	}
	return detect.NewCPUProbe(detect.WithDisabled(caps...)), nil
}

// ApplyTopology overlays the [topology] overrides on a detected topology and
// fills whatever is still unknown from the configured fallbacks.
func (c *Config) ApplyTopology(t detect.Topology) detect.Topology {
	if c.Topology.LogicalCPUs > 0 {
		t.LogicalCPUs = c.Topology.LogicalCPUs
	}
	if c.Topology.L2Bytes > 0 {
		t.L2Bytes = c.Topology.L2Bytes
	}
	if c.Topology.L3Bytes > 0 {
		t.L3Bytes = c.Topology.L3Bytes
	}
	return t.WithFallbacks(c.Topology.FallbackL2Bytes, c.Topology.FallbackL3Bytes)
}

// WorkloadOptions converts the [workloads] section into catalog options.
func (c *Config) WorkloadOptions(t detect.Topology) workloads.Options {
	opts := workloads.DefaultOptions(c.ApplyTopology(t))
	if c.Workloads.Iterations > 0 {
		opts.Iterations = c.Workloads.Iterations
	}
	if c.Workloads.MemoryPasses > 0 {
		opts.MemoryPasses = c.Workloads.MemoryPasses
	}
	if c.Topology.RAMMultiplier > 0 {
		opts.RAMMultiplier = c.Topology.RAMMultiplier
	}
	if len(c.Workloads.Sizes) > 0 {
		opts.Sizes = make(map[string]int, len(c.Workloads.Sizes))
		for id, n := range c.Workloads.Sizes {
			opts.Sizes[id] = n
		}
	}
	opts.Disabled = append([]string(nil), c.Workloads.Disabled...)
	opts.Include = append([]string(nil), c.Workloads.Include...)
	return opts
}

// Normalizer builds the score normalizer from the [scoring] section.
func (c *Config) Normalizer() (*benchmark.Normalizer, error) {
	resolution, err := c.MinElapsedDuration()
	if err != nil {
		return nil, fmt.Errorf("scoring.min_elapsed: %w", err)
	}
	return benchmark.NewNormalizer(c.Scoring.NormalizationConstant, resolution), nil
}
