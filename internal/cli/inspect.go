// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// inspect.go - The list and info commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/detect"
	"github.com/jeranaias/rigbench/internal/ui/components"
	"github.com/jeranaias/rigbench/internal/workloads"
)

// hostTopology detects the host and applies configured overrides.
func hostTopology(cfg *config.Config, logger *zap.Logger) detect.Topology {
	t, err := detect.DetectTopologyCached()
	if err != nil {
		logger.Warn("topology detection incomplete", zap.Error(err))
	}
	return cfg.ApplyTopology(t)
}

// =============================================================================
// LIST
// =============================================================================

// workloadRows builds the catalog listing for the host.
func workloadRows(catalog *benchmark.Catalog, probe detect.Probe) []WorkloadRow {
	rows := make([]WorkloadRow, 0, catalog.Len())
	for _, d := range catalog.All() {
		row := WorkloadRow{
			ID:        d.ID,
			Name:      d.DisplayName(),
			Category:  string(d.Category),
			Suites:    strings.Split(d.Suites.String(), ","),
			WorkSize:  d.WorkSize,
			Supported: !d.Gated() || probe.IsSupported(d.Capability),
		}
		if d.Gated() {
			row.Capability = d.Capability.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// HandleList handles the "list" command.
func HandleList(args Args) error {
	cfg, logger, err := setup(args)
	if err != nil {
		return err
	}
	probe, err := cfg.Probe()
	if err != nil {
		return &ConfigError{Err: err}
	}
	catalog, err := workloads.NewCatalog(cfg.WorkloadOptions(hostTopology(cfg, logger)))
	if err != nil {
		return &ConfigError{Err: err}
	}
	rows := workloadRows(catalog, probe)

	if args.JSON {
		return NewJSONResponse("list", rows).Write(stdout)
	}

	fmt.Fprintln(stdout, TitleStyle.Render(fmt.Sprintf("Workloads (%d)", len(rows))))
	header := fmt.Sprintf("%-24s %-22s %-32s %12s  %s", "ID", "Category", "Suites", "Work Size", "Requires")
	fmt.Fprintln(stdout, DimStyle.Render(header))
	fmt.Fprintln(stdout, RenderSeparator(len(header)+6))
	for _, r := range rows {
		requires := ""
		if r.Capability != "" {
			requires = r.Capability + " " + RenderSupported(r.Supported)
		}
		fmt.Fprintf(stdout, "%-24s %-22s %-32s %12s  %s\n",
			r.ID, r.Category, strings.Join(r.Suites, ","), components.FormatScore(float64(r.WorkSize)), requires)
	}
	return nil
}

// =============================================================================
// INFO
// =============================================================================

// capabilityRows probes every known capability.
func capabilityRows(cfg *config.Config, probe detect.Probe) []CapabilityRow {
	disabled := make(map[detect.Capability]bool)
	if caps, err := cfg.DisabledCapabilities(); err == nil {
		for _, c := range caps {
			disabled[c] = true
		}
	}
	rows := make([]CapabilityRow, 0, len(detect.AllCapabilities))
	for _, c := range detect.AllCapabilities {
		rows = append(rows, CapabilityRow{
			Name:      c.String(),
			Vector:    c.IsVector(),
			Supported: probe.IsSupported(c),
			Disabled:  disabled[c],
		})
	}
	return rows
}

// HandleInfo handles the "info" command.
func HandleInfo(args Args) error {
	cfg, logger, err := setup(args)
	if err != nil {
		return err
	}
	probe, err := cfg.Probe()
	if err != nil {
		return &ConfigError{Err: err}
	}
	topology := hostTopology(cfg, logger)
	caps := capabilityRows(cfg, probe)

	if args.JSON {
		return NewJSONResponse("info", InfoData{Topology: topology, Capabilities: caps}).Write(stdout)
	}

	var supported []string
	for _, c := range caps {
		if c.Supported {
			supported = append(supported, c.Name)
		}
	}
	view := components.NewBenchmarkView(GetTerminalWidth())
	fmt.Fprintln(stdout, TitleStyle.Render("Host"))
	fmt.Fprintln(stdout, view.RenderHost(topology, supported))

	fmt.Fprintln(stdout, SectionStyle.Render("Extensions"))
	for _, c := range caps {
		note := ""
		if c.Disabled {
			note = DimStyle.Render(" (disabled by configuration)")
		}
		fmt.Fprintf(stdout, "%s%s%s\n", RenderLabel(c.Name, 12), RenderSupported(c.Supported), note)
	}

	fmt.Fprintln(stdout, SectionStyle.Render("Memory Buffers"))
	ram := topology.L3Bytes * int64(cfg.Topology.RAMMultiplier)
	for _, b := range []struct {
		name  string
		bytes int64
	}{
		{"L1", topology.L1DataBytes},
		{"L2", topology.L2Bytes},
		{"L3", topology.L3Bytes},
		{"RAM", ram},
	} {
		fmt.Fprintf(stdout, "%s%s\n", RenderLabel(b.name, 12), humanize.IBytes(uint64(max(b.bytes, 0))))
	}
	return nil
}
