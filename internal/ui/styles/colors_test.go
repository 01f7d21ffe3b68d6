// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"passed", "[OK]"},
		{"failed", "[X]"},
		{"skipped", "[-]"},
		{"running", "[.]"},
		{"pending", "[ ]"},
		{"", "[ ]"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, _ := Status(tt.status)
			if got != tt.want {
				t.Errorf("Status(%q) = %q, want %q", tt.status, got, tt.want)
			}
			if !strings.Contains(RenderStatus(tt.status), tt.want) {
				t.Errorf("RenderStatus(%q) should contain %q", tt.status, tt.want)
			}
		})
	}
}

func TestStatusColorsDistinct(t *testing.T) {
	_, passed := Status("passed")
	_, failed := Status("failed")
	if passed == failed {
		t.Error("passed and failed should not share a color")
	}
}

func TestStatusIndicatorsASCII(t *testing.T) {
	for _, s := range []string{
		StatusIndicators.Passed,
		StatusIndicators.Failed,
		StatusIndicators.Skipped,
		StatusIndicators.Running,
		StatusIndicators.Pending,
	} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q is not ASCII", s)
			}
		}
	}
}
