// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package detect

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// RaisePriority moves the current process into HIGH_PRIORITY_CLASS.
func RaisePriority() error {
	if err := windows.SetPriorityClass(windows.CurrentProcess(), windows.HIGH_PRIORITY_CLASS); err != nil {
		return fmt.Errorf("SetPriorityClass: %w", err)
	}
	return nil
}
