// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build unix

package detect

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// benchPriority is the nice value requested for a run. Unprivileged users
// usually cannot go below zero, so EACCES is expected and reported.
const benchPriority = -10

// RaisePriority lowers the nice value of the current process.
func RaisePriority() error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, benchPriority); err != nil {
		return fmt.Errorf("setpriority(%d): %w", benchPriority, err)
	}
	return nil
}
