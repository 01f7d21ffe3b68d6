// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix && !windows

package detect

import "errors"

// RaisePriority is not supported on this platform.
func RaisePriority() error {
	return errors.New("process priority not supported on this platform")
}
