// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the shared palette for rigbench's terminal views.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. Workload states always pair a color with an ASCII indicator:

	[OK] passed   - Emerald
	[X]  failed   - Rose
	[-]  skipped  - TextMuted
	[.]  running  - Amber
	[ ]  pending  - TextMuted
*/
package styles
