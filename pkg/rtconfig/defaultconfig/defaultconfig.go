// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package defaultconfig embeds the stock settings shipped with riptide.
// rtconfig reads these first, then overlays the user's settings files.
package defaultconfig

import "embed"

//go:embed *.json
var ConfigFS embed.FS
