// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Generated Code. DO NOT EDIT.

package rtconfig

const (
	ConfigKey_AppClear   = "app:*"
	ConfigKey_AppQuitKey = "app:quitkey"

	ConfigKey_RenderClear         = "render:*"
	ConfigKey_RenderMinDebounceMs = "render:mindebouncems"
	ConfigKey_RenderMaxDebounceMs = "render:maxdebouncems"

	ConfigKey_DevtoolsClear = "devtools:*"
	ConfigKey_DevtoolsHost  = "devtools:host"
	ConfigKey_DevtoolsPort  = "devtools:port"
	ConfigKey_DevtoolsOpen  = "devtools:open"

	ConfigKey_LayoutClear        = "layout:*"
	ConfigKey_LayoutAutosave     = "layout:autosave"
	ConfigKey_LayoutAutosaveName = "layout:autosavename"
	ConfigKey_LayoutS3Profile    = "layout:s3profile"
	ConfigKey_LayoutS3Bucket     = "layout:s3bucket"
)
