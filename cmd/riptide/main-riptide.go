// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log"

	"github.com/wavetermdev/riptide/cmd/riptide/cmd"
	"github.com/wavetermdev/riptide/pkg/rtbase"
)

// these are set at build time
var RiptideVersion = "0.0.0"
var BuildTime = "0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("[riptide] ")
	rtbase.RiptideVersion = RiptideVersion
	rtbase.BuildTime = BuildTime
	cmd.Execute()
}
