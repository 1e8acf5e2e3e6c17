// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

var demoDevtools bool

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "run one of the built-in demo apps",
}

func init() {
	demoCmd.PersistentFlags().BoolVar(&demoDevtools, "devtools", false, "serve the devtools inspector while the demo runs")
	rootCmd.AddCommand(demoCmd)
}
