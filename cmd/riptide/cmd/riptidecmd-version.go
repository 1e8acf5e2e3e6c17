// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/rtbase"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version [-v]",
	Short: "Print the version number of riptide",
	RunE:  runVersionCmd,
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Display full version information")
	rootCmd.AddCommand(versionCmd)
}

func runVersionCmd(cmd *cobra.Command, args []string) error {
	if !versionVerbose {
		writeStdout("riptide v%s\n", rtbase.RiptideVersion)
		return nil
	}
	writeStdout("v%s (%s)\n", rtbase.RiptideVersion, rtbase.BuildTime)
	writeStdout("configdir: %s\n", rtbase.GetRiptideConfigDir())
	writeStdout("datadir:   %s\n", rtbase.GetRiptideDataDir())
	return nil
}
