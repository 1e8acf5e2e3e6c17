// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cmdpaneCmd = &cobra.Command{
	Use:   "cmdpane [command] [args...]",
	Short: "stream a command's output into a live pane",
	RunE:  runCmdpaneCmd,
}

func init() {
	demoCmd.AddCommand(cmdpaneCmd)
}

func runCmdpaneCmd(cmd *cobra.Command, args []string) error {
	return fmt.Errorf("cmdpane requires a pty and is not supported on windows")
}
