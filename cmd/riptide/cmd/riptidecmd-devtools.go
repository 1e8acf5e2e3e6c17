// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/app"
)

var devtoolsOpen bool

var devtoolsCmd = &cobra.Command{
	Use:   "devtools",
	Short: "run the dashboard demo with the devtools web server enabled",
	RunE:  runDevtoolsCmd,
}

func init() {
	devtoolsCmd.Flags().BoolVar(&devtoolsOpen, "open", false, "open the devtools page in a browser")
	rootCmd.AddCommand(devtoolsCmd)
}

func runDevtoolsCmd(cmd *cobra.Command, args []string) error {
	return runApp(app.AppOpts{Devtools: true, OpenDevtools: devtoolsOpen}, dashboardSetup)
}
