// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/riptide/pkg/app"
	"github.com/wavetermdev/riptide/pkg/rtbase"
)

var (
	rootCmd = &cobra.Command{
		Use:          "riptide",
		Short:        "declarative terminal UIs with a reconciling renderer",
		Long:         `riptide renders element trees onto live terminal widgets and keeps them in sync across renders, the way a browser framework reconciles the DOM`,
		SilenceUsage: true,
	}
)

func Execute() {
	defer func() {
		r := recover()
		if r != nil {
			fmt.Fprintf(os.Stderr, "[panic] %v\n", r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func ensureRiptideDirs() error {
	if err := rtbase.EnsureRiptideDataDir(); err != nil {
		return fmt.Errorf("error ensuring riptide data dir: %w", err)
	}
	if err := rtbase.EnsureRiptideConfigDir(); err != nil {
		return fmt.Errorf("error ensuring riptide config dir: %w", err)
	}
	if err := rtbase.EnsureRiptideDBDir(); err != nil {
		return fmt.Errorf("error ensuring riptide db dir: %w", err)
	}
	return nil
}

// runApp is the shared bootstrap for the full-screen commands: dirs, dotenv,
// the instance lock, a log file (stderr would paint over the alternate
// screen), then the app loop until shutdown.
func runApp(opts app.AppOpts, setup func(a *app.App) (cleanupFn func(), err error)) error {
	if err := ensureRiptideDirs(); err != nil {
		return err
	}
	if err := rtbase.LoadDotEnv(); err != nil {
		log.Printf("error loading dotenv file: %v\n", err)
	}
	logFile, err := rtbase.SetupLogFile("riptide.log")
	if err != nil {
		return fmt.Errorf("error setting up log file: %w", err)
	}
	defer logFile.Close()
	riptideLock, err := rtbase.AcquireRiptideLock()
	if err != nil {
		return fmt.Errorf("error acquiring riptide lock (another instance of riptide is likely running): %w", err)
	}
	defer riptideLock.Close()
	log.Printf("riptide version: %s (%s)\n", rtbase.RiptideVersion, rtbase.BuildTime)
	log.Printf("riptide data dir: %s\n", rtbase.GetRiptideDataDir())
	a, err := app.MakeApp(opts)
	if err != nil {
		return err
	}
	cleanupFn, err := setup(a)
	if err != nil {
		a.Screen().Close()
		return err
	}
	if cleanupFn != nil {
		defer cleanupFn()
	}
	err = a.Run(context.Background())
	runtime.KeepAlive(riptideLock)
	return err
}

func writeStderr(fmtStr string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, fmtStr, args...)
}

func writeStdout(fmtStr string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, fmtStr, args...)
}

// discardLogs sends the std logger nowhere for plain CLI commands that
// should print only their own output.
func discardLogs() {
	log.SetOutput(io.Discard)
}
