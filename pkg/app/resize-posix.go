// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// watchResize re-reads the terminal size on SIGWINCH and posts the resize
// onto the loop; a resize forces a full repaint.
func (app *App) watchResize(ctx context.Context) error {
	winchCh := make(chan os.Signal, 1)
	signal.Notify(winchCh, syscall.SIGWINCH)
	defer signal.Stop(winchCh)
	for {
		select {
		case <-winchCh:
			width, height, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				log.Printf("[app] error reading terminal size: %v\n", err)
				continue
			}
			app.post(func() {
				app.screen.Resize(width, height)
			})
		case <-ctx.Done():
			return nil
		}
	}
}
