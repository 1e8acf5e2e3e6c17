// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package app

import (
	"context"
	"os"
	"time"

	"golang.org/x/term"
)

const winResizePollInterval = 500 * time.Millisecond

// watchResize polls the console size; Windows has no SIGWINCH.
func (app *App) watchResize(ctx context.Context) error {
	ticker := time.NewTicker(winResizePollInterval)
	defer ticker.Stop()
	lastWidth, lastHeight := app.screen.Size()
	for {
		select {
		case <-ticker.C:
			width, height, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				continue
			}
			if width == lastWidth && height == lastHeight {
				continue
			}
			lastWidth, lastHeight = width, height
			app.post(func() {
				app.screen.Resize(width, height)
			})
		case <-ctx.Done():
			return nil
		}
	}
}
