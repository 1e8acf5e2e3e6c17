// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package panichandler converts recovered panics into logged errors at the
// boundaries where user code runs (event handlers, pass callbacks, loop
// items). The stack goes through the log package rather than straight to
// stderr; a full-screen app owns the terminal and logs to a file.
package panichandler

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync/atomic"
)

var panicCount atomic.Int64

// PanicCount reports how many panics this process has recovered. The
// devtools status endpoint surfaces it.
func PanicCount() int64 {
	return panicCount.Load()
}

// PanicHandler logs a recovered panic with its stack and wraps it in an
// error. Call it deferred with the recover() value; a nil recoverVal is a
// normal return and costs nothing.
func PanicHandler(debugStr string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	panicCount.Add(1)
	log.Printf("[panic] in %s: %v\n%s", debugStr, recoverVal, debug.Stack())
	if err, ok := recoverVal.(error); ok {
		return fmt.Errorf("panic in %s: %w", debugStr, err)
	}
	return fmt.Errorf("panic in %s: %v", debugStr, recoverVal)
}
