// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
	"testing"

	"github.com/wavetermdev/riptide/pkg/twidget"
)

// passTestLib is the minimal WidgetLib for coordinator tests; only the
// redraw request matters here.
type passTestLib struct {
	redraws int
}

func (l *passTestLib) CreateWidget(kind string, opts twidget.Options) (twidget.Widget, error) {
	return nil, nil
}
func (l *passTestLib) Attach(parent twidget.Widget, child twidget.Widget)         {}
func (l *passTestLib) Detach(parent twidget.Widget, child twidget.Widget)         {}
func (l *passTestLib) ApplyOptions(w twidget.Widget, opts twidget.Options) error  { return nil }
func (l *passTestLib) OnAnyEvent(w twidget.Widget, fn twidget.Dispatcher)         {}
func (l *passTestLib) OffAllEvents(w twidget.Widget)                              {}
func (l *passTestLib) RequestDebouncedRedraw()                                    { l.redraws++ }

func TestPassCallbacksFIFO(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	var order []string
	pass.EnqueueCallback(func() { order = append(order, "a") })
	pass.EnqueueCallback(func() { order = append(order, "b") })
	pass.EnqueueCallback(func() { order = append(order, "c") })
	if len(order) != 0 {
		t.Fatalf("callbacks ran before commit")
	}
	pass.Commit()
	if strings.Join(order, " ") != "a b c" {
		t.Fatalf("bad callback order: %v", order)
	}
}

func TestPassSingleRedraw(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	for i := 0; i < 5; i++ {
		pass.RequestRedraw()
	}
	pass.Commit()
	if lib.redraws != 1 {
		t.Fatalf("expected 1 redraw, got %d", lib.redraws)
	}
}

func TestPassNoRedrawWithoutFlag(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	pass.EnqueueCallback(func() {})
	pass.Commit()
	if lib.redraws != 0 {
		t.Fatalf("unflagged pass requested a redraw")
	}
}

func TestPassCommitIdempotent(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	ran := 0
	pass.EnqueueCallback(func() { ran++ })
	pass.RequestRedraw()
	pass.Commit()
	pass.Commit()
	if ran != 1 || lib.redraws != 1 {
		t.Fatalf("double commit reran work: callbacks=%d redraws=%d", ran, lib.redraws)
	}
}

func TestPassCallbackPanicIsolated(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	ran := false
	pass.EnqueueCallback(func() { panic("callback boom") })
	pass.EnqueueCallback(func() { ran = true })
	pass.RequestRedraw()
	pass.Commit()
	if !ran {
		t.Fatalf("panicking callback aborted the queue")
	}
	if lib.redraws != 1 {
		t.Fatalf("panicking callback suppressed the redraw")
	}
}

func TestPassNestedEnqueueDrainsSameCommit(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	var order []string
	pass.EnqueueCallback(func() {
		order = append(order, "outer")
		pass.EnqueueCallback(func() { order = append(order, "inner") })
	})
	pass.Commit()
	if strings.Join(order, " ") != "outer inner" {
		t.Fatalf("nested enqueue not drained: %v", order)
	}
}

func TestPassLateEnqueueRunsImmediately(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	pass := coord.BeginPass()
	pass.Commit()
	ran := false
	pass.EnqueueCallback(func() { ran = true })
	if !ran {
		t.Fatalf("late enqueue did not run")
	}
}

type captureNotifier struct {
	summaries []PassSummary
}

func (n *captureNotifier) PassCommitted(summary PassSummary) {
	n.summaries = append(n.summaries, summary)
}

func TestPassNotifierSummary(t *testing.T) {
	lib := &passTestLib{}
	coord := MakeCoordinator(lib)
	notifier := &captureNotifier{}
	coord.SetNotifier(notifier)
	pass := coord.BeginPass()
	pass.countMount()
	pass.countMount()
	pass.countUpdate()
	pass.countUnmount()
	pass.RequestRedraw()
	pass.Commit()
	if len(notifier.summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(notifier.summaries))
	}
	summary := notifier.summaries[0]
	if summary.Mounted != 2 || summary.Updated != 1 || summary.Unmounted != 1 || !summary.Redraw {
		t.Fatalf("bad summary: %#v", summary)
	}
}
