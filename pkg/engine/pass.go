// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"github.com/wavetermdev/riptide/pkg/panichandler"
)

// Coordinator batches the side effects of one reconciliation pass: the
// post-mutation callbacks queued along the way and the single debounced
// redraw request that follows.
type Coordinator struct {
	lib      WidgetLib
	notifier Notifier
}

// Notifier receives a summary after each committed pass. The app layer
// adapts this onto the pubsub broker; nil means no one is listening.
type Notifier interface {
	PassCommitted(summary PassSummary)
}

// PassSummary describes what one pass did, in wire form for devtools.
type PassSummary struct {
	Mounted   int  `json:"mounted"`
	Updated   int  `json:"updated"`
	Unmounted int  `json:"unmounted"`
	Redraw    bool `json:"redraw"`
	Aborted   bool `json:"aborted,omitempty"`
}

func MakeCoordinator(lib WidgetLib) *Coordinator {
	return &Coordinator{lib: lib}
}

func (c *Coordinator) SetNotifier(notifier Notifier) {
	c.notifier = notifier
}

func (c *Coordinator) BeginPass() *Pass {
	return &Pass{coord: c}
}

// Pass collects work during one mount/update/unmount pass. Callbacks drain
// FIFO at commit (so children queued before parents fire first), then one
// debounced redraw request goes to the widget library if anything in the
// pass flagged a redraw. Commit is idempotent; the reconciler defers it on
// every pass so an aborted pass still drains its queue and honors the flag.
type Pass struct {
	coord     *Coordinator
	callbacks []func()
	redraw    bool
	committed bool
	aborted   bool
	mounted   int
	updated   int
	unmounted int
}

// EnqueueCallback queues fn to run at commit. Enqueues that arrive after
// the pass committed run immediately (still panic-isolated).
func (p *Pass) EnqueueCallback(fn func()) {
	if p.committed {
		runPassCallback(fn)
		return
	}
	p.callbacks = append(p.callbacks, fn)
}

// RequestRedraw flags the pass; the flag is consumed exactly once at
// commit no matter how many mutations set it.
func (p *Pass) RequestRedraw() {
	p.redraw = true
}

// MarkAborted tags the summary of a pass that errored partway. Its queued
// callbacks and redraw flag are still processed at commit.
func (p *Pass) MarkAborted() {
	p.aborted = true
}

func (p *Pass) Commit() {
	if p.committed {
		return
	}
	p.committed = true
	for len(p.callbacks) > 0 {
		callbacks := p.callbacks
		p.callbacks = nil
		for _, fn := range callbacks {
			runPassCallback(fn)
		}
	}
	if p.redraw {
		p.coord.lib.RequestDebouncedRedraw()
	}
	if p.coord.notifier != nil {
		p.coord.notifier.PassCommitted(PassSummary{
			Mounted:   p.mounted,
			Updated:   p.updated,
			Unmounted: p.unmounted,
			Redraw:    p.redraw,
			Aborted:   p.aborted,
		})
	}
}

func (p *Pass) countMount()   { p.mounted++ }
func (p *Pass) countUpdate()  { p.updated++ }
func (p *Pass) countUnmount() { p.unmounted++ }

// a panicking callback is logged and skipped; the rest of the queue and
// the redraw still happen
func runPassCallback(fn func()) {
	defer func() {
		panichandler.PanicHandler("engine:pass-callback", recover())
	}()
	fn()
}
