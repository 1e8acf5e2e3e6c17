// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package utilds holds small concurrency-safe data structures.
package utilds

import "sync"

// WorkQueue is an unbounded FIFO queue drained by a single worker
// goroutine. Enqueue never blocks, which is what lets the render loop and
// the event broker accept work from any goroutine without backpressure
// deadlocks. The worker starts lazily on the first Enqueue.
type WorkQueue[T any] struct {
	lock    sync.Mutex
	pending []T
	closed  bool
	started bool
	wake    chan struct{}
	wg      sync.WaitGroup
	workFn  func(T)
}

// NewWorkQueue makes a queue whose worker calls workFn for each item, in
// order, one at a time. workFn must not panic; wrap it if the items run
// arbitrary code.
func NewWorkQueue[T any](workFn func(T)) *WorkQueue[T] {
	return &WorkQueue[T]{
		wake:   make(chan struct{}, 1),
		workFn: workFn,
	}
}

// Enqueue appends an item. It reports false once the queue is closed.
func (wq *WorkQueue[T]) Enqueue(item T) bool {
	wq.lock.Lock()
	if wq.closed {
		wq.lock.Unlock()
		return false
	}
	if !wq.started {
		wq.started = true
		wq.wg.Add(1)
		go wq.worker()
	}
	wq.pending = append(wq.pending, item)
	wq.lock.Unlock()
	wq.nudge()
	return true
}

// nudge wakes a parked worker. The channel holds one token, so a nudge
// sent between the worker's empty check and its receive is never lost.
func (wq *WorkQueue[T]) nudge() {
	select {
	case wq.wake <- struct{}{}:
	default:
	}
}

func (wq *WorkQueue[T]) worker() {
	defer wq.wg.Done()
	for {
		wq.lock.Lock()
		if len(wq.pending) == 0 {
			if wq.closed {
				wq.lock.Unlock()
				return
			}
			wq.lock.Unlock()
			<-wq.wake
			continue
		}
		item := wq.pending[0]
		wq.pending = wq.pending[1:]
		wq.lock.Unlock()
		wq.workFn(item)
	}
}

// Close stops the queue. With immediate set, pending items are discarded;
// otherwise the worker drains what is queued before exiting.
func (wq *WorkQueue[T]) Close(immediate bool) {
	wq.lock.Lock()
	wq.closed = true
	if immediate {
		wq.pending = nil
	}
	wq.lock.Unlock()
	wq.nudge()
}

// Wait blocks until the worker exits. A queue that never started returns
// immediately.
func (wq *WorkQueue[T]) Wait() {
	wq.wg.Wait()
}
