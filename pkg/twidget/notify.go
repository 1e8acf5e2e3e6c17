// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"sync/atomic"
	"time"
)

const RedrawMaxCadence = 16 * time.Millisecond
const RedrawDebounceTime = 500 * time.Microsecond
const RedrawMaxDebounceTime = 2 * time.Millisecond

// redrawNotifier coalesces redraw requests.  requests arriving inside the
// debounce window collapse into one fire; a continuous stream of requests
// still fires at RedrawMaxCadence so the screen keeps moving.
type redrawNotifier struct {
	fire         func()
	wakeCh       chan struct{}
	stopCh       chan struct{}
	lastEventNs  atomic.Int64
	batchStartNs atomic.Int64

	// timing overrides, 0 means the package default.  read by the loop
	// goroutine, written from the app via setTiming.
	debounceNs    atomic.Int64
	maxDebounceNs atomic.Int64
}

func makeRedrawNotifier(fire func()) *redrawNotifier {
	n := &redrawNotifier{
		fire:   fire,
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	go n.loop()
	return n
}

func (n *redrawNotifier) Notify() {
	nowNs := time.Now().UnixNano()
	n.lastEventNs.Store(nowNs)
	// Establish batch start if there's no active batch.
	if n.batchStartNs.Load() == 0 {
		n.batchStartNs.CompareAndSwap(0, nowNs)
	}
	// Coalesced wake-up.
	select {
	case n.wakeCh <- struct{}{}:
	default:
	}
}

func (n *redrawNotifier) Stop() {
	select {
	case <-n.stopCh:
	default:
		close(n.stopCh)
	}
}

// setTiming overrides the debounce windows.  zero or negative restores the
// default for that window.
func (n *redrawNotifier) setTiming(debounce time.Duration, maxDebounce time.Duration) {
	n.debounceNs.Store(int64(debounce))
	n.maxDebounceNs.Store(int64(maxDebounce))
}

func (n *redrawNotifier) debounce() time.Duration {
	if ns := n.debounceNs.Load(); ns > 0 {
		return time.Duration(ns)
	}
	return RedrawDebounceTime
}

func (n *redrawNotifier) maxDebounce() time.Duration {
	if ns := n.maxDebounceNs.Load(); ns > 0 {
		return time.Duration(ns)
	}
	return RedrawMaxDebounceTime
}

// fireTarget computes when the pending batch should fire: debounce past the
// last request, capped by the max debounce window, never faster than the
// cadence floor.
func (n *redrawNotifier) fireTarget(lastSent time.Time) (time.Time, bool) {
	firstNs := n.batchStartNs.Load()
	if firstNs == 0 {
		return time.Time{}, false
	}
	lastNs := n.lastEventNs.Load()

	first := time.Unix(0, firstNs)
	last := time.Unix(0, lastNs)
	cadenceReady := lastSent.Add(RedrawMaxCadence)

	anchor := first
	if cadenceReady.After(anchor) {
		anchor = cadenceReady
	}
	deadline := anchor.Add(n.maxDebounce())

	candidate := last.Add(n.debounce())
	if deadline.Before(candidate) {
		candidate = deadline
	}
	target := candidate
	if cadenceReady.After(target) {
		target = cadenceReady
	}
	return target, true
}

func (n *redrawNotifier) loop() {
	var (
		lastSent time.Time
		timer    *time.Timer
		timerC   <-chan time.Time
	)

	resetTimer := func(d time.Duration) {
		if d < 0 {
			d = 0
		}
		if timer == nil {
			timer = time.NewTimer(d)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d)
		}
		timerC = timer.C
	}

	schedule := func() {
		target, ok := n.fireTarget(lastSent)
		if !ok {
			// No pending batch; stop timer if running.
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timerC = nil
			return
		}
		resetTimer(time.Until(target))
	}

	for {
		select {
		case <-n.stopCh:
			return

		case <-n.wakeCh:
			schedule()

		case <-timerC:
			now := time.Now()
			// Recompute right before firing; if a late request arrived,
			// push the fire time out to respect the debounce.
			target, ok := n.fireTarget(lastSent)
			if !ok {
				continue
			}
			if now.Before(target) {
				resetTimer(time.Until(target))
				continue
			}
			n.fire()
			lastSent = now
			// Close current batch; a concurrent notify will CAS a new start.
			n.batchStartNs.Store(0)
			// If anything is already pending, this will arm the next timer.
			schedule()
		}
	}
}
