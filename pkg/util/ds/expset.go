// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package ds

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/binaryheap"
)

// ExpSet holds keys that drop out on their own once a per-key deadline
// passes. Claim is the main entry point: a single locked test-and-set,
// which is the shape event dedupe needs (a get-then-set pair would let
// two claimants through).

type ExpSet struct {
	lock      sync.Mutex
	deadlines map[string]time.Time
	sweep     *binaryheap.Heap // expKey entries ordered by deadline
}

type expKey struct {
	Key      string
	Deadline time.Time
}

func expKeyCompare(aArg, bArg any) int {
	a := aArg.(expKey)
	b := bArg.(expKey)
	return a.Deadline.Compare(b.Deadline)
}

func MakeExpSet() *ExpSet {
	return &ExpSet{
		deadlines: make(map[string]time.Time),
		sweep:     binaryheap.NewWith(expKeyCompare),
	}
}

// Claim reports true and arms key to expire ttl from now when key is not
// live (the caller owns this window). It reports false when key is still
// live from an earlier claim; the existing deadline is left alone, so a
// steady stream of claims cannot extend the window forever.
func (s *ExpSet) Claim(key string, ttl time.Duration) bool {
	now := time.Now()
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sweepExpired(now)
	if _, live := s.deadlines[key]; live {
		return false
	}
	deadline := now.Add(ttl)
	s.deadlines[key] = deadline
	s.sweep.Push(expKey{Key: key, Deadline: deadline})
	return true
}

// Contains reports whether key is live without claiming it.
func (s *ExpSet) Contains(key string) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sweepExpired(time.Now())
	_, live := s.deadlines[key]
	return live
}

func (s *ExpSet) sweepExpired(now time.Time) {
	for !s.sweep.Empty() {
		topI, _ := s.sweep.Peek()
		top := topI.(expKey)
		if top.Deadline.After(now) {
			return
		}
		s.sweep.Pop()
		// drop the key only if the deadline in the map is the one that lapsed
		if deadline, ok := s.deadlines[top.Key]; ok && !deadline.After(now) {
			delete(s.deadlines, top.Key)
		}
	}
}
