// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package utilds

import (
	"sync"
	"testing"
	"time"
)

func TestWorkQueueOrder(t *testing.T) {
	var lock sync.Mutex
	var got []int
	wq := NewWorkQueue(func(item int) {
		lock.Lock()
		got = append(got, item)
		lock.Unlock()
	})
	for i := 0; i < 100; i++ {
		if !wq.Enqueue(i) {
			t.Fatalf("enqueue %d rejected", i)
		}
	}
	wq.Close(false)
	wq.Wait()
	if len(got) != 100 {
		t.Fatalf("expected 100 items, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
}

func TestWorkQueueCloseImmediate(t *testing.T) {
	startedCh := make(chan bool, 1)
	blockCh := make(chan bool)
	var lock sync.Mutex
	ran := 0
	wq := NewWorkQueue(func(item int) {
		lock.Lock()
		ran++
		lock.Unlock()
		select {
		case startedCh <- true:
		default:
		}
		<-blockCh
	})
	wq.Enqueue(1)
	<-startedCh
	wq.Enqueue(2)
	wq.Enqueue(3)
	wq.Close(true)
	close(blockCh)
	wq.Wait()
	lock.Lock()
	defer lock.Unlock()
	if ran != 1 {
		t.Fatalf("immediate close should drop pending items, ran %d", ran)
	}
}

func TestWorkQueueEnqueueAfterClose(t *testing.T) {
	wq := NewWorkQueue(func(item int) {})
	wq.Close(false)
	if wq.Enqueue(1) {
		t.Fatalf("enqueue after close should report false")
	}
	wq.Wait()
}

func TestWorkQueueConcurrentEnqueue(t *testing.T) {
	var lock sync.Mutex
	count := 0
	wq := NewWorkQueue(func(item int) {
		lock.Lock()
		count++
		lock.Unlock()
	})
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				wq.Enqueue(i)
			}
		}()
	}
	wg.Wait()
	wq.Close(false)
	done := make(chan bool)
	go func() {
		wq.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not drain")
	}
	lock.Lock()
	defer lock.Unlock()
	if count != 400 {
		t.Fatalf("expected 400 items, got %d", count)
	}
}
