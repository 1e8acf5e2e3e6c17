// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package rps

import (
	"sync"
	"testing"
)

type testClient struct {
	id     string
	lock   sync.Mutex
	events []Event
}

func (c *testClient) ClientId() string {
	return c.id
}

func (c *testClient) SendEvent(event Event) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.events = append(c.events, event)
}

func (c *testClient) eventCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.events)
}

func TestBrokerAllScopes(t *testing.T) {
	b := MakeBroker()
	c1 := &testClient{id: "c1"}
	c2 := &testClient{id: "c2"}
	b.Subscribe(c1, SubscriptionRequest{Event: Event_PassCommitted, AllScopes: true})
	b.Subscribe(c2, SubscriptionRequest{Event: Event_ConfigChanged, AllScopes: true})
	b.Publish(Event{Event: Event_PassCommitted, Data: "x"})
	b.Publish(Event{Event: Event_PassCommitted, Data: "y"})
	b.Close()
	if c1.eventCount() != 2 {
		t.Fatalf("expected 2 events for c1, got %d", c1.eventCount())
	}
	if c2.eventCount() != 0 {
		t.Fatalf("expected 0 events for c2, got %d", c2.eventCount())
	}
}

func TestBrokerScopeRouting(t *testing.T) {
	b := MakeBroker()
	c1 := &testClient{id: "c1"}
	c2 := &testClient{id: "c2"}
	b.Subscribe(c1, SubscriptionRequest{Event: Event_SnapshotSaved, Scopes: []string{"dashboard"}})
	b.Subscribe(c2, SubscriptionRequest{Event: Event_SnapshotSaved, Scopes: []string{"todo"}})
	b.Publish(Event{Event: Event_SnapshotSaved, Scopes: []string{"dashboard"}})
	b.Close()
	if c1.eventCount() != 1 || c2.eventCount() != 0 {
		t.Fatalf("bad scope routing: c1=%d c2=%d", c1.eventCount(), c2.eventCount())
	}
}

func TestBrokerDedupesAllAndScope(t *testing.T) {
	b := MakeBroker()
	c1 := &testClient{id: "c1"}
	b.Subscribe(c1, SubscriptionRequest{Event: Event_TreeUpdated, AllScopes: true, Scopes: []string{"s1"}})
	b.Publish(Event{Event: Event_TreeUpdated, Scopes: []string{"s1"}})
	b.Close()
	if c1.eventCount() != 1 {
		t.Fatalf("client received duplicate delivery, got %d", c1.eventCount())
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := MakeBroker()
	c1 := &testClient{id: "c1"}
	sub := SubscriptionRequest{Event: Event_PassCommitted, AllScopes: true}
	b.Subscribe(c1, sub)
	b.Unsubscribe(c1, sub)
	b.Publish(Event{Event: Event_PassCommitted})
	b.Close()
	if c1.eventCount() != 0 {
		t.Fatalf("unsubscribed client still received events")
	}
}

func TestBrokerUnsubscribeAll(t *testing.T) {
	b := MakeBroker()
	c1 := &testClient{id: "c1"}
	b.Subscribe(c1, SubscriptionRequest{Event: Event_PassCommitted, AllScopes: true})
	b.Subscribe(c1, SubscriptionRequest{Event: Event_ConfigChanged, Scopes: []string{"s1"}})
	b.UnsubscribeAll(c1)
	b.Publish(Event{Event: Event_PassCommitted})
	b.Publish(Event{Event: Event_ConfigChanged, Scopes: []string{"s1"}})
	b.Close()
	if c1.eventCount() != 0 {
		t.Fatalf("client still subscribed after UnsubscribeAll")
	}
}

func TestBrokerPanickingClientIsolated(t *testing.T) {
	b := MakeBroker()
	bad := &panicClient{id: "bad"}
	good := &testClient{id: "good"}
	b.Subscribe(bad, SubscriptionRequest{Event: Event_PassCommitted, AllScopes: true})
	b.Subscribe(good, SubscriptionRequest{Event: Event_PassCommitted, AllScopes: true})
	b.Publish(Event{Event: Event_PassCommitted})
	b.Close()
	if good.eventCount() != 1 {
		t.Fatalf("panicking client blocked delivery to others")
	}
}

type panicClient struct {
	id string
}

func (c *panicClient) ClientId() string {
	return c.id
}

func (c *panicClient) SendEvent(event Event) {
	panic("send boom")
}
