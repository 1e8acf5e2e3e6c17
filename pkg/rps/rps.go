// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// riptide pubsub: fans reconciler, config, and layout events out to
// devtools subscribers (websocket and sse clients).
package rps

import (
	"sync"

	"github.com/wavetermdev/riptide/pkg/panichandler"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
	"github.com/wavetermdev/riptide/pkg/utilds"
)

const (
	Event_PassCommitted   = "engine:passcommitted"
	Event_TreeUpdated     = "engine:treeupdated"
	Event_ConfigChanged   = "config:changed"
	Event_SnapshotSaved   = "layout:snapshotsaved"
	Event_SnapshotDeleted = "layout:snapshotdeleted"
	Event_AppShutdown     = "app:shutdown"
)

// AllEvents lists every event name published by the core packages.
// Devtools clients subscribe to the full set on connect.
var AllEvents = []string{
	Event_PassCommitted,
	Event_TreeUpdated,
	Event_ConfigChanged,
	Event_SnapshotSaved,
	Event_SnapshotDeleted,
	Event_AppShutdown,
}

// the broker itself is generic; event names and payload types are defined
// by the publishers

type Event struct {
	Event  string   `json:"event"`
	Scopes []string `json:"scopes,omitempty"`
	Sender string   `json:"sender,omitempty"`
	Data   any      `json:"data,omitempty"`
}

type SubscriptionRequest struct {
	Event     string   `json:"event"`
	Scopes    []string `json:"scopes,omitempty"`
	AllScopes bool     `json:"allscopes,omitempty"`
}

type Client interface {
	ClientId() string
	SendEvent(event Event)
}

type brokerSubscription struct {
	allSubs   []string            // clientids subscribed regardless of scope
	scopeSubs map[string][]string // clientids subscribed to specific scopes
}

func (bs *brokerSubscription) isEmpty() bool {
	return len(bs.allSubs) == 0 && len(bs.scopeSubs) == 0
}

type deliverJob struct {
	client Client
	event  Event
}

// Broker routes published events to subscribed clients. Delivery happens
// on a single queue worker, so publishers (the render loop in particular)
// never block on a slow subscriber.
type Broker struct {
	lock      sync.Mutex
	clientMap map[string]Client
	subMap    map[string]*brokerSubscription
	sendQueue *utilds.WorkQueue[deliverJob]
}

func MakeBroker() *Broker {
	return &Broker{
		clientMap: make(map[string]Client),
		subMap:    make(map[string]*brokerSubscription),
		sendQueue: utilds.NewWorkQueue(runDeliverJob),
	}
}

func runDeliverJob(job deliverJob) {
	defer func() {
		panichandler.PanicHandler("rps:sendevent", recover())
	}()
	job.client.SendEvent(job.event)
}

func (b *Broker) Subscribe(subscriber Client, sub SubscriptionRequest) {
	b.lock.Lock()
	defer b.lock.Unlock()
	clientId := subscriber.ClientId()
	b.clientMap[clientId] = subscriber
	bs := b.subMap[sub.Event]
	if bs == nil {
		bs = &brokerSubscription{
			allSubs:   []string{},
			scopeSubs: make(map[string][]string),
		}
		b.subMap[sub.Event] = bs
	}
	if sub.AllScopes {
		bs.allSubs = utilfn.AddElemToSliceUniq(bs.allSubs, clientId)
	}
	for _, scope := range sub.Scopes {
		scopeSubs := bs.scopeSubs[scope]
		scopeSubs = utilfn.AddElemToSliceUniq(scopeSubs, clientId)
		bs.scopeSubs[scope] = scopeSubs
	}
}

func (b *Broker) Unsubscribe(subscriber Client, sub SubscriptionRequest) {
	b.lock.Lock()
	defer b.lock.Unlock()
	clientId := subscriber.ClientId()
	bs := b.subMap[sub.Event]
	if bs == nil {
		return
	}
	if sub.AllScopes {
		bs.allSubs = utilfn.RemoveElemFromSlice(bs.allSubs, clientId)
	}
	for _, scope := range sub.Scopes {
		scopeSubs := utilfn.RemoveElemFromSlice(bs.scopeSubs[scope], clientId)
		if len(scopeSubs) == 0 {
			delete(bs.scopeSubs, scope)
		} else {
			bs.scopeSubs[scope] = scopeSubs
		}
	}
	if bs.isEmpty() {
		delete(b.subMap, sub.Event)
	}
}

// UnsubscribeAll removes every subscription a client holds and forgets the
// client. Call on disconnect.
func (b *Broker) UnsubscribeAll(subscriber Client) {
	b.lock.Lock()
	defer b.lock.Unlock()
	clientId := subscriber.ClientId()
	delete(b.clientMap, clientId)
	for eventName, bs := range b.subMap {
		bs.allSubs = utilfn.RemoveElemFromSlice(bs.allSubs, clientId)
		for scope, scopeSubs := range bs.scopeSubs {
			scopeSubs = utilfn.RemoveElemFromSlice(scopeSubs, clientId)
			if len(scopeSubs) == 0 {
				delete(bs.scopeSubs, scope)
			} else {
				bs.scopeSubs[scope] = scopeSubs
			}
		}
		if bs.isEmpty() {
			delete(b.subMap, eventName)
		}
	}
}

// Publish queues event for every matching subscriber and returns without
// waiting for delivery.
func (b *Broker) Publish(event Event) {
	clients := b.getMatchingClients(event)
	for _, client := range clients {
		b.sendQueue.Enqueue(deliverJob{client: client, event: event})
	}
}

func (b *Broker) getMatchingClients(event Event) []Client {
	b.lock.Lock()
	defer b.lock.Unlock()
	bs := b.subMap[event.Event]
	if bs == nil {
		return nil
	}
	clientIds := make(map[string]bool)
	for _, clientId := range bs.allSubs {
		clientIds[clientId] = true
	}
	for _, scope := range event.Scopes {
		for _, clientId := range bs.scopeSubs[scope] {
			clientIds[clientId] = true
		}
	}
	var rtn []Client
	for clientId := range clientIds {
		if client := b.clientMap[clientId]; client != nil {
			rtn = append(rtn, client)
		}
	}
	return rtn
}

// Close drains pending deliveries and stops the queue worker. Publish
// calls after Close are dropped.
func (b *Broker) Close() {
	b.sendQueue.Close(false)
	b.sendQueue.Wait()
}
