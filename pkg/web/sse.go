// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/eventsource"
	"github.com/wavetermdev/riptide/pkg/rps"
)

const sseChannelName = "riptide"
const sseClientId = "sse-bridge"
const sseKeepaliveInterval = 15 * time.Second

type sseEvent struct {
	id    string
	event string
	data  string
}

func (e sseEvent) Id() string    { return e.id }
func (e sseEvent) Event() string { return e.event }
func (e sseEvent) Data() string  { return e.data }

// sseBridge is a single broker client fanned out to every connected
// EventSource by the eventsource server.
type sseBridge struct {
	server  *eventsource.Server
	broker  *rps.Broker
	counter atomic.Int64
	doneCh  chan struct{}
}

func makeSSEBridge(broker *rps.Broker) *sseBridge {
	server := eventsource.NewServer()
	server.ReplayAll = false
	bridge := &sseBridge{
		server: server,
		broker: broker,
		doneCh: make(chan struct{}),
	}
	for _, eventName := range rps.AllEvents {
		broker.Subscribe(bridge, rps.SubscriptionRequest{Event: eventName, AllScopes: true})
	}
	go bridge.keepaliveLoop()
	return bridge
}

func (b *sseBridge) ClientId() string {
	return sseClientId
}

func (b *sseBridge) SendEvent(event rps.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[web] cannot marshal sse event: %v\n", err)
		return
	}
	b.server.Publish([]string{sseChannelName}, sseEvent{
		id:    strconv.FormatInt(b.counter.Add(1), 10),
		event: event.Event,
		data:  string(data),
	})
}

// intermediate proxies kill idle streams; comments keep them open
func (b *sseBridge) keepaliveLoop() {
	ticker := time.NewTicker(sseKeepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.server.PublishComment([]string{sseChannelName}, "keepalive")
		case <-b.doneCh:
			return
		}
	}
}

func (b *sseBridge) close() {
	close(b.doneCh)
	b.broker.UnsubscribeAll(b)
	b.server.Close()
}

func (ws *webServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	_, err := validateStreamToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	// the stream outlives any write deadline set for plain requests
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Printf("[web] cannot reset write deadline for sse: %v\n", err)
	}
	ws.sse.server.Handler(sseChannelName).ServeHTTP(w, r)
}
