// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wavetermdev/riptide/pkg/rps"
)

const wsReadWaitTimeout = 15 * time.Second
const wsWriteWaitTimeout = 10 * time.Second
const wsPingPeriodTickTime = 10 * time.Second
const wsInitialPingTime = 1 * time.Second

const wsOutputChSize = 100

var WebSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:   4 * 1024,
	WriteBufferSize:  32 * 1024,
	HandshakeTimeout: 1 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// wsClient bridges a websocket connection to the event broker.
type wsClient struct {
	clientId string
	outputCh chan any
}

func (c *wsClient) ClientId() string {
	return c.clientId
}

// SendEvent runs on the broker's delivery worker; a slow reader drops
// events rather than stalling delivery to other clients.
func (c *wsClient) SendEvent(event rps.Event) {
	select {
	case c.outputCh <- event:
	default:
		log.Printf("[web] dropping event %q for slow ws client %s\n", event.Event, c.clientId)
	}
}

func (ws *webServer) handleWs(w http.ResponseWriter, r *http.Request) {
	err := ws.handleWsInternal(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func getMessageType(jmsg map[string]any) string {
	if str, ok := jmsg["type"].(string); ok {
		return str
	}
	return ""
}

func getStringFromMap(jmsg map[string]any, key string) string {
	if str, ok := jmsg[key].(string); ok {
		return str
	}
	return ""
}

func parseSubscriptionRequest(jmsg map[string]any) (*rps.SubscriptionRequest, error) {
	event := getStringFromMap(jmsg, "event")
	if event == "" {
		return nil, fmt.Errorf("subscription request has no event")
	}
	req := &rps.SubscriptionRequest{Event: event}
	if allScopes, ok := jmsg["allscopes"].(bool); ok {
		req.AllScopes = allScopes
	}
	if scopesArr, ok := jmsg["scopes"].([]any); ok {
		for _, scopeVal := range scopesArr {
			if scope, ok := scopeVal.(string); ok {
				req.Scopes = append(req.Scopes, scope)
			}
		}
	}
	return req, nil
}

func (ws *webServer) processMessage(jmsg map[string]any, client *wsClient) {
	var rtnErr error
	defer func() {
		r := recover()
		if r != nil {
			rtnErr = fmt.Errorf("panic: %v", r)
			log.Printf("[web] panic in processMessage: %v\n", r)
			debug.PrintStack()
		}
		if rtnErr == nil {
			return
		}
		client.SendEvent(rps.Event{Event: "error", Data: rtnErr.Error()})
	}()
	msgType := getMessageType(jmsg)
	switch msgType {
	case "subscribe":
		req, err := parseSubscriptionRequest(jmsg)
		if err != nil {
			rtnErr = err
			return
		}
		ws.deps.Broker.Subscribe(client, *req)
	case "unsubscribe":
		req, err := parseSubscriptionRequest(jmsg)
		if err != nil {
			rtnErr = err
			return
		}
		ws.deps.Broker.Unsubscribe(client, *req)
	default:
		rtnErr = fmt.Errorf("unknown message type %q", msgType)
	}
}

func (ws *webServer) readLoop(conn *websocket.Conn, client *wsClient, closeCh chan any) {
	readWait := wsReadWaitTimeout
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(readWait))
	defer close(closeCh)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[web] ReadPump error: %v\n", err)
			break
		}
		jmsg := map[string]any{}
		err = json.Unmarshal(message, &jmsg)
		if err != nil {
			log.Printf("[web] error unmarshalling json: %v\n", err)
			break
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		msgType := getMessageType(jmsg)
		if msgType == "pong" {
			// nothing
			continue
		}
		if msgType == "ping" {
			now := time.Now()
			pongMessage := map[string]interface{}{"type": "pong", "stime": now.UnixMilli()}
			client.outputCh <- pongMessage
			continue
		}
		ws.processMessage(jmsg, client)
	}
}

func writePing(conn *websocket.Conn) error {
	now := time.Now()
	pingMessage := map[string]interface{}{"type": "ping", "stime": now.UnixMilli()}
	jsonVal, _ := json.Marshal(pingMessage)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWaitTimeout)) // no error
	err := conn.WriteMessage(websocket.TextMessage, jsonVal)
	if err != nil {
		return err
	}
	return nil
}

func writeLoop(conn *websocket.Conn, outputCh chan any, closeCh chan any) {
	ticker := time.NewTicker(wsInitialPingTime)
	defer ticker.Stop()
	initialPing := true
	for {
		select {
		case msg := <-outputCh:
			var barr []byte
			var err error
			if _, ok := msg.([]byte); ok {
				barr = msg.([]byte)
			} else {
				barr, err = json.Marshal(msg)
				if err != nil {
					log.Printf("[web] cannot marshal websocket message: %v\n", err)
					// just loop again
					break
				}
			}
			err = conn.WriteMessage(websocket.TextMessage, barr)
			if err != nil {
				conn.Close()
				log.Printf("[web] WritePump error: %v\n", err)
				return
			}

		case <-ticker.C:
			err := writePing(conn)
			if err != nil {
				log.Printf("[web] WritePump error: %v\n", err)
				return
			}
			if initialPing {
				initialPing = false
				ticker.Reset(wsPingPeriodTickTime)
			}

		case <-closeCh:
			return
		}
	}
}

func (ws *webServer) handleWsInternal(w http.ResponseWriter, r *http.Request) error {
	claims, err := validateStreamToken(r)
	if err != nil {
		return fmt.Errorf("websocket auth failed: %w", err)
	}
	conn, err := WebSocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %v", err)
	}
	defer conn.Close()
	client := &wsClient{
		clientId: claims.ClientId,
		outputCh: make(chan any, wsOutputChSize),
	}
	log.Printf("[web] new websocket connection: clientid:%s\n", client.clientId)
	for _, eventName := range rps.AllEvents {
		ws.deps.Broker.Subscribe(client, rps.SubscriptionRequest{Event: eventName, AllScopes: true})
	}
	defer ws.deps.Broker.UnsubscribeAll(client)
	closeCh := make(chan any)
	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		// read loop
		defer wg.Done()
		ws.readLoop(conn, client, closeCh)
	}()
	go func() {
		// write loop
		defer wg.Done()
		writeLoop(conn, client.outputCh, closeCh)
	}()
	wg.Wait()
	log.Printf("[web] websocket connection closed: clientid:%s\n", client.clientId)
	return nil
}
