// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"testing"
	"time"

	"github.com/wavetermdev/riptide/pkg/rps"
	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

func testCtx(t *testing.T) context.Context {
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancelFn)
	return ctx
}

func TestRenderThroughLoop(t *testing.T) {
	app := MakeTestApp(40, 10)
	app.SetRoot(vdom.E("box",
		vdom.P("title", "hello"),
		vdom.E("text", vdom.P("content", "hi")),
	))
	app.WaitIdle()
	elem, err := app.TreeSnapshot(testCtx(t))
	if err != nil {
		t.Fatalf("error getting tree snapshot: %v", err)
	}
	if elem == nil || elem.Tag != "box" {
		t.Fatalf("expected box root, got %v", elem)
	}
	entries := app.RegistryEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 registry entries, got %d", len(entries))
	}
	status := app.Status()
	if status.NodeCount != 2 {
		t.Fatalf("expected node count 2, got %d", status.NodeCount)
	}
}

func TestRefreshReRendersClosureState(t *testing.T) {
	app := MakeTestApp(40, 10)
	label := "first"
	app.Render(func() *vdom.Elem {
		return vdom.E("text", vdom.P("content", label))
	})
	app.WaitIdle()
	label = "second"
	app.Refresh()
	app.WaitIdle()
	elem, err := app.TreeSnapshot(testCtx(t))
	if err != nil {
		t.Fatalf("error getting tree snapshot: %v", err)
	}
	if elem.Props["content"] != "second" {
		t.Fatalf("expected re-rendered content %q, got %v", "second", elem.Props["content"])
	}
}

func TestNilRenderUnmountsTree(t *testing.T) {
	app := MakeTestApp(40, 10)
	show := true
	app.Render(func() *vdom.Elem {
		if !show {
			return nil
		}
		return vdom.E("text", vdom.P("content", "x"))
	})
	app.WaitIdle()
	if app.Status().NodeCount != 1 {
		t.Fatalf("expected 1 node before unmount")
	}
	show = false
	app.Refresh()
	app.WaitIdle()
	if app.Status().NodeCount != 0 {
		t.Fatalf("expected empty tree after nil render, got %d nodes", app.Status().NodeCount)
	}
	elem, err := app.TreeSnapshot(testCtx(t))
	if err != nil {
		t.Fatalf("error getting tree snapshot: %v", err)
	}
	if elem != nil {
		t.Fatalf("expected nil snapshot for empty tree, got %v", elem)
	}
}

func TestQuitKeyTriggersShutdown(t *testing.T) {
	app := MakeTestApp(40, 10)
	app.settings.Settings.AppQuitKey = "ctrl+c"
	app.DispatchKey("Ctrl-c")
	app.WaitIdle()
	select {
	case <-app.shutdownCh:
	case <-time.After(time.Second):
		t.Fatalf("quit key did not trigger shutdown")
	}
}

func TestNormalizeKeyName(t *testing.T) {
	if normalizeKeyName("Ctrl-c") != normalizeKeyName("ctrl+c") {
		t.Fatalf("expected Ctrl-c and ctrl+c to normalize the same")
	}
	if normalizeKeyName("Tab") != "tab" {
		t.Fatalf("unexpected normalization: %q", normalizeKeyName("Tab"))
	}
}

func TestKeyDispatchReachesHandlers(t *testing.T) {
	app := MakeTestApp(40, 10)
	var pressedItem string
	app.SetRoot(vdom.E("list",
		vdom.P("items", []string{"alpha", "beta"}),
		vdom.P("onPress", func(event twidget.Event) {
			pressedItem = event.Item
		}),
	))
	app.WaitIdle()
	// nothing is focused yet; the first dispatch focuses the list, and
	// Enter presses the current selection
	app.DispatchKey("Enter")
	app.WaitIdle()
	if pressedItem != "alpha" {
		t.Fatalf("expected press on %q, got %q", "alpha", pressedItem)
	}
}

type recordingClient struct {
	id string
	ch chan rps.Event
}

func (c *recordingClient) ClientId() string {
	return c.id
}

func (c *recordingClient) SendEvent(event rps.Event) {
	select {
	case c.ch <- event:
	default:
	}
}

func TestPassSummariesReachBroker(t *testing.T) {
	app := MakeTestApp(40, 10)
	client := &recordingClient{id: "test-client", ch: make(chan rps.Event, 16)}
	app.Broker().Subscribe(client, rps.SubscriptionRequest{Event: rps.Event_PassCommitted, AllScopes: true})
	app.SetRoot(vdom.E("text", vdom.P("content", "hi")))
	app.WaitIdle()
	select {
	case event := <-client.ch:
		if event.Event != rps.Event_PassCommitted {
			t.Fatalf("unexpected event %q", event.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no pass-committed event delivered")
	}
}

func TestTreeSnapshotStripsHandlers(t *testing.T) {
	app := MakeTestApp(40, 10)
	app.SetRoot(vdom.E("list",
		vdom.P("items", []string{"a"}),
		vdom.P("onPress", func() {}),
	))
	app.WaitIdle()
	elem, err := app.TreeSnapshot(testCtx(t))
	if err != nil {
		t.Fatalf("error getting tree snapshot: %v", err)
	}
	if _, ok := elem.Props["onPress"]; ok {
		t.Fatalf("snapshot should not carry handler props")
	}
	if _, ok := elem.Props["items"]; !ok {
		t.Fatalf("snapshot lost plain props")
	}
}
