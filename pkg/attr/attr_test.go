// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package attr

import (
	"errors"
	"testing"

	"github.com/wavetermdev/riptide/pkg/twidget"
)

func TestResolveBoxOptions(t *testing.T) {
	props := map[string]any{
		"top":    "1",
		"width":  "50%",
		"border": true,
		"title":  "status",
		"style":  map[string]any{"fg": "cyan", "bold": true},
	}
	resolved, err := Resolve(twidget.KindBox, props)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	opts, ok := resolved.Options.(*twidget.BoxOptions)
	if !ok {
		t.Fatalf("expected *BoxOptions, got %T", resolved.Options)
	}
	if opts.Top != "1" || opts.Width != "50%" || !opts.Border || opts.Title != "status" {
		t.Fatalf("bad options: %#v", opts)
	}
	if opts.Style.Fg != "cyan" || !opts.Style.Bold {
		t.Fatalf("bad style: %#v", opts.Style)
	}
}

func TestResolveWeakTyping(t *testing.T) {
	resolved, err := Resolve(twidget.KindGauge, map[string]any{"percent": "42"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	opts := resolved.Options.(*twidget.GaugeOptions)
	if opts.Percent != 42 {
		t.Fatalf("expected percent 42, got %d", opts.Percent)
	}
}

func TestResolveUnknownKind(t *testing.T) {
	_, err := Resolve("spinner", nil)
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestResolveHandlers(t *testing.T) {
	pressed := 0
	var selectedEvent twidget.Event
	props := map[string]any{
		"items":    []string{"a", "b"},
		"onPress":  func() { pressed++ },
		"onselect": func(event twidget.Event) { selectedEvent = event },
	}
	resolved, err := Resolve(twidget.KindList, props)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved.Handlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(resolved.Handlers))
	}
	resolved.Handlers[twidget.EventPress](twidget.Event{Type: twidget.EventPress})
	if pressed != 1 {
		t.Fatalf("press handler did not run")
	}
	resolved.Handlers[twidget.EventSelect](twidget.Event{Type: twidget.EventSelect, Index: 1, Item: "b"})
	if selectedEvent.Item != "b" {
		t.Fatalf("select handler did not receive event, got %#v", selectedEvent)
	}
	opts := resolved.Options.(*twidget.ListOptions)
	if len(opts.Items) != 2 {
		t.Fatalf("items did not decode: %#v", opts)
	}
}

func TestResolveDropsDisallowedHandlers(t *testing.T) {
	props := map[string]any{
		"onSelect": func() {},
		"onKey":    func() {},
	}
	resolved, err := Resolve(twidget.KindBox, props)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, ok := resolved.Handlers[twidget.EventSelect]; ok {
		t.Fatalf("box should not resolve a select handler")
	}
	if _, ok := resolved.Handlers[twidget.EventKey]; !ok {
		t.Fatalf("box should resolve a key handler")
	}
}

func TestResolveDropsNonCallableHandler(t *testing.T) {
	resolved, err := Resolve(twidget.KindBox, map[string]any{"onKey": "not a func"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved.Handlers) != 0 {
		t.Fatalf("expected no handlers, got %d", len(resolved.Handlers))
	}
}

func TestResolveSkipsStructuralProps(t *testing.T) {
	props := map[string]any{
		"children": []any{"x"},
		"key":      "row-1",
		"ref":      func(w twidget.Widget) {},
		"title":    "t",
	}
	resolved, err := Resolve(twidget.KindBox, props)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	opts := resolved.Options.(*twidget.BoxOptions)
	if opts.Title != "t" {
		t.Fatalf("title did not decode: %#v", opts)
	}
}

func TestResolveDoesNotMutateProps(t *testing.T) {
	style := map[string]any{"fg": "red"}
	props := map[string]any{
		"title": "t",
		"style": style,
		"key":   "k",
		"onKey": func() {},
	}
	if _, err := Resolve(twidget.KindBox, props); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(props) != 4 {
		t.Fatalf("props map changed size: %d", len(props))
	}
	if props["title"] != "t" || props["key"] != "k" {
		t.Fatalf("props values changed: %#v", props)
	}
	if len(style) != 1 || style["fg"] != "red" {
		t.Fatalf("nested style map changed: %#v", style)
	}
}

func TestResolveOnPrefixedOptionProp(t *testing.T) {
	// a prop that merely starts with "on" is not a handler
	resolved, err := Resolve(twidget.KindBox, map[string]any{"onwards": "x"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(resolved.Handlers) != 0 {
		t.Fatalf("expected no handlers, got %d", len(resolved.Handlers))
	}
}
