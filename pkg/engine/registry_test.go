// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"testing"

	"github.com/wavetermdev/riptide/pkg/twidget"
)

func makeRegistryFixture(t *testing.T) (*Registry, *twidget.Library, twidget.Widget) {
	t.Helper()
	screen := twidget.MakeTestScreen(40, 10)
	lib := twidget.MakeLibrary(screen)
	return MakeRegistry(screen.RootSurface()), lib, screen.RootSurface()
}

func mustCreate(t *testing.T, lib *twidget.Library, kind string) twidget.Widget {
	t.Helper()
	opts, _ := twidget.OptionsForKind(kind)
	w, err := lib.CreateWidget(kind, opts)
	if err != nil {
		t.Fatalf("create %s failed: %v", kind, err)
	}
	return w
}

func TestRegistryAddGetDrop(t *testing.T) {
	reg, lib, _ := makeRegistryFixture(t)
	w := mustCreate(t, lib, twidget.KindBox)
	reg.Add("node-1", w, "")
	got, err := reg.Get("node-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.WidgetId() != w.WidgetId() {
		t.Fatalf("get returned wrong widget")
	}
	if !reg.Has("node-1") || reg.Len() != 1 {
		t.Fatalf("bad registry state after add")
	}
	nodeId, ok := reg.NodeIdForWidget(w)
	if !ok || nodeId != "node-1" {
		t.Fatalf("reverse lookup failed: %q %v", nodeId, ok)
	}
	if err := reg.Drop("node-1"); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	if reg.Has("node-1") || reg.Len() != 0 {
		t.Fatalf("entry survived drop")
	}
	if _, ok := reg.NodeIdForWidget(w); ok {
		t.Fatalf("reverse index survived drop")
	}
}

func TestRegistryUnknownNode(t *testing.T) {
	reg, _, _ := makeRegistryFixture(t)
	_, err := reg.Get("missing")
	if !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode, got %v", err)
	}
	var nodeErr *UnknownNodeError
	if !errors.As(err, &nodeErr) || nodeErr.Id != "missing" {
		t.Fatalf("bad typed error: %v", err)
	}
	if err := reg.Drop("missing"); !errors.Is(err, ErrUnknownNode) {
		t.Fatalf("expected ErrUnknownNode from drop, got %v", err)
	}
}

func TestRegistryGetParent(t *testing.T) {
	reg, lib, rootSurface := makeRegistryFixture(t)
	parent := mustCreate(t, lib, twidget.KindBox)
	child := mustCreate(t, lib, twidget.KindText)
	reg.Add("p", parent, "")
	reg.Add("c", child, "p")

	parentWidget, err := reg.GetParent("c")
	if err != nil {
		t.Fatalf("getparent failed: %v", err)
	}
	if parentWidget.WidgetId() != parent.WidgetId() {
		t.Fatalf("wrong parent widget")
	}
	surface, err := reg.GetParent("p")
	if err != nil {
		t.Fatalf("getparent failed: %v", err)
	}
	if surface.WidgetId() != rootSurface.WidgetId() {
		t.Fatalf("top-level node should parent on the root surface")
	}
}

func TestRegistryEntriesSnapshot(t *testing.T) {
	reg, lib, _ := makeRegistryFixture(t)
	reg.Add("b", mustCreate(t, lib, twidget.KindBox), "")
	reg.Add("a", mustCreate(t, lib, twidget.KindText), "b")
	entries := reg.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// sorted by node id
	if entries[0].NodeId != "a" || entries[1].NodeId != "b" {
		t.Fatalf("entries not sorted: %#v", entries)
	}
	if entries[0].Kind != "text" || entries[0].ParentNodeId != "b" {
		t.Fatalf("bad entry: %#v", entries[0])
	}
}
