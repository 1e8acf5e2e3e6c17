// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sync"

	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
)

// Registry is the bidirectional map between stable node ids and live widget
// handles, plus each node's parent. Its contents mirror exactly the set of
// mounted nodes: the reconciler adds an entry once per mount and drops it
// once per unmount. The registry has its own lock so observers (devtools,
// the web layer) can snapshot it without stopping the render loop.
type Registry struct {
	lock        sync.Mutex
	entries     map[string]regEntry
	widgetIndex map[string]string // widget id -> node id
	rootSurface twidget.Widget
}

type regEntry struct {
	widget   twidget.Widget
	parentId string // "" parents the node on the root display surface
}

// RegistryEntry is the read-only view of one entry, in wire form.
type RegistryEntry struct {
	NodeId       string `json:"nodeid"`
	WidgetId     string `json:"widgetid"`
	Kind         string `json:"kind"`
	ParentNodeId string `json:"parentnodeid,omitempty"`
}

func MakeRegistry(rootSurface twidget.Widget) *Registry {
	return &Registry{
		entries:     make(map[string]regEntry),
		widgetIndex: make(map[string]string),
		rootSurface: rootSurface,
	}
}

func (reg *Registry) RootSurface() twidget.Widget {
	return reg.rootSurface
}

func (reg *Registry) Add(nodeId string, w twidget.Widget, parentId string) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	reg.entries[nodeId] = regEntry{widget: w, parentId: parentId}
	reg.widgetIndex[w.WidgetId()] = nodeId
}

func (reg *Registry) Drop(nodeId string) error {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	entry, ok := reg.entries[nodeId]
	if !ok {
		return &UnknownNodeError{Id: nodeId}
	}
	delete(reg.entries, nodeId)
	delete(reg.widgetIndex, entry.widget.WidgetId())
	return nil
}

func (reg *Registry) Get(nodeId string) (twidget.Widget, error) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	entry, ok := reg.entries[nodeId]
	if !ok {
		return nil, &UnknownNodeError{Id: nodeId}
	}
	return entry.widget, nil
}

// GetParent returns the widget the node's widget is attached under. For a
// node mounted at the top of the tree that is the root display surface.
func (reg *Registry) GetParent(nodeId string) (twidget.Widget, error) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	entry, ok := reg.entries[nodeId]
	if !ok {
		return nil, &UnknownNodeError{Id: nodeId}
	}
	if entry.parentId == "" {
		return reg.rootSurface, nil
	}
	parentEntry, ok := reg.entries[entry.parentId]
	if !ok {
		return nil, &UnknownNodeError{Id: entry.parentId}
	}
	return parentEntry.widget, nil
}

// NodeIdForWidget is the reverse lookup. The root surface (and any widget
// not created through the reconciler) has no node id.
func (reg *Registry) NodeIdForWidget(w twidget.Widget) (string, bool) {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	nodeId, ok := reg.widgetIndex[w.WidgetId()]
	return nodeId, ok
}

func (reg *Registry) Has(nodeId string) bool {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	_, ok := reg.entries[nodeId]
	return ok
}

func (reg *Registry) Len() int {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	return len(reg.entries)
}

// Entries snapshots the registry, sorted by node id for stable output.
func (reg *Registry) Entries() []RegistryEntry {
	reg.lock.Lock()
	defer reg.lock.Unlock()
	rtn := make([]RegistryEntry, 0, len(reg.entries))
	for _, nodeId := range utilfn.GetOrderedMapKeys(reg.entries) {
		entry := reg.entries[nodeId]
		rtn = append(rtn, RegistryEntry{
			NodeId:       nodeId,
			WidgetId:     entry.widget.WidgetId(),
			Kind:         entry.widget.Kind(),
			ParentNodeId: entry.parentId,
		})
	}
	return rtn
}
