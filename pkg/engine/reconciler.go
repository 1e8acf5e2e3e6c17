// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package engine mounts virtual element trees onto live terminal widgets
// and keeps the two in sync across renders. Nodes keep their identity (and
// widget handle) for as long as their tag and key match; a change in either
// unmounts the subtree and mounts a fresh one. All widget mutation flows
// through the WidgetLib interface, and every pass batches its side effects
// through a Coordinator so one render produces at most one redraw request.
//
// Reconciler methods are not goroutine safe. The embedding application
// serializes passes on a single loop; only the Registry carries its own
// lock so observers can snapshot it from other goroutines.
package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wavetermdev/riptide/pkg/attr"
	"github.com/wavetermdev/riptide/pkg/childdiff"
	"github.com/wavetermdev/riptide/pkg/panichandler"
	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

// WidgetLib is the full set of widget operations the reconciler performs.
// *twidget.Library implements it; tests substitute a recorder.
type WidgetLib interface {
	CreateWidget(kind string, opts twidget.Options) (twidget.Widget, error)
	Attach(parent twidget.Widget, child twidget.Widget)
	Detach(parent twidget.Widget, child twidget.Widget)
	ApplyOptions(w twidget.Widget, opts twidget.Options) error
	OnAnyEvent(w twidget.Widget, fn twidget.Dispatcher)
	OffAllEvents(w twidget.Widget)
	RequestDebouncedRedraw()
}

// AttrResolver turns an element's kind and props into widget options plus
// an event handler table. attr.Resolve is the default.
type AttrResolver func(kind string, props map[string]any) (*attr.Resolved, error)

// comp is the reconciler's record of one mounted node: the element it was
// last rendered from, the resolved handler table the node's dispatcher
// reads, and the ordered child list for the differ.
type comp struct {
	id       string
	elem     vdom.Elem
	handlers attr.HandlerTable
	children []childdiff.Child
}

type Reconciler struct {
	lib      WidgetLib
	resolve  AttrResolver
	registry *Registry
	coord    *Coordinator
	compMap  map[string]*comp
	rootId   string
}

func MakeReconciler(lib WidgetLib, rootSurface twidget.Widget) *Reconciler {
	return &Reconciler{
		lib:      lib,
		resolve:  attr.Resolve,
		registry: MakeRegistry(rootSurface),
		coord:    MakeCoordinator(lib),
		compMap:  make(map[string]*comp),
	}
}

// SetAttrResolver swaps the prop resolver. Call before anything mounts.
func (rc *Reconciler) SetAttrResolver(resolve AttrResolver) {
	rc.resolve = resolve
}

func (rc *Reconciler) Registry() *Registry {
	return rc.registry
}

func (rc *Reconciler) Coordinator() *Coordinator {
	return rc.coord
}

func (rc *Reconciler) BeginPass() *Pass {
	return rc.coord.BeginPass()
}

// RootId returns the node id of the mounted root, or "" when the tree is
// empty.
func (rc *Reconciler) RootId() string {
	return rc.rootId
}

// widgetKind maps an element tag to the widget kind that renders it. #text
// elements render as text widgets carrying their text as content.
func widgetKind(elem *vdom.Elem) string {
	if elem.Tag == vdom.TextTag {
		return twidget.KindText
	}
	return elem.Tag
}

func (rc *Reconciler) resolveElem(elem *vdom.Elem) (*attr.Resolved, error) {
	props := elem.Props
	if elem.Tag == vdom.TextTag {
		props = map[string]any{"content": elem.Text}
	}
	resolved, err := rc.resolve(widgetKind(elem), props)
	if err != nil {
		if errors.Is(err, attr.ErrUnknownKind) {
			return nil, &UnknownWidgetTypeError{Kind: elem.Tag}
		}
		return nil, err
	}
	return resolved, nil
}

// Mount creates the widget subtree for elem under parent and returns the
// new node id. The kind check runs first, so an unknown tag fails before
// any widget is created or attached. On a partial mount (a descendant
// failed) the returned id is still valid and tracked, so the caller can
// unmount what did come up.
func (rc *Reconciler) Mount(elem vdom.Elem, parent twidget.Widget, pass *Pass) (string, error) {
	resolved, err := rc.resolveElem(&elem)
	if err != nil {
		return "", err
	}
	w, err := rc.lib.CreateWidget(widgetKind(&elem), resolved.Options)
	if err != nil {
		return "", fmt.Errorf("error creating %q widget: %w", elem.Tag, err)
	}
	rc.lib.Attach(parent, w)
	parentId, _ := rc.registry.NodeIdForWidget(parent)
	nodeId := uuid.New().String()
	rc.registry.Add(nodeId, w, parentId)
	c := &comp{id: nodeId, elem: elem, handlers: resolved.Handlers}
	rc.compMap[nodeId] = c
	rc.lib.OnAnyEvent(w, rc.makeDispatcher(c))
	pass.countMount()
	pass.RequestRedraw()
	childErr := rc.reconcileChildren(c, w, pass)
	if refFn := refProp(&c.elem); refFn != nil {
		pass.EnqueueCallback(func() {
			invokeRef(refFn, w)
		})
	}
	return nodeId, childErr
}

// Update applies nextElem to a mounted node. The widget handle is reused,
// never recreated: options re-apply in place, the handler table swaps (the
// dispatcher installed at mount reads it dynamically, so no rebinding
// happens), and the children reconcile against the node's child list.
// prevElem is the element the node was last rendered from, as reported by
// the caller's diff.
func (rc *Reconciler) Update(nodeId string, prevElem vdom.Elem, nextElem vdom.Elem, pass *Pass) error {
	c := rc.compMap[nodeId]
	if c == nil {
		return &UnknownNodeError{Id: nodeId}
	}
	w, err := rc.registry.Get(nodeId)
	if err != nil {
		return err
	}
	resolved, err := rc.resolveElem(&nextElem)
	if err != nil {
		return err
	}
	if err := rc.lib.ApplyOptions(w, resolved.Options); err != nil {
		return fmt.Errorf("error applying %q options: %w", nextElem.Tag, err)
	}
	c.handlers = resolved.Handlers
	c.elem = nextElem
	pass.countUpdate()
	pass.RequestRedraw()
	return rc.reconcileChildren(c, w, pass)
}

// Unmount tears down a node and its subtree. It never requests a redraw;
// the caller (an update pass that dropped the child, or a top-level
// teardown) owns that decision.
func (rc *Reconciler) Unmount(nodeId string) error {
	return rc.unmountNode(nodeId, nil)
}

// unmountNode removes bottom-up: children first, then event handlers, then
// the widget detaches from its parent, then the bookkeeping drops. Child
// errors do not stop the teardown; the first one is reported.
func (rc *Reconciler) unmountNode(nodeId string, pass *Pass) error {
	c := rc.compMap[nodeId]
	if c == nil {
		return &UnknownNodeError{Id: nodeId}
	}
	var firstErr error
	for _, child := range c.children {
		if err := rc.unmountNode(child.Id, pass); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.children = nil
	w, err := rc.registry.Get(nodeId)
	if err != nil {
		delete(rc.compMap, nodeId)
		return err
	}
	parentWidget, parentErr := rc.registry.GetParent(nodeId)
	rc.lib.OffAllEvents(w)
	if parentErr == nil {
		rc.lib.Detach(parentWidget, w)
	}
	rc.registry.Drop(nodeId)
	delete(rc.compMap, nodeId)
	if pass != nil {
		pass.countUnmount()
	}
	if refFn := refProp(&c.elem); refFn != nil {
		invokeRef(refFn, nil)
	}
	return firstErr
}

// GetPublicHandle returns the live widget handle for a node, for reading
// widget state (selection, focus). Mutation must flow through elements.
func (rc *Reconciler) GetPublicHandle(nodeId string) (twidget.Widget, error) {
	return rc.registry.Get(nodeId)
}

// MountTree mounts elem on the root surface as a single pass.
func (rc *Reconciler) MountTree(elem vdom.Elem) (string, error) {
	if rc.rootId != "" {
		return "", fmt.Errorf("root already mounted")
	}
	pass := rc.coord.BeginPass()
	defer pass.Commit()
	nodeId, err := rc.Mount(elem, rc.registry.RootSurface(), pass)
	if nodeId != "" {
		rc.rootId = nodeId
	}
	if err != nil {
		pass.MarkAborted()
	}
	return nodeId, err
}

// RenderTree is mount-or-update: it mounts elem when nothing is mounted,
// updates the existing root in place when tag and key still match, and
// otherwise swaps the whole tree (unmount plus fresh mount) in one pass.
func (rc *Reconciler) RenderTree(elem vdom.Elem) (string, error) {
	if rc.rootId == "" {
		return rc.MountTree(elem)
	}
	c := rc.compMap[rc.rootId]
	if c == nil {
		return "", &UnknownNodeError{Id: rc.rootId}
	}
	pass := rc.coord.BeginPass()
	defer pass.Commit()
	if c.elem.Tag == elem.Tag && c.elem.Key() == elem.Key() {
		err := rc.Update(rc.rootId, c.elem, elem, pass)
		if err != nil {
			pass.MarkAborted()
		}
		return rc.rootId, err
	}
	oldId := rc.rootId
	rc.rootId = ""
	if err := rc.unmountNode(oldId, pass); err != nil {
		pass.MarkAborted()
		return "", err
	}
	nodeId, err := rc.Mount(elem, rc.registry.RootSurface(), pass)
	if nodeId != "" {
		rc.rootId = nodeId
	}
	if err != nil {
		pass.MarkAborted()
	}
	return nodeId, err
}

// UnmountTree tears the whole tree down. Unmounts themselves never flag a
// redraw, but the top-level teardown does, so the cleared surface still
// repaints.
func (rc *Reconciler) UnmountTree() error {
	if rc.rootId == "" {
		return nil
	}
	pass := rc.coord.BeginPass()
	defer pass.Commit()
	nodeId := rc.rootId
	rc.rootId = ""
	err := rc.unmountNode(nodeId, pass)
	pass.RequestRedraw()
	return err
}

// CurrentElem returns a handler-free deep copy of the root element, or nil
// when nothing is mounted. This is the devtools wire form of the tree.
func (rc *Reconciler) CurrentElem() *vdom.Elem {
	if rc.rootId == "" {
		return nil
	}
	c := rc.compMap[rc.rootId]
	if c == nil {
		return nil
	}
	elem := c.elem
	return vdom.StripFuncProps(&elem)
}

func (rc *Reconciler) reconcileChildren(c *comp, w twidget.Widget, pass *Pass) error {
	nextChildren := vdom.Flatten(c.elem.Children)
	glue := &childGlue{rc: rc, parentWidget: w, pass: pass, lastIndex: -1}
	if len(c.children) > 0 {
		glue.prevIndex = make(map[string]int, len(c.children))
		for idx := range c.children {
			glue.prevIndex[c.children[idx].Id] = idx
		}
	}
	newChildren, err := childdiff.Reconcile(c.children, nextChildren, glue)
	c.children = newChildren
	return err
}

// childGlue adapts the differ's per-slot decisions onto reconciler calls
// and realizes sibling ordering. Attach only appends, so the children that
// can stay put are the leading run of kept children whose old indices keep
// increasing; the first out-of-order or newly mounted child ends that run,
// and every child after it is re-appended (kept ones detach first) in
// new-list order, which lands the widget list in exactly the new order.
type childGlue struct {
	rc           *Reconciler
	parentWidget twidget.Widget
	pass         *Pass
	prevIndex    map[string]int
	lastIndex    int
	appending    bool
}

func (g *childGlue) MountChild(elem vdom.Elem) (string, error) {
	nodeId, err := g.rc.Mount(elem, g.parentWidget, g.pass)
	g.appending = true
	return nodeId, err
}

func (g *childGlue) UpdateChild(nodeId string, prevElem vdom.Elem, nextElem vdom.Elem) error {
	g.place(nodeId)
	return g.rc.Update(nodeId, prevElem, nextElem, g.pass)
}

func (g *childGlue) UnmountChild(nodeId string) error {
	return g.rc.unmountNode(nodeId, g.pass)
}

// place moves a kept child to the back when its old position cannot be
// preserved. A move is a detach plus re-attach of the same widget; the
// node is never unmounted and its registry entry does not change.
func (g *childGlue) place(nodeId string) {
	if !g.appending {
		oldIdx, ok := g.prevIndex[nodeId]
		if ok && oldIdx > g.lastIndex {
			g.lastIndex = oldIdx
			return
		}
		g.appending = true
	}
	w, err := g.rc.registry.Get(nodeId)
	if err != nil {
		return
	}
	g.rc.lib.Detach(g.parentWidget, w)
	g.rc.lib.Attach(g.parentWidget, w)
	g.pass.RequestRedraw()
}

// makeDispatcher installs the one dispatcher a node ever gets. It reads
// the comp's current handler table on every event, so updates that swap
// handlers take effect without touching the widget's event registration.
func (rc *Reconciler) makeDispatcher(c *comp) twidget.Dispatcher {
	return func(event twidget.Event) {
		handler := c.handlers[event.Type]
		if handler == nil {
			return
		}
		defer func() {
			panichandler.PanicHandler("engine:dispatch:"+string(event.Type), recover())
		}()
		handler(event)
	}
}

func refProp(elem *vdom.Elem) func(twidget.Widget) {
	refFn, ok := elem.Props[attr.RefPropKey].(func(twidget.Widget))
	if !ok {
		return nil
	}
	return refFn
}

func invokeRef(refFn func(twidget.Widget), w twidget.Widget) {
	defer func() {
		panichandler.PanicHandler("engine:ref", recover())
	}()
	refFn(w)
}
