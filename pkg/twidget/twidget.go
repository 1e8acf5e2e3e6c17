// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

import (
	"fmt"

	"github.com/google/uuid"
)

// Widget is an opaque handle to one live terminal widget.  widgets hold
// mutable display state (options, selection, scroll) and live in a tree under
// the screen's root surface.  the reconciler owns tree structure through
// Library; widgets never reparent themselves.
type Widget interface {
	WidgetId() string
	Kind() string
	base() *widgetBase
}

type widgetBase struct {
	id         string
	kind       string
	parent     Widget
	children   []Widget
	dispatcher Dispatcher
	focusable  bool
}

func (b *widgetBase) WidgetId() string {
	return b.id
}

func (b *widgetBase) Kind() string {
	return b.kind
}

func (b *widgetBase) fireEvent(event Event) {
	if b.dispatcher == nil {
		return
	}
	event.WidgetId = b.id
	b.dispatcher(event)
}

type BoxWidget struct {
	widgetBase
	Opts BoxOptions
}

func (w *BoxWidget) base() *widgetBase { return &w.widgetBase }

type TextWidget struct {
	widgetBase
	Opts TextOptions
}

func (w *TextWidget) base() *widgetBase { return &w.widgetBase }

type ListWidget struct {
	widgetBase
	Opts ListOptions

	// selection and scroll are widget state; they survive option updates
	selIdx    int
	scrollTop int
}

func (w *ListWidget) base() *widgetBase { return &w.widgetBase }

func (w *ListWidget) SelectedIndex() int {
	return w.selIdx
}

func (w *ListWidget) SelectedItem() string {
	if w.selIdx < 0 || w.selIdx >= len(w.Opts.Items) {
		return ""
	}
	return w.Opts.Items[w.selIdx]
}

func (w *ListWidget) clampSelection() {
	if len(w.Opts.Items) == 0 {
		w.selIdx = 0
		w.scrollTop = 0
		return
	}
	if w.selIdx >= len(w.Opts.Items) {
		w.selIdx = len(w.Opts.Items) - 1
	}
	if w.selIdx < 0 {
		w.selIdx = 0
	}
}

func (w *ListWidget) moveSelection(delta int) bool {
	if len(w.Opts.Items) == 0 {
		return false
	}
	newIdx := w.selIdx + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(w.Opts.Items) {
		newIdx = len(w.Opts.Items) - 1
	}
	if newIdx == w.selIdx {
		return false
	}
	w.selIdx = newIdx
	return true
}

// rootWidget is the screen's root display surface.  it is never created
// through the Library and has no options of its own.
type rootWidget struct {
	widgetBase
}

func (w *rootWidget) base() *widgetBase { return &w.widgetBase }

const rootKind = "#root"

func makeRootWidget() *rootWidget {
	return &rootWidget{widgetBase{id: uuid.New().String(), kind: rootKind}}
}

// Library implements the widget operations the reconciler performs.  all
// operations are synchronous; redraw is the only deferred effect.
type Library struct {
	screen *Screen
}

func MakeLibrary(screen *Screen) *Library {
	return &Library{screen: screen}
}

func (lib *Library) Screen() *Screen {
	return lib.screen
}

func (lib *Library) CreateWidget(kind string, opts Options) (Widget, error) {
	if opts != nil && opts.WidgetKind() != kind {
		return nil, fmt.Errorf("options kind %q does not match widget kind %q", opts.WidgetKind(), kind)
	}
	id := uuid.New().String()
	var w Widget
	switch kind {
	case KindBox:
		w = &BoxWidget{widgetBase: widgetBase{id: id, kind: kind}}
	case KindText:
		w = &TextWidget{widgetBase: widgetBase{id: id, kind: kind}}
	case KindList:
		lw := &ListWidget{widgetBase: widgetBase{id: id, kind: kind}}
		lw.focusable = true
		w = lw
	case KindGauge:
		w = &GaugeWidget{widgetBase: widgetBase{id: id, kind: kind}}
	default:
		return nil, fmt.Errorf("unknown widget kind %q", kind)
	}
	if opts != nil {
		if err := lib.ApplyOptions(w, opts); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (lib *Library) Attach(parent Widget, child Widget) {
	pb := parent.base()
	pb.children = append(pb.children, child)
	child.base().parent = parent
}

func (lib *Library) Detach(parent Widget, child Widget) {
	pb := parent.base()
	for idx, cur := range pb.children {
		if cur.WidgetId() == child.WidgetId() {
			pb.children = append(pb.children[:idx], pb.children[idx+1:]...)
			break
		}
	}
	child.base().parent = nil
	if lib.screen != nil && lib.screen.focusId == child.WidgetId() {
		lib.screen.focusId = ""
	}
}

func (lib *Library) ApplyOptions(w Widget, opts Options) error {
	if opts == nil {
		return nil
	}
	if opts.WidgetKind() != w.Kind() {
		return fmt.Errorf("options kind %q does not match widget kind %q", opts.WidgetKind(), w.Kind())
	}
	switch wt := w.(type) {
	case *BoxWidget:
		bopts, ok := opts.(*BoxOptions)
		if !ok {
			return fmt.Errorf("box options have wrong type %T", opts)
		}
		wt.Opts = *bopts
	case *TextWidget:
		topts, ok := opts.(*TextOptions)
		if !ok {
			return fmt.Errorf("text options have wrong type %T", opts)
		}
		wt.Opts = *topts
	case *ListWidget:
		lopts, ok := opts.(*ListOptions)
		if !ok {
			return fmt.Errorf("list options have wrong type %T", opts)
		}
		wt.Opts = *lopts
		if lopts.Selected != nil {
			wt.selIdx = *lopts.Selected
		}
		wt.clampSelection()
	case *GaugeWidget:
		gopts, ok := opts.(*GaugeOptions)
		if !ok {
			return fmt.Errorf("gauge options have wrong type %T", opts)
		}
		wt.Opts = *gopts
		wt.clampPercent()
	default:
		return fmt.Errorf("cannot apply options to widget kind %q", w.Kind())
	}
	return nil
}

func (lib *Library) OnAnyEvent(w Widget, fn Dispatcher) {
	w.base().dispatcher = fn
}

func (lib *Library) OffAllEvents(w Widget) {
	w.base().dispatcher = nil
}

func (lib *Library) RequestDebouncedRedraw() {
	if lib.screen == nil {
		return
	}
	lib.screen.requestRedraw()
}

type GaugeWidget struct {
	widgetBase
	Opts GaugeOptions
}

func (w *GaugeWidget) base() *widgetBase { return &w.widgetBase }

func (w *GaugeWidget) clampPercent() {
	if w.Opts.Percent < 0 {
		w.Opts.Percent = 0
	}
	if w.Opts.Percent > 100 {
		w.Opts.Percent = 100
	}
}

// Children returns the ordered child handles (display order).
func Children(w Widget) []Widget {
	b := w.base()
	rtn := make([]Widget, len(b.children))
	copy(rtn, b.children)
	return rtn
}

// Parent returns the widget's parent handle, or nil for the root surface.
func Parent(w Widget) Widget {
	return w.base().parent
}
