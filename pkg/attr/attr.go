// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package attr turns the raw prop map of a virtual element into the typed
// inputs the reconciler needs: a per-kind options struct for the widget
// library and a table of event handlers. Resolution is pure, it never
// mutates the prop map and has no side effects, so the unknown-kind check
// here runs before any widget gets created.
package attr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wavetermdev/riptide/pkg/twidget"
	"github.com/wavetermdev/riptide/pkg/util/utilfn"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

// ErrUnknownKind reports an element tag that names no widget kind.
var ErrUnknownKind = errors.New("unknown widget kind")

// RefPropKey holds a callback that receives the mounted widget handle.  The
// reconciler consumes it, so it is never part of the widget options.
const RefPropKey = "ref"

type HandlerFunc func(event twidget.Event)

// HandlerTable maps an event type to the handler resolved from the
// element's on<Event> props.
type HandlerTable map[twidget.EventType]HandlerFunc

// Resolved is the output of Resolve: decoded widget options plus the event
// handlers declared in the props.
type Resolved struct {
	Options  twidget.Options
	Handlers HandlerTable
}

var eventTypeSet = map[twidget.EventType]bool{
	twidget.EventKey:    true,
	twidget.EventPress:  true,
	twidget.EventSelect: true,
	twidget.EventFocus:  true,
	twidget.EventBlur:   true,
	twidget.EventResize: true,
}

// handlerEventType reports whether propName follows the on<Event>
// convention for a real event type ("onPress", "onselect", ...).  Prop
// names that merely start with "on" stay ordinary option props.
func handlerEventType(propName string) (twidget.EventType, bool) {
	if !strings.HasPrefix(propName, "on") || len(propName) <= 2 {
		return "", false
	}
	eventType := twidget.EventType(strings.ToLower(propName[2:]))
	if !eventTypeSet[eventType] {
		return "", false
	}
	return eventType, true
}

func adaptHandler(propVal any) HandlerFunc {
	switch fn := propVal.(type) {
	case func(twidget.Event):
		return fn
	case HandlerFunc:
		return fn
	case twidget.Dispatcher:
		return HandlerFunc(fn)
	case func():
		return func(twidget.Event) { fn() }
	case func(any):
		return func(event twidget.Event) { fn(event) }
	default:
		return nil
	}
}

// Resolve validates kind, splits props into handlers and plain options, and
// decodes the options into the kind's option struct. Handler props for
// events the kind cannot emit, and handler props whose value is not a
// callable of a supported shape, are dropped. The children, key, and ref
// props never reach the options decode.
func Resolve(kind string, props map[string]any) (*Resolved, error) {
	opts, ok := twidget.OptionsForKind(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	allowed := make(map[twidget.EventType]bool)
	for _, eventType := range twidget.AllowedEvents(kind) {
		allowed[eventType] = true
	}
	handlers := make(HandlerTable)
	plain := make(map[string]any)
	for propName, propVal := range props {
		if propName == vdom.ChildrenPropKey || propName == vdom.KeyPropKey || propName == RefPropKey {
			continue
		}
		if eventType, isHandler := handlerEventType(propName); isHandler {
			if !allowed[eventType] {
				continue
			}
			if fn := adaptHandler(propVal); fn != nil {
				handlers[eventType] = fn
			}
			continue
		}
		plain[propName] = propVal
	}
	if err := utilfn.DoMapStructureWeak(opts, plain); err != nil {
		return nil, fmt.Errorf("error decoding %s options: %w", kind, err)
	}
	return &Resolved{Options: opts, Handlers: handlers}, nil
}
