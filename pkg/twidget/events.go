// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

type EventType string

const (
	EventKey    EventType = "key"
	EventPress  EventType = "press"
	EventSelect EventType = "select"
	EventFocus  EventType = "focus"
	EventBlur   EventType = "blur"
	EventResize EventType = "resize"
)

// Event is delivered to the dispatcher registered via OnAnyEvent.  Key is set
// for key events, Index/Item for list select/press events.
type Event struct {
	Type     EventType `json:"type"`
	WidgetId string    `json:"widgetid"`
	Key      string    `json:"key,omitempty"`
	Index    int       `json:"index,omitempty"`
	Item     string    `json:"item,omitempty"`
}

type Dispatcher func(event Event)

var allowedEventsMap = map[string][]EventType{
	KindBox:   {EventKey, EventFocus, EventBlur, EventResize},
	KindText:  {EventKey, EventFocus, EventBlur},
	KindList:  {EventKey, EventPress, EventSelect, EventFocus, EventBlur},
	KindGauge: {},
}

// AllowedEvents returns the event types a widget kind can emit.  handler
// props for anything else are ignored by the attribute resolver.
func AllowedEvents(kind string) []EventType {
	return allowedEventsMap[kind]
}
