// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package twidget

const (
	KindBox   = "box"
	KindText  = "text"
	KindList  = "list"
	KindGauge = "gauge"
)

// geometry values accept "12" (cells), "50%" (of parent content box), or ""
// (default: full size at origin), matching the declarative layout style of
// classic terminal widget libraries.

type StyleOptions struct {
	Fg      string `json:"fg,omitempty"`
	Bg      string `json:"bg,omitempty"`
	Bold    bool   `json:"bold,omitempty"`
	Reverse bool   `json:"reverse,omitempty"`
}

type Options interface {
	WidgetKind() string
}

type BoxOptions struct {
	Top    string       `json:"top,omitempty"`
	Left   string       `json:"left,omitempty"`
	Width  string       `json:"width,omitempty"`
	Height string       `json:"height,omitempty"`
	Border bool         `json:"border,omitempty"`
	Title  string       `json:"title,omitempty"`
	Style  StyleOptions `json:"style,omitempty"`
}

func (BoxOptions) WidgetKind() string { return KindBox }

type TextOptions struct {
	Top     string       `json:"top,omitempty"`
	Left    string       `json:"left,omitempty"`
	Width   string       `json:"width,omitempty"`
	Height  string       `json:"height,omitempty"`
	Content string       `json:"content,omitempty"`
	Wrap    bool         `json:"wrap,omitempty"`
	Align   string       `json:"align,omitempty"`
	Style   StyleOptions `json:"style,omitempty"`
}

func (TextOptions) WidgetKind() string { return KindText }

type ListOptions struct {
	Top    string   `json:"top,omitempty"`
	Left   string   `json:"left,omitempty"`
	Width  string   `json:"width,omitempty"`
	Height string   `json:"height,omitempty"`
	Items  []string `json:"items,omitempty"`
	// nil leaves the current selection alone; list selection is widget
	// state, not something every update should clobber.
	Selected      *int         `json:"selected,omitempty"`
	Border        bool         `json:"border,omitempty"`
	Title         string       `json:"title,omitempty"`
	Style         StyleOptions `json:"style,omitempty"`
	SelectedStyle StyleOptions `json:"selectedstyle,omitempty"`
}

func (ListOptions) WidgetKind() string { return KindList }

type GaugeOptions struct {
	Top     string       `json:"top,omitempty"`
	Left    string       `json:"left,omitempty"`
	Width   string       `json:"width,omitempty"`
	Height  string       `json:"height,omitempty"`
	Percent int          `json:"percent,omitempty"`
	Label   string       `json:"label,omitempty"`
	Style   StyleOptions `json:"style,omitempty"`
}

func (GaugeOptions) WidgetKind() string { return KindGauge }

func OptionsForKind(kind string) (Options, bool) {
	switch kind {
	case KindBox:
		return &BoxOptions{}, true
	case KindText:
		return &TextOptions{}, true
	case KindList:
		return &ListOptions{}, true
	case KindGauge:
		return &GaugeOptions{}, true
	}
	return nil, false
}

// KnownKind reports whether kind names a widget this library provides.
func KnownKind(kind string) bool {
	_, ok := OptionsForKind(kind)
	return ok
}
