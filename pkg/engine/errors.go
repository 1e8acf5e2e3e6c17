// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownNode and ErrUnknownWidgetType are the sentinels behind the
// typed errors below, so callers can branch with errors.Is without caring
// which node or kind was involved.
var (
	ErrUnknownNode       = errors.New("unknown node")
	ErrUnknownWidgetType = errors.New("unknown widget type")
)

// UnknownNodeError reports an operation against a node id that is not
// mounted (never was, or already unmounted).
type UnknownNodeError struct {
	Id string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.Id)
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}

// UnknownWidgetTypeError reports an element tag that names no widget kind.
// It is raised before any widget is created or attached for that element.
type UnknownWidgetTypeError struct {
	Kind string
}

func (e *UnknownWidgetTypeError) Error() string {
	return fmt.Sprintf("unknown widget type %q", e.Kind)
}

func (e *UnknownWidgetTypeError) Unwrap() error {
	return ErrUnknownWidgetType
}
