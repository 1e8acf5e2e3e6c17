// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package childdiff reconciles the ordered child list of a rendered node
// against the child elements produced by a new render. It decides which
// children are kept, which are unmounted, and which are newly mounted, and
// reports those decisions through a Delegate. It never touches widgets
// itself, so it can be tested with a scripted delegate.
package childdiff

import (
	"github.com/wavetermdev/riptide/pkg/vdom"
)

// Child is one rendered child slot: the node id assigned at mount time and
// the element the slot was last rendered from.
type Child struct {
	Id   string
	Elem vdom.Elem
}

// Delegate receives the structural decisions made by Reconcile. MountChild
// returns the node id for the new child; on a partial mount it may return
// both a non-empty id and an error, and the id stays tracked. UpdateChild
// is only called with a next element whose tag matches prev (matching never
// pairs across tags).
type Delegate interface {
	MountChild(elem vdom.Elem) (string, error)
	UpdateChild(id string, prev vdom.Elem, next vdom.Elem) error
	UnmountChild(id string) error
}

// childKey identifies a child slot for matching. Keyed elements match on
// Tag+Key, unkeyed elements match on Tag+position.
type childKey struct {
	Tag string
	Idx int
	Key string
}

func makeChildKey(elem *vdom.Elem, idx int) childKey {
	if key := elem.Key(); key != "" {
		return childKey{Tag: elem.Tag, Key: key}
	}
	return childKey{Tag: elem.Tag, Idx: idx}
}

// Reconcile matches prev children against next elements, unmounts the
// dropped children first (in their old order), and then walks next in order
// issuing updates for matched children and mounts for unmatched ones. It
// returns the new child list. The delegate sees its calls in exactly that
// order, so a parent that realizes ordering can track placement as the
// calls arrive.
//
// On a delegate error Reconcile stops and returns the children that are
// still mounted at that point (best effort, nothing is rolled back) along
// with the error.
func Reconcile(prev []Child, next []vdom.Elem, d Delegate) ([]Child, error) {
	prevMap := make(map[childKey]*Child)
	for idx := range prev {
		child := &prev[idx]
		prevMap[makeChildKey(&child.Elem, idx)] = child
	}
	used := make(map[string]bool)
	matches := make([]*Child, len(next))
	for idx := range next {
		prevChild := prevMap[makeChildKey(&next[idx], idx)]
		if prevChild == nil || used[prevChild.Id] {
			// no match, or a duplicate key already claimed this child
			continue
		}
		matches[idx] = prevChild
		used[prevChild.Id] = true
	}
	for idx := range prev {
		child := &prev[idx]
		if used[child.Id] {
			continue
		}
		if err := d.UnmountChild(child.Id); err != nil {
			return liveAfterUnmountError(prev, used, idx), err
		}
	}
	newChildren := make([]Child, 0, len(next))
	for idx := range next {
		elem := next[idx]
		if match := matches[idx]; match != nil {
			if err := d.UpdateChild(match.Id, match.Elem, elem); err != nil {
				// the widget still exists with its old options
				return appendMatched(newChildren, matches[idx:]), err
			}
			newChildren = append(newChildren, Child{Id: match.Id, Elem: elem})
			continue
		}
		id, err := d.MountChild(elem)
		if err != nil {
			if id != "" {
				newChildren = append(newChildren, Child{Id: id, Elem: elem})
			}
			return appendMatched(newChildren, matches[idx+1:]), err
		}
		newChildren = append(newChildren, Child{Id: id, Elem: elem})
	}
	return newChildren, nil
}

// liveAfterUnmountError reports the children still mounted when the unmount
// at prev[failIdx] failed: every matched child, plus the unmatched children
// that had not been reached yet.
func liveAfterUnmountError(prev []Child, used map[string]bool, failIdx int) []Child {
	live := make([]Child, 0, len(prev))
	for idx := range prev {
		if used[prev[idx].Id] || idx > failIdx {
			live = append(live, prev[idx])
		}
	}
	return live
}

func appendMatched(children []Child, matches []*Child) []Child {
	for _, match := range matches {
		if match != nil {
			children = append(children, *match)
		}
	}
	return children
}
