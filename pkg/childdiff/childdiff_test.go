// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package childdiff

import (
	"fmt"
	"strings"
	"testing"

	"github.com/wavetermdev/riptide/pkg/vdom"
)

type scriptDelegate struct {
	nextId int
	ops    []string
	failOp string
}

func elemDesc(elem vdom.Elem) string {
	if key := elem.Key(); key != "" {
		return elem.Tag + "/" + key
	}
	return elem.Tag
}

func (d *scriptDelegate) MountChild(elem vdom.Elem) (string, error) {
	op := "mount:" + elemDesc(elem)
	d.ops = append(d.ops, op)
	if op == d.failOp {
		return "", fmt.Errorf("scripted failure on %s", op)
	}
	d.nextId++
	return fmt.Sprintf("n%d", d.nextId), nil
}

func (d *scriptDelegate) UpdateChild(id string, prev vdom.Elem, next vdom.Elem) error {
	op := "update:" + id
	d.ops = append(d.ops, op)
	if op == d.failOp {
		return fmt.Errorf("scripted failure on %s", op)
	}
	return nil
}

func (d *scriptDelegate) UnmountChild(id string) error {
	op := "unmount:" + id
	d.ops = append(d.ops, op)
	if op == d.failOp {
		return fmt.Errorf("scripted failure on %s", op)
	}
	return nil
}

func checkOps(t *testing.T, d *scriptDelegate, expected string) {
	t.Helper()
	got := strings.Join(d.ops, " ")
	if got != expected {
		t.Fatalf("bad op sequence, got %q, expected %q", got, expected)
	}
}

func checkIds(t *testing.T, children []Child, expected string) {
	t.Helper()
	ids := make([]string, len(children))
	for idx, child := range children {
		ids[idx] = child.Id
	}
	got := strings.Join(ids, " ")
	if got != expected {
		t.Fatalf("bad child ids, got %q, expected %q", got, expected)
	}
}

func keyedElem(tag string, key string) vdom.Elem {
	return *vdom.E(tag, vdom.P(vdom.KeyPropKey, key))
}

func TestInitialMount(t *testing.T) {
	d := &scriptDelegate{}
	next := []vdom.Elem{*vdom.E("box"), *vdom.E("text"), *vdom.E("gauge")}
	children, err := Reconcile(nil, next, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkOps(t, d, "mount:box mount:text mount:gauge")
	checkIds(t, children, "n1 n2 n3")
	if children[1].Elem.Tag != "text" {
		t.Fatalf("child 1 elem not recorded, got tag %q", children[1].Elem.Tag)
	}
}

func TestUnkeyedPositionMatch(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{*vdom.E("box"), *vdom.E("text")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	next := []vdom.Elem{*vdom.E("box"), *vdom.E("gauge")}
	children, err := Reconcile(prev, next, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	// the dropped text child unmounts before anything else happens
	checkOps(t, d, "unmount:n2 update:n1 mount:gauge")
	checkIds(t, children, "n1 n3")
}

func TestKeyedReorder(t *testing.T) {
	d := &scriptDelegate{}
	initial := []vdom.Elem{keyedElem("text", "a"), keyedElem("text", "b"), keyedElem("text", "c")}
	prev, err := Reconcile(nil, initial, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	next := []vdom.Elem{keyedElem("text", "c"), keyedElem("text", "a"), keyedElem("text", "b")}
	children, err := Reconcile(prev, next, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkOps(t, d, "update:n3 update:n1 update:n2")
	checkIds(t, children, "n3 n1 n2")
}

func TestKeyMatchBeatsPosition(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{keyedElem("text", "a"), keyedElem("text", "b")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	next := []vdom.Elem{keyedElem("text", "b"), keyedElem("text", "a")}
	children, err := Reconcile(prev, next, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkIds(t, children, "n2 n1")
	checkOps(t, d, "update:n2 update:n1")
}

func TestKeyChangeRemounts(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{keyedElem("text", "a")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	children, err := Reconcile(prev, []vdom.Elem{keyedElem("text", "b")}, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkOps(t, d, "unmount:n1 mount:text/b")
	checkIds(t, children, "n2")
}

func TestTagChangeRemounts(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{*vdom.E("box")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	children, err := Reconcile(prev, []vdom.Elem{*vdom.E("text")}, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkOps(t, d, "unmount:n1 mount:text")
	checkIds(t, children, "n2")
}

func TestDuplicateKeyMountsSecond(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{keyedElem("text", "a")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	next := []vdom.Elem{keyedElem("text", "a"), keyedElem("text", "a")}
	children, err := Reconcile(prev, next, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	checkOps(t, d, "update:n1 mount:text/a")
	checkIds(t, children, "n1 n2")
}

func TestEmptyNextUnmountsAll(t *testing.T) {
	d := &scriptDelegate{}
	prev, err := Reconcile(nil, []vdom.Elem{*vdom.E("box"), *vdom.E("text")}, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	children, err := Reconcile(prev, nil, d)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(children) != 0 {
		t.Fatalf("expected no children, got %d", len(children))
	}
	checkOps(t, d, "unmount:n1 unmount:n2")
}

func TestMountErrorKeepsLiveChildren(t *testing.T) {
	d := &scriptDelegate{}
	initial := []vdom.Elem{keyedElem("text", "a"), keyedElem("text", "b")}
	prev, err := Reconcile(nil, initial, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	d.failOp = "mount:gauge"
	next := []vdom.Elem{keyedElem("text", "a"), *vdom.E("gauge"), keyedElem("text", "b")}
	children, err := Reconcile(prev, next, d)
	if err == nil {
		t.Fatalf("expected reconcile error")
	}
	// a was updated, the mount failed, b was matched but never reached;
	// both live children stay tracked
	checkIds(t, children, "n1 n2")
	if children[1].Elem.Key() != "b" {
		t.Fatalf("unprocessed child should keep its prev elem, got key %q", children[1].Elem.Key())
	}
}

func TestUnmountErrorKeepsRemaining(t *testing.T) {
	d := &scriptDelegate{}
	initial := []vdom.Elem{keyedElem("text", "a"), keyedElem("text", "b"), keyedElem("text", "c")}
	prev, err := Reconcile(nil, initial, d)
	if err != nil {
		t.Fatalf("initial reconcile failed: %v", err)
	}
	d.ops = nil
	d.failOp = "unmount:n1"
	next := []vdom.Elem{keyedElem("text", "c")}
	children, err := Reconcile(prev, next, d)
	if err == nil {
		t.Fatalf("expected reconcile error")
	}
	// a failed to unmount (dropped from tracking), b was never reached,
	// c was matched; b and c remain live
	checkIds(t, children, "n2 n3")
}
