// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package layoutstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wavetermdev/riptide/pkg/vdom"
)

func initDb(t *testing.T) {
	t.Logf("initializing db for %q", t.Name())
	useTestingDb = true
	err := InitLayoutstore()
	if err != nil {
		t.Fatalf("error initializing layoutstore: %v", err)
	}
}

func cleanupDb(t *testing.T) {
	t.Logf("cleaning up db for %q", t.Name())
	CloseLayoutstore()
	useTestingDb = false
}

func testCtx(t *testing.T) context.Context {
	ctx, cancelFn := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancelFn)
	return ctx
}

func sampleTree(title string) *vdom.Elem {
	return vdom.E("box",
		vdom.P("title", title),
		vdom.E("text", "hello"),
		vdom.E("gauge", vdom.P("percent", 40)),
	)
}

func TestSaveAndGetSnapshot(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	meta, err := SaveSnapshot(ctx, "main", sampleTree("first"))
	if err != nil {
		t.Fatalf("error saving snapshot: %v", err)
	}
	if meta.Name != "main" || meta.Version != 1 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if meta.SnapshotId == "" {
		t.Fatalf("snapshot id not set")
	}
	elem, err := GetSnapshot(ctx, "main")
	if err != nil {
		t.Fatalf("error getting snapshot: %v", err)
	}
	if elem.Tag != "box" {
		t.Fatalf("tag mismatch: %q", elem.Tag)
	}
	if elem.Props["title"] != "first" {
		t.Fatalf("title mismatch: %v", elem.Props["title"])
	}
	if len(elem.Children) != 2 {
		t.Fatalf("children mismatch: %d", len(elem.Children))
	}
}

func TestSaveBumpsVersion(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	meta1, err := SaveSnapshot(ctx, "main", sampleTree("first"))
	if err != nil {
		t.Fatalf("error saving snapshot: %v", err)
	}
	meta2, err := SaveSnapshot(ctx, "main", sampleTree("second"))
	if err != nil {
		t.Fatalf("error re-saving snapshot: %v", err)
	}
	if meta2.Version != meta1.Version+1 {
		t.Fatalf("version not bumped: %d -> %d", meta1.Version, meta2.Version)
	}
	if meta2.SnapshotId != meta1.SnapshotId {
		t.Fatalf("snapshot id changed on update")
	}
	elem, err := GetSnapshot(ctx, "main")
	if err != nil {
		t.Fatalf("error getting snapshot: %v", err)
	}
	if elem.Props["title"] != "second" {
		t.Fatalf("content not replaced: %v", elem.Props["title"])
	}
}

func TestListSnapshots(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		if _, err := SaveSnapshot(ctx, name, sampleTree(name)); err != nil {
			t.Fatalf("error saving %q: %v", name, err)
		}
	}
	metas, err := ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("error listing snapshots: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(metas))
	}
	// sorted by name
	if metas[0].Name != "alpha" || metas[1].Name != "mid" || metas[2].Name != "zeta" {
		t.Fatalf("wrong order: %v %v %v", metas[0].Name, metas[1].Name, metas[2].Name)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	if _, err := SaveSnapshot(ctx, "doomed", sampleTree("x")); err != nil {
		t.Fatalf("error saving snapshot: %v", err)
	}
	if err := DeleteSnapshot(ctx, "doomed"); err != nil {
		t.Fatalf("error deleting snapshot: %v", err)
	}
	_, err := GetSnapshot(ctx, "doomed")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	err = DeleteSnapshot(ctx, "doomed")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound on double delete, got %v", err)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	_, err := GetSnapshot(ctx, "missing")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	_, err = GetSnapshotMeta(ctx, "missing")
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound from meta, got %v", err)
	}
}

func TestHandlersStrippedOnSave(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	elem := vdom.E("box",
		vdom.P("title", "with handler"),
		vdom.P("onPress", func(any) {}),
	)
	if _, err := SaveSnapshot(ctx, "handlers", elem); err != nil {
		t.Fatalf("error saving snapshot: %v", err)
	}
	got, err := GetSnapshot(ctx, "handlers")
	if err != nil {
		t.Fatalf("error getting snapshot: %v", err)
	}
	if _, ok := got.Props["onPress"]; ok {
		t.Fatalf("handler prop should not round-trip")
	}
	if got.Props["title"] != "with handler" {
		t.Fatalf("plain prop lost: %v", got.Props)
	}
}

func TestSaveValidation(t *testing.T) {
	initDb(t)
	defer cleanupDb(t)
	ctx := testCtx(t)

	if _, err := SaveSnapshot(ctx, "", sampleTree("x")); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if _, err := SaveSnapshot(ctx, "ok", nil); err == nil {
		t.Fatalf("expected error for nil elem")
	}
}
