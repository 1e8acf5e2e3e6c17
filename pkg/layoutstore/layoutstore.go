// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package layoutstore persists named element-tree snapshots to a local
// sqlite db. Handler props never survive the trip (they are stripped on
// marshal), so a restored tree renders but does not handle events until
// the caller rebinds them.
package layoutstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wavetermdev/riptide/pkg/vdom"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotMeta struct {
	SnapshotId string `json:"snapshotid"`
	Name       string `json:"name"`
	Version    int    `json:"version"`
	CreatedTs  int64  `json:"createdts"`
	ModifiedTs int64  `json:"modifiedts"`
}

type snapshotRow struct {
	SnapshotId string
	Name       string
	Version    int
	Content    string
	CreatedTs  int64
	ModifiedTs int64
}

func (r *snapshotRow) meta() *SnapshotMeta {
	return &SnapshotMeta{
		SnapshotId: r.SnapshotId,
		Name:       r.Name,
		Version:    r.Version,
		CreatedTs:  r.CreatedTs,
		ModifiedTs: r.ModifiedTs,
	}
}

// SaveSnapshot stores elem under name, replacing any existing snapshot
// with that name and bumping its version.
func SaveSnapshot(ctx context.Context, name string, elem *vdom.Elem) (*SnapshotMeta, error) {
	if name == "" {
		return nil, fmt.Errorf("snapshot name cannot be empty")
	}
	if elem == nil {
		return nil, fmt.Errorf("snapshot elem cannot be nil")
	}
	content, err := vdom.ElemToJson(elem)
	if err != nil {
		return nil, fmt.Errorf("error serializing snapshot %q: %w", name, err)
	}
	now := time.Now().UnixMilli()
	return WithTxRtn(ctx, func(tx *TxWrap) (*SnapshotMeta, error) {
		var rows []snapshotRow
		tx.Select(&rows, "SELECT * FROM layout_snapshot WHERE name = ?", name)
		if len(rows) > 0 {
			row := rows[0]
			query := "UPDATE layout_snapshot SET version = version + 1, content = ?, modifiedts = ? WHERE snapshotid = ?"
			tx.Exec(query, string(content), now, row.SnapshotId)
			row.Version++
			row.ModifiedTs = now
			return row.meta(), nil
		}
		row := snapshotRow{
			SnapshotId: uuid.New().String(),
			Name:       name,
			Version:    1,
			Content:    string(content),
			CreatedTs:  now,
			ModifiedTs: now,
		}
		query := "INSERT INTO layout_snapshot (snapshotid, name, version, content, createdts, modifiedts) VALUES (?, ?, ?, ?, ?, ?)"
		tx.Exec(query, row.SnapshotId, row.Name, row.Version, row.Content, row.CreatedTs, row.ModifiedTs)
		return row.meta(), nil
	})
}

func getSnapshotRow(ctx context.Context, name string) (*snapshotRow, error) {
	row, err := WithTxRtn(ctx, func(tx *TxWrap) (*snapshotRow, error) {
		var rows []snapshotRow
		tx.Select(&rows, "SELECT * FROM layout_snapshot WHERE name = ?", name)
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("snapshot %q: %w", name, ErrSnapshotNotFound)
	}
	return row, nil
}

// GetSnapshot returns the stored element tree for name.
func GetSnapshot(ctx context.Context, name string) (*vdom.Elem, error) {
	row, err := getSnapshotRow(ctx, name)
	if err != nil {
		return nil, err
	}
	elem, err := vdom.ElemFromJson([]byte(row.Content))
	if err != nil {
		return nil, fmt.Errorf("error deserializing snapshot %q: %w", name, err)
	}
	return elem, nil
}

// GetSnapshotMeta returns metadata for name without parsing the content.
func GetSnapshotMeta(ctx context.Context, name string) (*SnapshotMeta, error) {
	row, err := getSnapshotRow(ctx, name)
	if err != nil {
		return nil, err
	}
	return row.meta(), nil
}

func ListSnapshots(ctx context.Context) ([]*SnapshotMeta, error) {
	return WithTxRtn(ctx, func(tx *TxWrap) ([]*SnapshotMeta, error) {
		var rows []snapshotRow
		tx.Select(&rows, "SELECT snapshotid, name, version, createdts, modifiedts FROM layout_snapshot ORDER BY name")
		rtn := make([]*SnapshotMeta, 0, len(rows))
		for idx := range rows {
			rtn = append(rtn, rows[idx].meta())
		}
		return rtn, nil
	})
}

func DeleteSnapshot(ctx context.Context, name string) error {
	return WithTx(ctx, func(tx *TxWrap) error {
		if !tx.Exists("SELECT snapshotid FROM layout_snapshot WHERE name = ?", name) {
			return fmt.Errorf("snapshot %q: %w", name, ErrSnapshotNotFound)
		}
		tx.Exec("DELETE FROM layout_snapshot WHERE name = ?", name)
		return nil
	})
}
