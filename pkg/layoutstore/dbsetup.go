// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package layoutstore

// setup for the layoutstore db
// includes migration support and txwrap setup

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sawka/txwrap"

	dbfs "github.com/wavetermdev/riptide/db"
	"github.com/wavetermdev/riptide/pkg/rtbase"
	"github.com/wavetermdev/riptide/pkg/util/migrateutil"
)

const LayoutstoreDbName = "layoutstore.db"

type SingleConnDBGetter struct {
	SingleConnLock *sync.Mutex
}

type TxWrap = txwrap.TxWrap

var dbWrap *SingleConnDBGetter = &SingleConnDBGetter{SingleConnLock: &sync.Mutex{}}
var globalDBLock = &sync.Mutex{}
var globalDB *sqlx.DB
var globalDBErr error
var useTestingDb bool // for unit tests

func InitLayoutstore() error {
	ctx, cancelFn := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelFn()
	db, err := GetDB(ctx)
	if err != nil {
		return err
	}
	err = migrateutil.Migrate("layoutstore", db.DB, dbfs.LayoutstoreMigrationFS, "migrations-layoutstore")
	if err != nil {
		return err
	}
	log.Printf("layoutstore initialized\n")
	return nil
}

func GetDBName() string {
	if useTestingDb {
		return ":memory:"
	}
	dataDir := rtbase.GetRiptideDataDir()
	return filepath.Join(dataDir, rtbase.RiptideDBDir, LayoutstoreDbName)
}

func GetDB(ctx context.Context) (*sqlx.DB, error) {
	if txwrap.IsTxWrapContext(ctx) {
		return nil, fmt.Errorf("cannot call GetDB from within a running transaction")
	}
	globalDBLock.Lock()
	defer globalDBLock.Unlock()
	if globalDB == nil && globalDBErr == nil {
		dbName := GetDBName()
		globalDB, globalDBErr = sqlx.Open("sqlite3", fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000", dbName))
		if globalDBErr != nil {
			globalDBErr = fmt.Errorf("opening db[%s]: %w", dbName, globalDBErr)
			log.Printf("[db] error: %v\n", globalDBErr)
		} else {
			log.Printf("[db] successfully opened db %s\n", dbName)
			globalDB.DB.SetMaxOpenConns(1)
		}
	}
	return globalDB, globalDBErr
}

func CloseLayoutstore() {
	globalDBLock.Lock()
	defer globalDBLock.Unlock()
	if globalDB != nil {
		globalDB.Close()
		globalDB = nil
		globalDBErr = nil
		log.Printf("[db] layoutstore closed\n")
	}
}

func (dbg *SingleConnDBGetter) GetDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := GetDB(ctx)
	if err != nil {
		return nil, err
	}
	dbg.SingleConnLock.Lock()
	return db, nil
}

func (dbg *SingleConnDBGetter) ReleaseDB(db *sqlx.DB) {
	dbg.SingleConnLock.Unlock()
}

func WithTx(ctx context.Context, fn func(tx *TxWrap) error) error {
	return txwrap.DBGWithTx(ctx, dbWrap, fn)
}

func WithTxRtn[RT any](ctx context.Context, fn func(tx *TxWrap) (RT, error)) (RT, error) {
	var rtn RT
	txErr := WithTx(ctx, func(tx *TxWrap) error {
		temp, err := fn(tx)
		if err != nil {
			return err
		}
		rtn = temp
		return nil
	})
	return rtn, txErr
}
