// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package migrateutil applies embedded sql migrations to a sqlite store.
package migrateutil

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
)

func openMigrate(storeName string, db *sql.DB, migrationFS fs.FS, fsDir string) (*migrate.Migrate, error) {
	srcDriver, err := iofs.New(migrationFS, fsDir)
	if err != nil {
		return nil, fmt.Errorf("error opening %s migration fs: %w", storeName, err)
	}
	dbDriver, err := sqlite3migrate.WithInstance(db, &sqlite3migrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("error making %s migration driver: %w", storeName, err)
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "sqlite3", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("error making %s migrate instance: %w", storeName, err)
	}
	return m, nil
}

func storeVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		return 0, false, nil
	}
	return version, dirty, err
}

// Migrate brings storeName's schema up to the newest embedded version. A
// dirty version means an earlier migration died midway, so the store is left
// untouched and the caller gets an error instead.
func Migrate(storeName string, db *sql.DB, migrationFS fs.FS, fsDir string) error {
	m, err := openMigrate(storeName, db, migrationFS, fsDir)
	if err != nil {
		return err
	}
	oldVersion, dirty, err := storeVersion(m)
	if err != nil {
		return fmt.Errorf("error reading %s schema version: %w", storeName, err)
	}
	if dirty {
		return fmt.Errorf("%s schema version %d is dirty, refusing to migrate", storeName, oldVersion)
	}
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("error migrating %s: %w", storeName, err)
	}
	newVersion, _, err := storeVersion(m)
	if err != nil {
		return fmt.Errorf("error reading %s schema version: %w", storeName, err)
	}
	if newVersion != oldVersion {
		log.Printf("[db] %s schema migrated, version %d -> %d\n", storeName, oldVersion, newVersion)
	}
	return nil
}
