// Package db is the sink: a sqlite3 database of scraped events and their
// enriched artists, upserted idempotently on the deterministic event ID.
package db

import (
	_ "embed"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB represents our sqlite3 database file.
type DB struct{ *gorm.DB }

//go:embed schema.sql
var schema string

// Open returns a connection to a migrated sqlite3 database file on disk,
// creating the file and running migrations if necessary.
func Open(filename string) (*DB, error) {
	gdb, err := gorm.Open(sqlite.Open(filename), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening db file at '%s': %w", filename, err)
	}

	db := &DB{gdb}

	if err := db.Exec(schema).Error; err != nil {
		return nil, fmt.Errorf("error migrating db at '%s': %w", filename, err)
	}

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	pool, err := db.DB.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}
