package database

import (
	"fmt"
	"log"
)

func NewPhotoStore(databaseType, connectionString string) (store PhotoStore, err error) {
	switch databaseType {
	case "sqlite":
		store, err = NewSQLitePhotoStore(connectionString)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}

	// Ensure database schema exists (idempotent), important for in-memory SQLite
	log.Print("initializing database schema (ensuring tables exist)")
	if err = store.CreateSchema(); err != nil {
		return nil, fmt.Errorf("failed to create database schema: %w", err)
	}

	return store, nil
}
