// Package dbtest opens isolated in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"

	"github.com/steemit/circlemind/internal/db"
)

// Open returns a migrated in-memory database private to t. It is closed when t ends.
func Open(t testing.TB) *db.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	d, err := db.Open(sqlite.Open(dsn), "silent")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := d.DB.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// one connection keeps the shared in-memory database alive and serialises writers
	sqlDB.SetMaxOpenConns(1)

	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})
	return d
}

// Store returns a db.Store over a fresh database.
func Store(t testing.TB) *db.Store {
	t.Helper()
	return db.NewStore(Open(t).DB)
}
