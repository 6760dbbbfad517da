package testutil

import (
	"database/sql"
	"testing"

	"github.com/alexanderramin/studymap/internal/db"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestRedis starts a miniredis server and returns a client for it. Both
// are shut down when the test completes.
func NewTestRedis(t *testing.T) (*backend.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})
	return client, mr
}

// NewTestStore returns a ProgressStore over a fresh in-memory SQLite
// database, wired with a unit of work like the CLI.
func NewTestStore(t *testing.T, opts ...store.Option) *store.ProgressStore {
	t.Helper()
	conn := NewTestDB(t)
	return store.NewProgressStore(store.NewSQLiteKV(conn, store.WithUnitOfWork(NewTestUoW(conn))), opts...)
}
