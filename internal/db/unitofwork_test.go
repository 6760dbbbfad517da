package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/studymap/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUoW(t *testing.T) (*db.SQLiteUnitOfWork, func(key string) (string, bool)) {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	read := func(key string) (string, bool) {
		var v string
		if err := database.QueryRow(`SELECT value FROM kv_entries WHERE key = ? AND value IS NOT NULL`, key).Scan(&v); err != nil {
			return "", false
		}
		return v, true
	}
	return db.NewSQLiteUnitOfWork(database), read
}

func insert(ctx context.Context, tx db.DBTX, key, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO kv_entries (key, value, revision, updated_at) VALUES (?, ?, 1, '')`, key, value)
	return err
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow, read := openUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return insert(ctx, tx, "k1", "v1")
	})
	require.NoError(t, err)

	v, ok := read("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow, read := openUoW(t)
	boom := errors.New("boom")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insert(ctx, tx, "k1", "v1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := read("k1")
	assert.False(t, ok, "write should be rolled back")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow, read := openUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insert(ctx, tx, "k1", "v1")
			panic("kaboom")
		})
	})

	_, ok := read("k1")
	assert.False(t, ok)
}
