package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/studymap/internal/db"
)

// SQLiteKV stores entries in the kv_entries table.
type SQLiteKV struct {
	tx  db.DBTX
	uow db.UnitOfWork
}

type SQLiteOption func(*SQLiteKV)

// WithUnitOfWork replaces the transaction runner used by WithinTx.
func WithUnitOfWork(uow db.UnitOfWork) SQLiteOption {
	return func(s *SQLiteKV) { s.uow = uow }
}

// NewSQLiteKV wraps an open database. Use db.OpenDB to create one with the
// schema applied.
func NewSQLiteKV(conn *sql.DB, opts ...SQLiteOption) *SQLiteKV {
	s := &SQLiteKV{tx: conn, uow: db.NewSQLiteUnitOfWork(conn)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (Entry, error) {
	var (
		value []byte
		rev   int64
	)
	err := s.tx.QueryRowContext(ctx,
		`SELECT value, revision FROM kv_entries WHERE key = ?`, key,
	).Scan(&value, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading %q: %w", key, err)
	}
	if value == nil {
		return Entry{Revision: rev}, ErrNotFound
	}
	return Entry{Value: value, Revision: rev}, nil
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte, expect int64) (int64, error) {
	if value == nil {
		value = []byte{}
	}
	switch {
	case expect == AnyRevision:
		var rev int64
		err := s.tx.QueryRowContext(ctx,
			`INSERT INTO kv_entries (key, value, revision, updated_at)
			 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET
			   value = excluded.value,
			   revision = kv_entries.revision + 1,
			   updated_at = CURRENT_TIMESTAMP
			 RETURNING revision`,
			key, value,
		).Scan(&rev)
		if err != nil {
			return 0, fmt.Errorf("writing %q: %w", key, err)
		}
		return rev, nil

	case expect == 0:
		res, err := s.tx.ExecContext(ctx,
			`INSERT INTO kv_entries (key, value, revision, updated_at)
			 VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO NOTHING`,
			key, value,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting %q: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, ErrConflict
		}
		return 1, nil

	default:
		res, err := s.tx.ExecContext(ctx,
			`UPDATE kv_entries
			 SET value = ?, revision = revision + 1, updated_at = CURRENT_TIMESTAMP
			 WHERE key = ? AND revision = ?`,
			value, key, expect,
		)
		if err != nil {
			return 0, fmt.Errorf("updating %q: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, ErrConflict
		}
		return expect + 1, nil
	}
}

// Delete tombstones the keys so later conditional writes still see a
// newer revision.
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		_, err := s.tx.ExecContext(ctx,
			`UPDATE kv_entries
			 SET value = NULL, revision = revision + 1, updated_at = CURRENT_TIMESTAMP
			 WHERE key = ? AND value IS NOT NULL`,
			key,
		)
		if err != nil {
			return fmt.Errorf("deleting %q: %w", key, err)
		}
	}
	return nil
}

func (s *SQLiteKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.tx.QueryContext(ctx,
		`SELECT key FROM kv_entries
		 WHERE value IS NOT NULL AND substr(key, 1, length(?)) = ?
		 ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// WithinTx runs fn against a KV bound to a single transaction.
func (s *SQLiteKV) WithinTx(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	if s.uow == nil {
		return fn(ctx, s)
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &SQLiteKV{tx: tx})
	})
}

var (
	_ KV         = (*SQLiteKV)(nil)
	_ Transactor = (*SQLiteKV)(nil)
)
