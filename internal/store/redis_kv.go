package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	backend "github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "studymap:"
	fieldValue         = "v"
	fieldRevision      = "rev"
)

// RedisKV stores each entry as a hash holding the value and its revision.
// Conditional writes use WATCH so concurrent writers see ErrConflict.
type RedisKV struct {
	client *backend.Client
	prefix string
}

type RedisOption func(*RedisKV)

// WithPrefix sets the namespace prepended to every key.
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisKV) {
		r.prefix = prefix
	}
}

// NewRedisKV connects to a Redis server.
func NewRedisKV(address, password string, db int, opts ...RedisOption) *RedisKV {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisKVFromClient(rdb, opts...)
}

// NewRedisKVFromClient wraps an existing client.
func NewRedisKVFromClient(client *backend.Client, opts ...RedisOption) *RedisKV {
	r := &RedisKV{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

func (r *RedisKV) Get(ctx context.Context, key string) (Entry, error) {
	vals, err := r.client.HMGet(ctx, r.key(key), fieldValue, fieldRevision).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("reading %q from redis: %w", key, err)
	}
	rev, err := parseRevision(vals[1])
	if err != nil {
		return Entry{}, fmt.Errorf("reading %q from redis: %w", key, err)
	}
	v, ok := vals[0].(string)
	if !ok {
		return Entry{Revision: rev}, ErrNotFound
	}
	return Entry{Value: []byte(v), Revision: rev}, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, expect int64) (int64, error) {
	k := r.key(key)
	var next int64
	err := r.client.Watch(ctx, func(tx *backend.Tx) error {
		rev, err := currentRevision(ctx, tx, k)
		if err != nil {
			return err
		}
		if expect != AnyRevision && rev != expect {
			return ErrConflict
		}
		next = rev + 1
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.HSet(ctx, k, fieldValue, string(value), fieldRevision, next)
			return nil
		})
		return err
	}, k)
	if errors.Is(err, backend.TxFailedErr) {
		return 0, ErrConflict
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("writing %q to redis: %w", key, err)
	}
	return next, nil
}

func (r *RedisKV) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		k := r.key(key)
		err := r.client.Watch(ctx, func(tx *backend.Tx) error {
			live, err := tx.HExists(ctx, k, fieldValue).Result()
			if err != nil || !live {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
				pipe.HDel(ctx, k, fieldValue)
				pipe.HIncrBy(ctx, k, fieldRevision, 1)
				return nil
			})
			return err
		}, k)
		if err != nil {
			return fmt.Errorf("deleting %q from redis: %w", key, err)
		}
	}
	return nil
}

func (r *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	match := escapeGlob(r.prefix+prefix) + "*"
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning redis keys: %w", err)
		}
		for _, k := range batch {
			live, err := r.client.HExists(ctx, k, fieldValue).Result()
			if err != nil {
				return nil, fmt.Errorf("checking %q: %w", k, err)
			}
			if live {
				keys = append(keys, strings.TrimPrefix(k, r.prefix))
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the redis client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

func currentRevision(ctx context.Context, tx *backend.Tx, key string) (int64, error) {
	rev, err := tx.HGet(ctx, key, fieldRevision).Int64()
	if errors.Is(err, backend.Nil) {
		return 0, nil
	}
	return rev, err
}

func parseRevision(v any) (int64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ KV = (*RedisKV)(nil)
