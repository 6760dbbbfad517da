// Package storetest holds the behaviour every store.KV backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/alexanderramin/studymap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVContract exercises a backend. newKV must return an empty store for
// every call.
func RunKVContract(t *testing.T, newKV func(t *testing.T) store.KV) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		kv := newKV(t)
		e, err := kv.Get(ctx, "nope")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Zero(t, e.Revision)
		assert.Nil(t, e.Value)
	})

	t.Run("create then conditional update", func(t *testing.T) {
		kv := newKV(t)
		rev, err := kv.Put(ctx, "k", []byte(`{"a":1}`), 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rev)

		e, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(e.Value))
		assert.Equal(t, int64(1), e.Revision)

		rev, err = kv.Put(ctx, "k", []byte(`{"a":2}`), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rev)

		_, err = kv.Put(ctx, "k", []byte(`{"a":3}`), 1)
		assert.ErrorIs(t, err, store.ErrConflict)

		e, err = kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"a":2}`, string(e.Value))
	})

	t.Run("create conflicts with existing key", func(t *testing.T) {
		kv := newKV(t)
		_, err := kv.Put(ctx, "k", []byte("one"), 0)
		require.NoError(t, err)
		_, err = kv.Put(ctx, "k", []byte("two"), 0)
		assert.ErrorIs(t, err, store.ErrConflict)
	})

	t.Run("any revision is last write wins", func(t *testing.T) {
		kv := newKV(t)
		rev, err := kv.Put(ctx, "k", []byte("one"), store.AnyRevision)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rev)
		rev, err = kv.Put(ctx, "k", []byte("two"), store.AnyRevision)
		require.NoError(t, err)
		assert.Equal(t, int64(2), rev)
	})

	t.Run("delete leaves a tombstone revision", func(t *testing.T) {
		kv := newKV(t)
		_, err := kv.Put(ctx, "k", []byte("v"), 0)
		require.NoError(t, err)
		require.NoError(t, kv.Delete(ctx, "k"))

		e, err := kv.Get(ctx, "k")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, int64(2), e.Revision)

		_, err = kv.Put(ctx, "k", []byte("stale"), 0)
		assert.ErrorIs(t, err, store.ErrConflict)

		rev, err := kv.Put(ctx, "k", []byte("fresh"), e.Revision)
		require.NoError(t, err)
		assert.Equal(t, int64(3), rev)
	})

	t.Run("delete of missing keys is a no-op", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Delete(ctx, "a", "b"))
		require.NoError(t, kv.Delete(ctx))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		kv := newKV(t)
		for _, k := range []string{"a/2", "b/1", "a/1", "a/3"} {
			_, err := kv.Put(ctx, k, []byte("v"), store.AnyRevision)
			require.NoError(t, err)
		}
		require.NoError(t, kv.Delete(ctx, "a/3"))

		keys, err := kv.Keys(ctx, "a/")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1", "a/2"}, keys)

		all, err := kv.Keys(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"a/1", "a/2", "b/1"}, all)
	})

	t.Run("prefix is literal", func(t *testing.T) {
		kv := newKV(t)
		for _, k := range []string{"x*y", "x*z", "xay", "x_y"} {
			_, err := kv.Put(ctx, k, []byte("v"), store.AnyRevision)
			require.NoError(t, err)
		}
		keys, err := kv.Keys(ctx, "x*")
		require.NoError(t, err)
		assert.Equal(t, []string{"x*y", "x*z"}, keys)
	})
}
