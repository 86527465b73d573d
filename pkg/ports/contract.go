package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFixedStoreContract runs a suite of tests to verify that a FixedStore implementation
// adheres to the defined interface contract.
func RunFixedStoreContract(t *testing.T, store FixedStore) {
	ctx := context.Background()
	prefix := "contract/" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("Save and Load", func(t *testing.T) {
		key := prefix + ".Spot"
		rec := Record{Key: key, Node: "Spot", Value: "120.5", UpdatedAt: now}

		require.NoError(t, store.Save(ctx, rec), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, key, loaded.Key)
		assert.Equal(t, "Spot", loaded.Node)
		assert.Equal(t, "120.5", loaded.Value)
		assert.True(t, now.Equal(loaded.UpdatedAt), "UpdatedAt should round-trip")
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + ".Rate"
		require.NoError(t, store.Save(ctx, Record{Key: key, Node: "Rate", Value: "a", UpdatedAt: now}))
		require.NoError(t, store.Save(ctx, Record{Key: key, Node: "Rate", Value: "b", UpdatedAt: now}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "b", loaded.Value)
	})

	t.Run("Structured values", func(t *testing.T) {
		key := prefix + `.Curve("usd",3)`
		value := map[string]any{"tenor": "3m", "points": []any{1.5, 2.25}}
		require.NoError(t, store.Save(ctx, Record{Key: key, Node: "Curve", Value: value, UpdatedAt: now}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, loaded.Value)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+".Missing")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + ".Gone"
		require.NoError(t, store.Save(ctx, Record{Key: key, Node: "Gone", Value: "x", UpdatedAt: now}))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, ErrRecordNotFound, "Load after Delete should return ErrRecordNotFound")
		assert.NoError(t, store.Delete(ctx, key), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := prefix + ".A"
		k2 := prefix + ".B"
		_ = store.Save(ctx, Record{Key: k1, Node: "A", Value: "1", UpdatedAt: now})
		_ = store.Save(ctx, Record{Key: k2, Node: "B", Value: "2", UpdatedAt: now})

		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
