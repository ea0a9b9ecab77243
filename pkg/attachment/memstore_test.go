package attachment

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreCreateAndGet(t *testing.T) {
	store := NewMemStore(0)
	ctx := context.Background()

	att, err := store.Create(ctx, "meeting notes", nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, att.ID)
	assert.Equal(t, "meeting notes", att.Content)

	got, err := store.Get(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, att.ID, got.ID)
	assert.Equal(t, "meeting notes", got.Content)
}

func TestMemStoreCreateWithExplicitID(t *testing.T) {
	store := NewMemStore(0)
	ctx := context.Background()

	id := uuid.New()
	att, err := store.Create(ctx, "first", &id)
	require.NoError(t, err)
	assert.Equal(t, id, att.ID)

	// Same ID again conflicts
	_, err = store.Create(ctx, "second", &id)
	assert.ErrorIs(t, err, ErrExists)
}

func TestMemStoreSizeLimit(t *testing.T) {
	store := NewMemStore(16)
	ctx := context.Background()

	_, err := store.Create(ctx, strings.Repeat("x", 17), nil)
	assert.ErrorIs(t, err, ErrTooLarge)

	att, err := store.Create(ctx, strings.Repeat("x", 16), nil)
	require.NoError(t, err)

	_, err = store.Update(ctx, att.ID, strings.Repeat("y", 100))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMemStoreUpdate(t *testing.T) {
	store := NewMemStore(0)
	ctx := context.Background()

	att, err := store.Create(ctx, "v1", nil)
	require.NoError(t, err)

	updated, err := store.Update(ctx, att.ID, "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", updated.Content)

	_, err = store.Update(ctx, uuid.New(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreDeleteIdempotent(t *testing.T) {
	store := NewMemStore(0)
	ctx := context.Background()

	att, err := store.Create(ctx, "ephemeral", nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, att.ID))
	_, err = store.Get(ctx, att.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Second delete is a no-op
	require.NoError(t, store.Delete(ctx, att.ID))
}

func TestMemStoreReturnsCopies(t *testing.T) {
	store := NewMemStore(0)
	ctx := context.Background()

	att, err := store.Create(ctx, "original", nil)
	require.NoError(t, err)

	att.Content = "mutated"

	got, err := store.Get(ctx, att.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Content)
}
