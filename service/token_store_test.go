package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationStore_RevokeIsIdempotentAndPermanent(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", exp))
	require.NoError(t, store.Revoke(ctx, "jti-1", exp))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryRevocationStore_RevokeAllForUser(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, store.Track(ctx, "alice", "a-1", exp))
	require.NoError(t, store.Track(ctx, "alice", "a-2", exp))
	require.NoError(t, store.Track(ctx, "bob", "b-1", exp))
	assert.Equal(t, 2, store.Tracked("alice"))

	require.NoError(t, store.RevokeAllForUser(ctx, "alice"))

	for _, jti := range []string{"a-1", "a-2"} {
		revoked, _ := store.IsRevoked(ctx, jti)
		assert.True(t, revoked, jti)
	}
	revoked, _ := store.IsRevoked(ctx, "b-1")
	assert.False(t, revoked, "other users are untouched")
	assert.Zero(t, store.Tracked("alice"))
	assert.Equal(t, 1, store.Tracked("bob"))
}

func TestMemoryRevocationStore_RevokeAllForUnknownUser(t *testing.T) {
	store := NewMemoryRevocationStore()
	assert.NoError(t, store.RevokeAllForUser(context.Background(), "nobody"))
}
