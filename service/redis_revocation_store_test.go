package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct{ mock.Mock }

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult(args.String(0), args.Error(1))
}

func (m *mockRedisClient) Exists(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *mockRedisClient) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	args := m.Called(ctx, key, values)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func (m *mockRedisClient) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	args := m.Called(ctx, key)
	val, _ := args.Get(0).(map[string]string)
	return redis.NewMapStringStringResult(val, args.Error(1))
}

func (m *mockRedisClient) ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd {
	args := m.Called(ctx, key, tm)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *mockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return redis.NewIntResult(int64(args.Int(0)), args.Error(1))
}

func TestRedisRevocationStore_RevokeUsesTokenLifetimeAsTTL(t *testing.T) {
	client := new(mockRedisClient)
	clock := newFakeClock()
	store := NewRedisRevocationStore(client, clock)
	ctx := context.Background()

	client.On("Set", ctx, "revoked_jti:j1", "1", 2*time.Hour).Return("OK", nil).Once()
	client.On("Set", ctx, "revoked_jti:j2", "1", minRevocationTTL).Return("OK", nil).Once()

	require.NoError(t, store.Revoke(ctx, "j1", clock.Now().Add(2*time.Hour)))
	require.NoError(t, store.Revoke(ctx, "j2", clock.Now().Add(-time.Hour)))
	client.AssertExpectations(t)
}

func TestRedisRevocationStore_IsRevoked(t *testing.T) {
	client := new(mockRedisClient)
	store := NewRedisRevocationStore(client, newFakeClock())
	ctx := context.Background()

	client.On("Exists", ctx, []string{"revoked_jti:yes"}).Return(1, nil)
	client.On("Exists", ctx, []string{"revoked_jti:no"}).Return(0, nil)
	client.On("Exists", ctx, []string{"revoked_jti:down"}).Return(0, errors.New("connection refused"))

	revoked, err := store.IsRevoked(ctx, "yes")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "no")
	require.NoError(t, err)
	assert.False(t, revoked)

	_, err = store.IsRevoked(ctx, "down")
	assert.Error(t, err)
}

func TestRedisRevocationStore_TrackAndRevokeAll(t *testing.T) {
	client := new(mockRedisClient)
	clock := newFakeClock()
	store := NewRedisRevocationStore(client, clock)
	ctx := context.Background()
	exp := clock.Now().Add(time.Hour).Truncate(time.Second)
	unix := strconv.FormatInt(exp.Unix(), 10)

	client.On("HSet", ctx, "user_jtis:u1", []interface{}{"j1", unix}).Return(1, nil).Once()
	client.On("ExpireAt", ctx, "user_jtis:u1", exp).Return(true, nil).Once()
	require.NoError(t, store.Track(ctx, "u1", "j1", exp))

	client.On("HGetAll", ctx, "user_jtis:u1").Return(map[string]string{"j1": unix, "j2": "garbage"}, nil).Once()
	client.On("Set", ctx, "revoked_jti:j1", "1", time.Hour).Return("OK", nil).Once()
	client.On("Set", ctx, "revoked_jti:j2", "1", minRevocationTTL).Return("OK", nil).Once()
	client.On("Del", ctx, []string{"user_jtis:u1"}).Return(1, nil).Once()

	require.NoError(t, store.RevokeAllForUser(ctx, "u1"))
	client.AssertExpectations(t)
}

func TestRedisRevocationStore_RevokeAllStopsOnWriteFailure(t *testing.T) {
	client := new(mockRedisClient)
	clock := newFakeClock()
	store := NewRedisRevocationStore(client, clock)
	ctx := context.Background()
	unix := strconv.FormatInt(clock.Now().Add(time.Hour).Unix(), 10)

	client.On("HGetAll", ctx, "user_jtis:u1").Return(map[string]string{"j1": unix}, nil).Once()
	client.On("Set", ctx, "revoked_jti:j1", "1", time.Hour).Return("", errors.New("READONLY")).Once()

	assert.Error(t, store.RevokeAllForUser(ctx, "u1"))
	client.AssertNotCalled(t, "Del", mock.Anything, mock.Anything)
}

// TestRedisRevocationStore_Integration runs against a local Redis when one
// is reachable.
func TestRedisRevocationStore_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	require.NoError(t, client.FlushDB(ctx).Err())

	store := NewRedisRevocationStore(client, SystemClock{})
	exp := time.Now().Add(time.Hour)

	require.NoError(t, store.Track(ctx, "u1", "j1", exp))
	require.NoError(t, store.Track(ctx, "u1", "j2", exp))
	require.NoError(t, store.RevokeAllForUser(ctx, "u1"))

	for _, jti := range []string{"j1", "j2"} {
		revoked, err := store.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked, jti)
	}
	ttl, err := client.TTL(ctx, "revoked_jti:j1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Minute)
}
