// file: service/redis_revocation_store.go

package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
	"workforce-api/logger"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IRedisClient is the subset of *redis.Client the revocation store needs.
// Keeping it narrow lets tests substitute a mock.
type IRedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	ExpireAt(ctx context.Context, key string, tm time.Time) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// minRevocationTTL keeps an already-expired JTI revoked briefly so clock
// skew between instances cannot reopen it.
const minRevocationTTL = time.Minute

// RedisRevocationStore shares revocations between instances.
// Revoked JTIs are keys that expire with the token; the per-user index is a
// hash of jti -> unix expiry.
type RedisRevocationStore struct {
	client IRedisClient
	clock  Clock
}

func NewRedisRevocationStore(client IRedisClient, clock Clock) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, clock: clock}
}

func revokedKey(jti string) string     { return "revoked_jti:" + jti }
func userIndexKey(userID string) string { return "user_jtis:" + userID }

func (s *RedisRevocationStore) ttlFor(expiresAt time.Time) time.Duration {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl < minRevocationTTL {
		return minRevocationTTL
	}
	return ttl
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := s.client.Set(ctx, revokedKey(jti), "1", s.ttlFor(expiresAt)).Err(); err != nil {
		return fmt.Errorf("revoke jti: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked jti: %w", err)
	}
	return n > 0, nil
}

func (s *RedisRevocationStore) Track(ctx context.Context, userID, jti string, expiresAt time.Time) error {
	key := userIndexKey(userID)
	if err := s.client.HSet(ctx, key, jti, strconv.FormatInt(expiresAt.Unix(), 10)).Err(); err != nil {
		return fmt.Errorf("track jti: %w", err)
	}
	if err := s.client.ExpireAt(ctx, key, expiresAt).Err(); err != nil {
		return fmt.Errorf("expire user index: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) RevokeAllForUser(ctx context.Context, userID string) error {
	key := userIndexKey(userID)
	tracked, err := s.client.HGetAll(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load user index: %w", err)
	}

	for jti, exp := range tracked {
		unix, parseErr := strconv.ParseInt(exp, 10, 64)
		expiresAt := time.Unix(unix, 0).UTC()
		if parseErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id": userID,
				"jti":     jti,
			}).Warn("Malformed expiry in user token index, revoking with minimum TTL")
			expiresAt = s.clock.Now()
		}
		if err := s.Revoke(ctx, jti, expiresAt); err != nil {
			return err
		}
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear user index: %w", err)
	}
	return nil
}
