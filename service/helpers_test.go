package service

import (
	"context"
	"sync"
	"time"
	"workforce-api/config"
	"workforce-api/model"

	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:        "unit-test-signing-key-0123456789abcdef",
		Issuer:           "workforce-api",
		Audience:         "workforce-web",
		AccessTokenHours: 1,
		LoginProvider:    "WorkforceApi",
	}
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		SpamHashPerMinute:             5,
		SpamIPPerMinute:               100,
		SpamUserPerMinute:             200,
		LogSpamIPPerMinute:            100,
		LogDuplicateHashPerHour:       10,
		RateLimitPerMinute:            60,
		RateLimitPerHour:              1000,
		UserRateMultiplier:            2,
		DuplicateWindowHours:          24,
		DuplicateAttemptThreshold:     5,
		DuplicateAttemptWindowMinutes: 60,
		AuditActionsPerHour:           100,
		AuditSpamFlaggedPerHour:       10,
		RetentionDays:                 30,
	}
}

func strPtr(s string) *string { return &s }

// mockRequestLogRepo is a testify mock of IRequestLogRepository.
type mockRequestLogRepo struct{ mock.Mock }

func (m *mockRequestLogRepo) Create(ctx context.Context, entry *model.RequestLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockRequestLogRepo) CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	args := m.Called(ctx, ip, since)
	return args.Int(0), args.Error(1)
}

func (m *mockRequestLogRepo) CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, since)
	return args.Int(0), args.Error(1)
}

func (m *mockRequestLogRepo) CountByContentHashSince(ctx context.Context, hash string, since time.Time) (int, error) {
	args := m.Called(ctx, hash, since)
	return args.Int(0), args.Error(1)
}

func (m *mockRequestLogRepo) CountSpamFlaggedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, ip, since)
	return args.Int(0), args.Error(1)
}

func (m *mockRequestLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// mockUserTokenRepo is a testify mock of IUserTokenRepository.
type mockUserTokenRepo struct{ mock.Mock }

func (m *mockUserTokenRepo) GetToken(ctx context.Context, userID, provider, name string) (string, error) {
	args := m.Called(ctx, userID, provider, name)
	return args.String(0), args.Error(1)
}

func (m *mockUserTokenRepo) SetToken(ctx context.Context, userID, provider, name, value string) error {
	return m.Called(ctx, userID, provider, name, value).Error(0)
}

func (m *mockUserTokenRepo) RemoveToken(ctx context.Context, userID, provider, name string) error {
	return m.Called(ctx, userID, provider, name).Error(0)
}

// mockDuplicateLogRepo is a testify mock of IDuplicateLogRepository.
type mockDuplicateLogRepo struct{ mock.Mock }

func (m *mockDuplicateLogRepo) Create(ctx context.Context, entry *model.DuplicateLog) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockDuplicateLogRepo) ExistsByHashSince(ctx context.Context, entityType, hash string, since time.Time) (bool, error) {
	args := m.Called(ctx, entityType, hash, since)
	return args.Bool(0), args.Error(1)
}

func (m *mockDuplicateLogRepo) CountBlockedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, ip, since)
	return args.Int(0), args.Error(1)
}

// brokenRevocationStore fails every call.
type brokenRevocationStore struct{ err error }

func (s brokenRevocationStore) Revoke(context.Context, string, time.Time) error { return s.err }
func (s brokenRevocationStore) IsRevoked(context.Context, string) (bool, error) { return false, s.err }
func (s brokenRevocationStore) Track(context.Context, string, string, time.Time) error {
	return s.err
}
func (s brokenRevocationStore) RevokeAllForUser(context.Context, string) error { return s.err }
