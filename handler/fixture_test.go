package handler

import (
	"net/http"
	"testing"
	"time"
	"workforce-api/config"
	"workforce-api/repository/memory"
	"workforce-api/service"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixture struct {
	store    *memory.Store
	clock    *fixedClock
	tokens   *service.TokenService
	auth     *service.AuthService
	users    *service.UserService
	detector *service.AbuseDetector
	audit    *service.AuditTrail
}

func newFixture(t *testing.T, sec config.SecurityConfig) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)}
	revocations := service.NewMemoryRevocationStore()
	tokens := service.NewTokenService(config.JWTConfig{
		SecretKey:        "handler-test-signing-key-0123456789",
		Issuer:           "workforce-api",
		Audience:         "workforce-web",
		AccessTokenHours: 1,
		LoginProvider:    "WorkforceApi",
	}, store.UserTokens(), revocations, clock)
	auth := service.NewAuthService(store.Users(), tokens, revocations)
	return &fixture{
		store:    store,
		clock:    clock,
		tokens:   tokens,
		auth:     auth,
		users:    service.NewUserService(store.Users(), auth),
		detector: service.NewAbuseDetector(store.Requests(), sec, service.FailOpen, clock),
		audit:    service.NewAuditTrail(store.Audits(), store.Requests(), store.Duplicates(), sec, clock),
	}
}

func defaultSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		SpamHashPerMinute:         5,
		SpamIPPerMinute:           100,
		SpamUserPerMinute:         200,
		LogSpamIPPerMinute:        100,
		LogDuplicateHashPerHour:   10,
		RateLimitPerMinute:        60,
		RateLimitPerHour:          1000,
		UserRateMultiplier:        2,
		DuplicateAttemptThreshold: 5,
		AuditActionsPerHour:       100,
		AuditSpamFlaggedPerHour:   10,
		RetentionDays:             30,
	}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusAccepted)
})
