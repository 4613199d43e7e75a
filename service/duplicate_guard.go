package service

import (
	"context"
	"encoding/json"
	"time"
	"workforce-api/config"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/sirupsen/logrus"
)

// DuplicateAttempt is a submission to record in the duplicate log.
// Entity is hashed; OriginalData and NewData are kept as JSON snapshots.
type DuplicateAttempt struct {
	EntityType   string
	EntityID     string
	UniqueKey    string
	Entity       interface{}
	UserID       *string
	IPAddress    string
	Blocked      bool
	Reason       string
	OriginalData interface{}
	NewData      interface{}
}

// DuplicateGuard detects resubmission of identical entity data.
type DuplicateGuard struct {
	logs   repository.IDuplicateLogRepository
	cfg    config.SecurityConfig
	policy FailurePolicy
	clock  Clock
}

func NewDuplicateGuard(logs repository.IDuplicateLogRepository, cfg config.SecurityConfig, policy FailurePolicy, clock Clock) *DuplicateGuard {
	return &DuplicateGuard{
		logs:   logs,
		cfg:    cfg,
		policy: policy,
		clock:  clock,
	}
}

func (g *DuplicateGuard) window() time.Duration {
	hours := g.cfg.DuplicateWindowHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// IsDuplicateData reports whether an entity of entityType with the same
// canonical hash was logged within the duplicate window. Equal hashes are
// treated as equal data.
func (g *DuplicateGuard) IsDuplicateData(ctx context.Context, entity interface{}, entityType, uniqueKey string) bool {
	log := logger.Log.WithFields(logrus.Fields{
		"entity_type": entityType,
		"unique_key":  uniqueKey,
	})

	hash, err := GenerateDataHash(entity)
	if err != nil {
		return g.failed(log, err)
	}

	exists, err := g.logs.ExistsByHashSince(ctx, entityType, hash, g.clock.Now().Add(-g.window()))
	if err != nil {
		return g.failed(log, err)
	}
	if exists {
		log.Info("Duplicate data submission detected")
	}
	return exists
}

// LogDuplicateAttempt records the attempt whether or not it was blocked.
func (g *DuplicateGuard) LogDuplicateAttempt(ctx context.Context, a DuplicateAttempt) error {
	hash, err := GenerateDataHash(a.Entity)
	if err != nil {
		return err
	}

	entry := &model.DuplicateLog{
		EntityType:   a.EntityType,
		EntityID:     a.EntityID,
		UniqueKey:    a.UniqueKey,
		DataHash:     hash,
		UserID:       a.UserID,
		IPAddress:    a.IPAddress,
		IsBlocked:    a.Blocked,
		Reason:       a.Reason,
		OriginalData: snapshot(a.OriginalData),
		NewData:      snapshot(a.NewData),
		CreatedAt:    g.clock.Now(),
	}
	return g.logs.Create(ctx, entry)
}

// HasRecentDuplicateAttempts reports whether the user or the IP has at least
// the configured number of blocked attempts inside window.
func (g *DuplicateGuard) HasRecentDuplicateAttempts(ctx context.Context, userID *string, ip string, window time.Duration) bool {
	if window <= 0 {
		window = time.Duration(g.cfg.DuplicateAttemptWindowMinutes) * time.Minute
	}
	log := logger.Log.WithField("ip_address", ip)

	n, err := g.logs.CountBlockedSince(ctx, userID, ip, g.clock.Now().Add(-window))
	if err != nil {
		return g.failed(log, err)
	}
	return n >= g.cfg.DuplicateAttemptThreshold
}

func (g *DuplicateGuard) failed(log *logrus.Entry, err error) bool {
	verdict := g.policy.verdict()
	log.WithError(err).WithField("policy", g.policy.String()).Warn("Duplicate check failed, applying failure policy")
	return verdict
}

// snapshot serializes v for forensic storage; nil stays empty.
func snapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		logger.Log.WithError(err).Warn("Could not serialize snapshot")
		return ""
	}
	return string(b)
}
