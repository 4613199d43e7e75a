package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"workforce-api/config"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/sirupsen/logrus"
)

// RequestRecord describes a handled request for the ledger.
type RequestRecord struct {
	IPAddress  string
	UserID     *string
	Endpoint   string
	Method     string
	UserAgent  string
	Payload    []byte
	StatusCode int
	Latency    time.Duration
}

// AbuseDetector answers spam and rate-limit questions from the request
// ledger. Counts are re-queried on every call, so concurrent writers can
// overshoot a threshold briefly.
type AbuseDetector struct {
	requests repository.IRequestLogRepository
	cfg      config.SecurityConfig
	policy   FailurePolicy
	clock    Clock
}

func NewAbuseDetector(requests repository.IRequestLogRepository, cfg config.SecurityConfig, policy FailurePolicy, clock Clock) *AbuseDetector {
	return &AbuseDetector{
		requests: requests,
		cfg:      cfg,
		policy:   policy,
		clock:    clock,
	}
}

// IsSpam reports whether the request should be rejected as spam: too many
// identical payloads, or too many requests from the IP or the user, in the
// last minute. Empty payloads are never matched by hash.
func (d *AbuseDetector) IsSpam(ctx context.Context, ip string, userID *string, endpoint string, payload []byte) bool {
	since := d.clock.Now().Add(-time.Minute)
	log := logger.Log.WithFields(logrus.Fields{
		"ip_address": ip,
		"endpoint":   endpoint,
	})

	if hash := ContentHash(payload); hash != "" {
		n, err := d.requests.CountByContentHashSince(ctx, hash, since)
		if err != nil {
			return d.failed(log, "spam check", err)
		}
		if n >= d.cfg.SpamHashPerMinute {
			log.WithField("count", n).Warn("Spam detected: repeated identical payload")
			return true
		}
	}

	n, err := d.requests.CountByIPSince(ctx, ip, since)
	if err != nil {
		return d.failed(log, "spam check", err)
	}
	if n >= d.cfg.SpamIPPerMinute {
		log.WithField("count", n).Warn("Spam detected: IP request burst")
		return true
	}

	if userID != nil {
		n, err := d.requests.CountByUserSince(ctx, *userID, since)
		if err != nil {
			return d.failed(log, "spam check", err)
		}
		if n >= d.cfg.SpamUserPerMinute {
			log.WithField("user_id", *userID).WithField("count", n).Warn("Spam detected: user request burst")
			return true
		}
	}

	return false
}

// IsRateLimitExceeded applies the configured per-minute and per-hour limits.
func (d *AbuseDetector) IsRateLimitExceeded(ctx context.Context, ip string, userID *string) bool {
	return d.IsRateLimitExceededWith(ctx, ip, userID, d.cfg.RateLimitPerMinute, d.cfg.RateLimitPerHour)
}

// IsRateLimitExceededWith checks the IP against maxPerMinute/maxPerHour and,
// for authenticated callers, the user against the same limits multiplied by
// the user rate multiplier.
func (d *AbuseDetector) IsRateLimitExceededWith(ctx context.Context, ip string, userID *string, maxPerMinute, maxPerHour int) bool {
	now := d.clock.Now()
	minuteAgo, hourAgo := now.Add(-time.Minute), now.Add(-time.Hour)
	log := logger.Log.WithField("ip_address", ip)

	ipMinute, err := d.requests.CountByIPSince(ctx, ip, minuteAgo)
	if err != nil {
		return d.failed(log, "rate limit check", err)
	}
	ipHour, err := d.requests.CountByIPSince(ctx, ip, hourAgo)
	if err != nil {
		return d.failed(log, "rate limit check", err)
	}
	if ipMinute >= maxPerMinute || ipHour >= maxPerHour {
		log.WithFields(logrus.Fields{
			"per_minute": ipMinute,
			"per_hour":   ipHour,
		}).Warn("Rate limit exceeded for IP")
		return true
	}

	if userID == nil {
		return false
	}

	multiplier := d.cfg.UserRateMultiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	userMinute, err := d.requests.CountByUserSince(ctx, *userID, minuteAgo)
	if err != nil {
		return d.failed(log, "rate limit check", err)
	}
	userHour, err := d.requests.CountByUserSince(ctx, *userID, hourAgo)
	if err != nil {
		return d.failed(log, "rate limit check", err)
	}
	if userMinute >= maxPerMinute*multiplier || userHour >= maxPerHour*multiplier {
		log.WithFields(logrus.Fields{
			"user_id":    *userID,
			"per_minute": userMinute,
			"per_hour":   userHour,
		}).Warn("Rate limit exceeded for user")
		return true
	}
	return false
}

// LogRequest appends a ledger entry. The window counters exclude the entry
// itself; a counter that cannot be computed is stored as zero.
func (d *AbuseDetector) LogRequest(ctx context.Context, rec RequestRecord) (*model.RequestLog, error) {
	now := d.clock.Now()
	hash := ContentHash(rec.Payload)
	log := logger.Log.WithFields(logrus.Fields{
		"ip_address": rec.IPAddress,
		"endpoint":   rec.Endpoint,
	})

	entry := &model.RequestLog{
		IPAddress:   rec.IPAddress,
		UserID:      rec.UserID,
		Endpoint:    rec.Endpoint,
		Method:      rec.Method,
		ContentHash: hash,
		UserAgent:   rec.UserAgent,
		StatusCode:  rec.StatusCode,
		LatencyMs:   rec.Latency.Milliseconds(),
		CreatedAt:   now,
	}

	var err error
	if entry.RequestsLastMinute, err = d.requests.CountByIPSince(ctx, rec.IPAddress, now.Add(-time.Minute)); err != nil {
		log.WithError(err).Warn("Could not compute per-minute request count")
	}
	if entry.RequestsLastHour, err = d.requests.CountByIPSince(ctx, rec.IPAddress, now.Add(-time.Hour)); err != nil {
		log.WithError(err).Warn("Could not compute per-hour request count")
	}
	if hash != "" {
		if entry.DuplicateHashCount, err = d.requests.CountByContentHashSince(ctx, hash, now.Add(-time.Hour)); err != nil {
			log.WithError(err).Warn("Could not compute duplicate payload count")
		}
	}

	var reasons []string
	if entry.RequestsLastMinute >= d.cfg.LogSpamIPPerMinute {
		reasons = append(reasons, fmt.Sprintf("%d requests from IP in the last minute", entry.RequestsLastMinute))
	}
	if entry.DuplicateHashCount >= d.cfg.LogDuplicateHashPerHour {
		reasons = append(reasons, fmt.Sprintf("%d identical payloads in the last hour", entry.DuplicateHashCount))
	}
	if len(reasons) > 0 {
		entry.IsSpamDetected = true
		entry.SpamReason = strings.Join(reasons, "; ")
	}

	if err := d.requests.Create(ctx, entry); err != nil {
		log.WithError(err).Error("Failed to write request log")
		return nil, err
	}
	return entry, nil
}

// CleanupOldLogs deletes ledger entries older than retentionDays.
func (d *AbuseDetector) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = d.cfg.RetentionDays
	}
	cutoff := d.clock.Now().AddDate(0, 0, -retentionDays)

	n, err := d.requests.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Log.WithError(err).WithField("cutoff", cutoff).Error("Request log cleanup failed")
		return 0, err
	}
	logger.Log.WithFields(logrus.Fields{
		"deleted": n,
		"cutoff":  cutoff,
	}).Info("Old request logs removed")
	return n, nil
}

func (d *AbuseDetector) failed(log *logrus.Entry, check string, err error) bool {
	verdict := d.policy.verdict()
	log.WithError(err).WithFields(logrus.Fields{
		"policy":  d.policy.String(),
		"verdict": verdict,
	}).Warn(check + " failed, applying failure policy")
	return verdict
}
