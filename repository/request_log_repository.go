package repository

import (
	"context"
	"database/sql"
	"time"
	"workforce-api/logger"
	"workforce-api/model"

	"github.com/sirupsen/logrus"
)

// IRequestLogRepository is the request ledger. All counting methods look at
// entries created at or after since.
type IRequestLogRepository interface {
	Create(ctx context.Context, entry *model.RequestLog) error
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error)
	CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error)
	CountByContentHashSince(ctx context.Context, hash string, since time.Time) (int, error)
	CountSpamFlaggedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type RequestLogRepository struct {
	DB *sql.DB
}

func NewRequestLogRepository(db *sql.DB) *RequestLogRepository {
	return &RequestLogRepository{DB: db}
}

// Create appends an entry to the ledger.
func (r *RequestLogRepository) Create(ctx context.Context, entry *model.RequestLog) error {
	query := `
		INSERT INTO request_logs (ip_address, user_id, endpoint, method, content_hash, user_agent, status_code, latency_ms,
			requests_last_minute, requests_last_hour, duplicate_hash_count, is_spam_detected, spam_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		entry.IPAddress, entry.UserID, entry.Endpoint, entry.Method, entry.ContentHash, entry.UserAgent,
		entry.StatusCode, entry.LatencyMs, entry.RequestsLastMinute, entry.RequestsLastHour,
		entry.DuplicateHashCount, entry.IsSpamDetected, entry.SpamReason, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"ip_address": entry.IPAddress,
			"endpoint":   entry.Endpoint,
		}).Error("Failed to execute create request log query")
		return err
	}
	return nil
}

func (r *RequestLogRepository) CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM request_logs WHERE ip_address = $1 AND created_at >= $2`, ip, since)
}

func (r *RequestLogRepository) CountByUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM request_logs WHERE user_id = $1 AND created_at >= $2`, userID, since)
}

func (r *RequestLogRepository) CountByContentHashSince(ctx context.Context, hash string, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM request_logs WHERE content_hash = $1 AND created_at >= $2`, hash, since)
}

// CountSpamFlaggedSince counts spam-flagged entries from the user OR the IP.
func (r *RequestLogRepository) CountSpamFlaggedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM request_logs WHERE is_spam_detected AND created_at >= $1 AND (user_id = $2 OR ip_address = $3)`
	return r.count(ctx, query, since, userID, ip)
}

func (r *RequestLogRepository) count(ctx context.Context, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.Log.WithError(err).Error("Failed to execute request log count query")
		return 0, err
	}
	return n, nil
}

// DeleteOlderThan removes every entry created before cutoff and returns how many went.
func (r *RequestLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM request_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		logger.Log.WithError(err).WithField("cutoff", cutoff).Error("Failed to execute request log cleanup query")
		return 0, err
	}
	return res.RowsAffected()
}
