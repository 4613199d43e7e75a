package repository

import (
	"context"
	"database/sql"
	"time"
	"workforce-api/logger"
	"workforce-api/model"
)

// IAuditLogRepository is the append-only audit trail.
type IAuditLogRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	CountByActorSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error)
	Recent(ctx context.Context, limit int) ([]*model.AuditLog, error)
}

type AuditLogRepository struct {
	DB *sql.DB
}

func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{DB: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (table_name, record_id, action, user_id, ip_address, old_values, new_values, reason,
			risk_level, suspicious_activity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		entry.TableName, entry.RecordID, entry.Action, entry.UserID, entry.IPAddress, entry.OldValues,
		entry.NewValues, entry.Reason, entry.RiskLevel, entry.SuspiciousActivity, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		logger.Log.WithError(err).WithField("action", entry.Action).Error("Failed to execute create audit log query")
		return err
	}
	return nil
}

// CountByActorSince counts audit entries by the user OR from the IP.
func (r *AuditLogRepository) CountByActorSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM audit_logs WHERE created_at >= $1 AND (user_id = $2 OR ip_address = $3)`
	if err := r.DB.QueryRowContext(ctx, query, since, userID, ip).Scan(&n); err != nil {
		logger.Log.WithError(err).WithField("ip_address", ip).Error("Failed to execute audit count query")
		return 0, err
	}
	return n, nil
}

// Recent returns the newest entries first.
func (r *AuditLogRepository) Recent(ctx context.Context, limit int) ([]*model.AuditLog, error) {
	query := `
		SELECT id, table_name, record_id, action, user_id, ip_address, old_values, new_values, reason,
			risk_level, suspicious_activity, created_at
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1`
	rows, err := r.DB.QueryContext(ctx, query, limit)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute recent audit logs query")
		return nil, err
	}
	defer rows.Close()

	var entries []*model.AuditLog
	for rows.Next() {
		var e model.AuditLog
		if err := rows.Scan(&e.ID, &e.TableName, &e.RecordID, &e.Action, &e.UserID, &e.IPAddress, &e.OldValues,
			&e.NewValues, &e.Reason, &e.RiskLevel, &e.SuspiciousActivity, &e.CreatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan audit log row")
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
