package repository

import (
	"context"
	"database/sql"
	"time"
	"workforce-api/logger"
	"workforce-api/model"

	"github.com/sirupsen/logrus"
)

// IDuplicateLogRepository stores duplicate-submission observations.
type IDuplicateLogRepository interface {
	Create(ctx context.Context, entry *model.DuplicateLog) error
	ExistsByHashSince(ctx context.Context, entityType, hash string, since time.Time) (bool, error)
	CountBlockedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error)
}

type DuplicateLogRepository struct {
	DB *sql.DB
}

func NewDuplicateLogRepository(db *sql.DB) *DuplicateLogRepository {
	return &DuplicateLogRepository{DB: db}
}

func (r *DuplicateLogRepository) Create(ctx context.Context, entry *model.DuplicateLog) error {
	query := `
		INSERT INTO duplicate_detection_logs (entity_type, entity_id, unique_key, data_hash, user_id, ip_address,
			is_blocked, reason, original_data, new_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		entry.EntityType, entry.EntityID, entry.UniqueKey, entry.DataHash, entry.UserID, entry.IPAddress,
		entry.IsBlocked, entry.Reason, entry.OriginalData, entry.NewData, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"entity_type": entry.EntityType,
			"blocked":     entry.IsBlocked,
		}).Error("Failed to execute create duplicate log query")
		return err
	}
	return nil
}

func (r *DuplicateLogRepository) ExistsByHashSince(ctx context.Context, entityType, hash string, since time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM duplicate_detection_logs WHERE data_hash = $1 AND entity_type = $2 AND created_at >= $3)`
	if err := r.DB.QueryRowContext(ctx, query, hash, entityType, since).Scan(&exists); err != nil {
		logger.Log.WithError(err).WithField("entity_type", entityType).Error("Failed to execute duplicate lookup query")
		return false, err
	}
	return exists, nil
}

// CountBlockedSince counts blocked attempts by the user OR from the IP.
func (r *DuplicateLogRepository) CountBlockedSince(ctx context.Context, userID *string, ip string, since time.Time) (int, error) {
	var n int
	query := `SELECT COUNT(*) FROM duplicate_detection_logs WHERE is_blocked AND created_at >= $1 AND (user_id = $2 OR ip_address = $3)`
	if err := r.DB.QueryRowContext(ctx, query, since, userID, ip).Scan(&n); err != nil {
		logger.Log.WithError(err).WithField("ip_address", ip).Error("Failed to execute blocked duplicate count query")
		return 0, err
	}
	return n, nil
}
