package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"
	"workforce-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRequestLogRepository(db)
	userID := "u-1"
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entry := &model.RequestLog{
		IPAddress:          "10.0.0.1",
		UserID:             &userID,
		Endpoint:           "/api/employees",
		Method:             "POST",
		ContentHash:        "abc",
		StatusCode:         201,
		LatencyMs:          12,
		RequestsLastMinute: 3,
		RequestsLastHour:   9,
		DuplicateHashCount: 1,
		CreatedAt:          now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO request_logs")).
		WithArgs("10.0.0.1", "u-1", "/api/employees", "POST", "abc", "", 201, int64(12), 3, 9, 1, false, "", now).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.Equal(t, int64(42), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestLogRepository_Counts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRequestLogRepository(db)
	ctx := context.Background()
	since := time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)

	t.Run("by ip", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM request_logs WHERE ip_address = $1 AND created_at >= $2")).
			WithArgs("10.0.0.1", since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(61))

		n, err := repo.CountByIPSince(ctx, "10.0.0.1", since)
		assert.NoError(t, err)
		assert.Equal(t, 61, n)
	})

	t.Run("by content hash", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE content_hash = $1")).
			WithArgs("deadbeef", since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		n, err := repo.CountByContentHashSince(ctx, "deadbeef", since)
		assert.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("spam flagged for anonymous actor", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_spam_detected")).
			WithArgs(since, nil, "10.0.0.1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		n, err := repo.CountSpamFlaggedSince(ctx, nil, "10.0.0.1", since)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
			WithArgs("u-1", since).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.CountByUserSince(ctx, "u-1", since)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestLogRepository_DeleteOlderThan(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cutoff := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM request_logs WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := NewRequestLogRepository(db).DeleteOlderThan(context.Background(), cutoff)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
