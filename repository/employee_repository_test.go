package repository

import (
	"context"
	"regexp"
	"testing"
	"time"
	"workforce-api/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	e := &model.Employee{ID: "e-1", EmployeeCode: "EMP001", FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Department: "R&D"}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WithArgs("e-1", "EMP001", "Ada", "Lovelace", "ada@example.com", "R&D", "", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	require.NoError(t, NewEmployeeRepository(db).Create(context.Background(), e))
	assert.Equal(t, now, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewEmployeeRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepository_CreateDuplicateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO employees")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err = NewEmployeeRepository(db).Create(context.Background(), &model.Employee{ID: "e-2", EmployeeCode: "EMP001"})
	assert.ErrorIs(t, err, ErrDuplicateEmployeeCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}
