package repository

import (
	"context"
	"database/sql"
	"errors"
	"workforce-api/logger"
	"workforce-api/model"
)

// IUserRepository is the read side of the user directory plus user creation.
type IUserRepository interface {
	Create(ctx context.Context, user *model.User, roles []string) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetRoles(ctx context.Context, userID string) ([]string, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// Create inserts the user and its role assignments in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *model.User, roles []string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO users (id, email, display_name, employee_code, password_hash) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err = tx.QueryRowContext(ctx, query, user.ID, user.Email, user.DisplayName, user.EmployeeCode, user.PasswordHash).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		logger.Log.WithError(err).WithField("email", user.Email).Error("Failed to execute create user query")
		return err
	}

	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, user.ID, role); err != nil {
			logger.Log.WithError(err).WithField("role", role).Error("Failed to assign role")
			return err
		}
	}

	return tx.Commit()
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, email, display_name, COALESCE(employee_code, ''), password_hash, created_at FROM users WHERE id = $1`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, email, display_name, COALESCE(employee_code, ''), password_hash, created_at FROM users WHERE email = $1`
	return r.scanUser(r.DB.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.EmployeeCode, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to scan user row")
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute query for user roles")
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
