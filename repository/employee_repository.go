package repository

import (
	"context"
	"database/sql"
	"errors"
	"workforce-api/logger"
	"workforce-api/model"

	"github.com/sirupsen/logrus"
)

type IEmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context) ([]*model.Employee, error)
	Update(ctx context.Context, employee *model.Employee) error
	Delete(ctx context.Context, id string) error
}

type EmployeeRepository struct {
	DB *sql.DB
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{DB: db}
}

// Create adds a new employee to the database.
func (r *EmployeeRepository) Create(ctx context.Context, e *model.Employee) error {
	log := logger.Log.WithFields(logrus.Fields{
		"employee_id":   e.ID,
		"employee_code": e.EmployeeCode,
	})
	log.Info("Executing query to create a new employee")

	query := `
		INSERT INTO employees (id, employee_code, first_name, last_name, email, department, position, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, e.ID, e.EmployeeCode, e.FirstName, e.LastName, e.Email, e.Department, e.Position, e.Phone).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmployeeCode
		}
		log.WithError(err).Error("Failed to execute create employee query")
		return err
	}
	return nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	query := `
		SELECT id, employee_code, first_name, last_name, email, department, position, phone, created_at, updated_at
		FROM employees WHERE id = $1`
	var e model.Employee
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.EmployeeCode, &e.FirstName, &e.LastName, &e.Email,
		&e.Department, &e.Position, &e.Phone, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).WithField("employee_id", id).Error("Failed to execute get employee query")
		return nil, err
	}
	return &e, nil
}

func (r *EmployeeRepository) List(ctx context.Context) ([]*model.Employee, error) {
	query := `
		SELECT id, employee_code, first_name, last_name, email, department, position, phone, created_at, updated_at
		FROM employees ORDER BY employee_code`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute list employees query")
		return nil, err
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.EmployeeCode, &e.FirstName, &e.LastName, &e.Email, &e.Department, &e.Position,
			&e.Phone, &e.CreatedAt, &e.UpdatedAt); err != nil {
			logger.Log.WithError(err).Error("Failed to scan employee row")
			return nil, err
		}
		employees = append(employees, &e)
	}
	return employees, rows.Err()
}

func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	query := `
		UPDATE employees
		SET employee_code = $2, first_name = $3, last_name = $4, email = $5, department = $6, position = $7, phone = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query, e.ID, e.EmployeeCode, e.FirstName, e.LastName, e.Email, e.Department, e.Position, e.Phone).
		Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateEmployeeCode
		}
		logger.Log.WithError(err).WithField("employee_id", e.ID).Error("Failed to execute update employee query")
		return err
	}
	return nil
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		logger.Log.WithError(err).WithField("employee_id", id).Error("Failed to execute delete employee query")
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
