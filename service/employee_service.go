package service

import (
	"context"
	"errors"
	"fmt"
	"workforce-api/logger"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const employeeEntity = "Employee"
const employeesTable = "Employees"

// Actor identifies who performs a mutation.
type Actor struct {
	UserID    *string
	IPAddress string
}

// EmployeeService is employee CRUD with duplicate prevention and auditing.
type EmployeeService struct {
	repo       repository.IEmployeeRepository
	duplicates *DuplicateGuard
	audit      *AuditTrail
}

func NewEmployeeService(repo repository.IEmployeeRepository, duplicates *DuplicateGuard, audit *AuditTrail) *EmployeeService {
	return &EmployeeService{
		repo:       repo,
		duplicates: duplicates,
		audit:      audit,
	}
}

func (s *EmployeeService) List(ctx context.Context) ([]*model.Employee, error) {
	return s.repo.List(ctx)
}

// Create rejects actors with a burst of blocked duplicates and payloads
// already submitted within the duplicate window.
func (s *EmployeeService) Create(ctx context.Context, actor Actor, req model.EmployeeRequest) (*model.Employee, error) {
	if err := s.guard(ctx, actor, req, "", nil); err != nil {
		return nil, err
	}

	employee := &model.Employee{ID: uuid.NewString()}
	applyEmployeeRequest(employee, req)
	if err := s.repo.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmployeeCode) {
			return nil, ErrEmployeeCodeTaken
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}

	s.recordSubmission(ctx, actor, req, employee.ID, nil)
	s.logAction(ctx, actor, employee.ID, model.ActionInsert, nil, employee)
	return employee, nil
}

func (s *EmployeeService) Update(ctx context.Context, actor Actor, id string, req model.EmployeeRequest) (*model.Employee, error) {
	existing, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard(ctx, actor, req, id, existing); err != nil {
		return nil, err
	}

	before := *existing
	applyEmployeeRequest(existing, req)
	if err := s.repo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		if errors.Is(err, repository.ErrDuplicateEmployeeCode) {
			return nil, ErrEmployeeCodeTaken
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}

	s.recordSubmission(ctx, actor, req, id, &before)
	s.logAction(ctx, actor, id, model.ActionUpdate, &before, existing)
	return existing, nil
}

func (s *EmployeeService) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("delete employee: %w", err)
	}

	s.logAction(ctx, actor, id, model.ActionDelete, existing, nil)
	return nil
}

func (s *EmployeeService) get(ctx context.Context, id string) (*model.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}
	return employee, nil
}

func (s *EmployeeService) guard(ctx context.Context, actor Actor, req model.EmployeeRequest, entityID string, original *model.Employee) error {
	if s.duplicates.HasRecentDuplicateAttempts(ctx, actor.UserID, actor.IPAddress, 0) {
		return ErrTooManyDuplicateAttempts
	}
	if !s.duplicates.IsDuplicateData(ctx, req, employeeEntity, req.EmployeeCode) {
		return nil
	}

	var originalData interface{}
	if original != nil {
		originalData = original
	}
	err := s.duplicates.LogDuplicateAttempt(ctx, DuplicateAttempt{
		EntityType:   employeeEntity,
		EntityID:     entityID,
		UniqueKey:    req.EmployeeCode,
		Entity:       req,
		UserID:       actor.UserID,
		IPAddress:    actor.IPAddress,
		Blocked:      true,
		Reason:       "identical employee data submitted within the duplicate window",
		OriginalData: originalData,
		NewData:      req,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("Failed to record blocked duplicate attempt")
	}
	return ErrDuplicateSubmission
}

// recordSubmission registers an accepted payload so a resubmission is
// recognised as a duplicate.
func (s *EmployeeService) recordSubmission(ctx context.Context, actor Actor, req model.EmployeeRequest, entityID string, original *model.Employee) {
	var originalData interface{}
	if original != nil {
		originalData = original
	}
	err := s.duplicates.LogDuplicateAttempt(ctx, DuplicateAttempt{
		EntityType:   employeeEntity,
		EntityID:     entityID,
		UniqueKey:    req.EmployeeCode,
		Entity:       req,
		UserID:       actor.UserID,
		IPAddress:    actor.IPAddress,
		OriginalData: originalData,
		NewData:      req,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("employee_id", entityID).Warn("Failed to record employee submission hash")
	}
}

func (s *EmployeeService) logAction(ctx context.Context, actor Actor, id, action string, before, after *model.Employee) {
	act := AuditAction{
		Table:     employeesTable,
		RecordID:  id,
		Action:    action,
		UserID:    actor.UserID,
		IPAddress: actor.IPAddress,
	}
	if before != nil {
		act.OldValues = before
	}
	if after != nil {
		act.NewValues = after
	}
	if _, err := s.audit.LogAction(ctx, act); err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"employee_id": id,
			"action":      action,
		}).Warn("Employee change was applied but not audited")
	}
}

func applyEmployeeRequest(e *model.Employee, req model.EmployeeRequest) {
	e.EmployeeCode = req.EmployeeCode
	e.FirstName = req.FirstName
	e.LastName = req.LastName
	e.Email = req.Email
	e.Department = req.Department
	e.Position = req.Position
	e.Phone = req.Phone
}
