package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"workforce-api/model"
	"workforce-api/repository"

	"github.com/google/uuid"
)

var validRoles = map[string]bool{
	model.RoleAdmin:    true,
	model.RoleManager:  true,
	model.RoleEmployee: true,
}

// UserService handles user-directory provisioning.
type UserService struct {
	userRepo repository.IUserRepository
	auth     *AuthService
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.IUserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

// CreateUser validates roles, hashes the password and stores the user.
func (s *UserService) CreateUser(ctx context.Context, email, displayName, employeeCode, password string, roles []string) (*model.User, error) {
	if len(roles) == 0 {
		return nil, errors.New("at least one role is required")
	}
	for _, role := range roles {
		if !validRoles[role] {
			return nil, fmt.Errorf("invalid role specified: %s", role)
		}
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		EmployeeCode: employeeCode,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user, roles); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}
