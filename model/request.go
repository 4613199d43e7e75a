// file: model/request.go

package model

// LoginRequest defines the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RefreshRequest carries the (possibly expired) access token together with
// the refresh token issued alongside it.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// EmployeeRequest is the payload for creating or updating an employee.
type EmployeeRequest struct {
	EmployeeCode string  `json:"employee_code" validate:"required,max=32"`
	FirstName    string  `json:"first_name" validate:"required,max=100"`
	LastName     string  `json:"last_name" validate:"required,max=100"`
	Email        string  `json:"email" validate:"required,email"`
	Department   string  `json:"department" validate:"required,max=100"`
	Position     string  `json:"position,omitempty" validate:"max=100"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}
