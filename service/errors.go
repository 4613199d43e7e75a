package service

import "errors"

// Rejections: the request was understood and refused.
var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrInvalidToken             = errors.New("invalid or expired token")
	ErrTokenRevoked             = errors.New("token has been revoked")
	ErrSessionExpired           = errors.New("session is no longer active")
	ErrInvalidRefreshToken      = errors.New("invalid refresh token")
	ErrDuplicateSubmission      = errors.New("duplicate submission detected")
	ErrTooManyDuplicateAttempts = errors.New("too many duplicate submissions, try again later")
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrUserNotFound             = errors.New("user not found")
	ErrEmployeeCodeTaken        = errors.New("employee code already in use")
	ErrEmailTaken               = errors.New("email already registered")
)

var rejections = []error{
	ErrInvalidCredentials,
	ErrInvalidToken,
	ErrTokenRevoked,
	ErrSessionExpired,
	ErrInvalidRefreshToken,
	ErrDuplicateSubmission,
	ErrTooManyDuplicateAttempts,
	ErrEmployeeNotFound,
	ErrUserNotFound,
	ErrEmployeeCodeTaken,
	ErrEmailTaken,
}

// IsRejection reports whether err is a validation-style refusal rather than
// an infrastructure failure. Callers may retry the latter, never the former.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
