package model

import "github.com/golang-jwt/jwt/v5"

// MicrosoftRoleClaim is the long-form role claim name some clients still read.
const MicrosoftRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// AppClaims is the claim set carried by every access token.
// Roles are written under both "role" and the long-form claim name.
type AppClaims struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	EmployeeCode string   `json:"employee_code,omitempty"`
	Roles        []string `json:"role"`
	LegacyRoles  []string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims grant role.
func (c *AppClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
