package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the only role allowed through the admin guard.
const RoleAdmin = "admin"

// AdminTokenPayload is what an operator supplies when minting a token.
type AdminTokenPayload struct {
	Subject string
	Role    string
	JTI     string
}

// AdminClaims is the JWT body presented on /api/admin routes.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

func (c AdminClaims) check() error {
	if c.Subject == "" {
		return errors.New("token subject is required")
	}
	if c.Role != RoleAdmin {
		return fmt.Errorf("invalid role %q", c.Role)
	}
	return nil
}
