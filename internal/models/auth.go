package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the roles carried in backend-issued tokens.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// JWTClaims represents the access token payload issued by the library backend.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	// LibraryID is set when the backend scopes the admin to one library.
	LibraryID string   `json:"library_id,omitempty"`
	jwt.RegisteredClaims
}

// Scope names the slice of backend data the token can see. Admins of the same
// library share a scope; otherwise every admin is their own scope.
func (c *JWTClaims) Scope() string {
	if c == nil {
		return ""
	}
	if c.LibraryID != "" {
		return "library:" + c.LibraryID
	}
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return ""
	}
	return "admin:" + id
}
