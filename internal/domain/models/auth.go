package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims represents the JWT claims supplied by the external identity
// provider. The engine trusts the verified subject id (sub) and never
// performs authentication itself.
type IdentityClaims struct {
	jwt.RegisteredClaims
	Email       string                 `json:"email"`
	AppMetadata map[string]interface{} `json:"app_metadata"`
	Role        string                 `json:"role"` // "authenticated" or "anon"
	SessionID   string                 `json:"session_id"`
	IsAnonymous bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *IdentityClaims) GetUserID() string {
	return c.Subject
}
