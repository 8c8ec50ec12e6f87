package auth

import "lodestar/internal/domain/models"

// JWTVerifier verifies bearer tokens issued by the external identity
// provider. The platform never authenticates users itself; the verified
// subject id is the only identity input the engine trusts.
type JWTVerifier interface {
	// VerifyToken validates a JWT and returns the parsed claims. Returns an
	// error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.IdentityClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
