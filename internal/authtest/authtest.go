// Package authtest signs bearer tokens for tests. The API only verifies
// tokens issued by the identity provider.
package authtest

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token signs an HS256 token carrying the claims the API reads. A negative
// ttl yields an already expired token.
func Token(secret, userID, name, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"name":    name,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
