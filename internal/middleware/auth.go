package middleware

import (
	"fmt"
	"strings"

	"github.com/folio-studio/folio/internal/apierr"
	"github.com/folio-studio/folio/internal/response"
	"github.com/folio-studio/folio/pkg/models"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	IdentityContextKey = "identity"
)

var (
	jwtSecret   string
	adminUserID string
)

// Claims represents JWT claims issued by the identity provider
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SetJWTSecret sets the JWT secret for the middleware
func SetJWTSecret(secret string) {
	jwtSecret = secret
}

// SetAdminUserID names a user that is treated as admin regardless of role
func SetAdminUserID(userID string) {
	adminUserID = userID
}

func parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func identityFromClaims(claims *Claims) *models.Identity {
	role := models.UserRole(claims.Role)
	if role != models.UserRoleAdmin {
		role = models.UserRoleUser
	}
	if adminUserID != "" && claims.UserID == adminUserID {
		role = models.UserRoleAdmin
	}
	return &models.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   role,
	}
}

// bearerIdentity reads the caller from the Authorization header. No header
// yields nil, nil.
func bearerIdentity(c *gin.Context) (*models.Identity, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, apierr.Unauthorized("invalid authorization format")
	}

	claims, err := parseToken(parts[1])
	if err != nil {
		return nil, apierr.Unauthorized("invalid or expired token")
	}
	return identityFromClaims(claims), nil
}

// OptionalIdentity attaches the caller's identity when a bearer token is
// present. Requests without one continue anonymously; a malformed or
// expired token is rejected.
func OptionalIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := bearerIdentity(c)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if identity != nil {
			c.Set(IdentityContextKey, identity)
		}
		c.Next()
	}
}

// LenientIdentity is OptionalIdentity for routes that must answer every
// caller: an unusable token leaves the request anonymous.
func LenientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := bearerIdentity(c); err == nil && identity != nil {
			c.Set(IdentityContextKey, identity)
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous requests. It expects OptionalIdentity to
// have run first.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetIdentity(c) == nil {
			response.AbortWithError(c, apierr.Unauthorized("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects callers that are not the site admin
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			response.AbortWithError(c, apierr.Unauthorized("authentication required"))
			return
		}
		if !identity.IsAdmin() {
			response.AbortWithError(c, apierr.Forbidden("admin access required"))
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the caller's identity from the context, or nil
func GetIdentity(c *gin.Context) *models.Identity {
	value, exists := c.Get(IdentityContextKey)
	if !exists {
		return nil
	}

	identity, _ := value.(*models.Identity)
	return identity
}
