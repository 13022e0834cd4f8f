// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

const (
	claimsKey  = "token_claims"
	subjectKey = "subject"
)

// SessionChecker looks up the server-side half of a session
type SessionChecker interface {
	Subject(ctx context.Context, id string) (string, bool, error)
}

// RequireRole accepts only tokens of role whose session is still live on the server
func RequireRole(jwtManager *auth.JWTManager, sessions SessionChecker, role auth.Role, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := jwtManager.ValidateRoleToken(tokenString, role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		subject, ok, err := sessions.Subject(c.Request.Context(), claims.SessionID())
		if err != nil {
			log.WithError(err).Error("Session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": "Session store unavailable",
			})
			return
		}
		if !ok || subject != claims.Subject {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Session expired or revoked",
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(subjectKey, claims.Subject)
		c.Next()
	}
}

// GetClaims returns the verified token claims of the request
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}

// GetSubject returns the authenticated subject, or "" for anonymous requests
func GetSubject(c *gin.Context) string {
	return c.GetString(subjectKey)
}
