// internal/pkg/auth/jwt.go
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orient-appliances/storefront/internal/config"
)

// Role of a signed-in principal
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDealer Role = "dealer"
)

// Claims represents the JWT claims. ID carries the server-side session id.
type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionID returns the id of the server-side session the token belongs to
func (c *Claims) SessionID() string {
	return c.ID
}

// JWTManager handles JWT operations
type JWTManager struct {
	config *config.Config
	now    func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		config: cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns how long a session of role lasts
func (j *JWTManager) TTL(role Role) time.Duration {
	if role == RoleDealer {
		return j.config.JWT.DealerSessionTTL
	}
	return j.config.JWT.AdminSessionTTL
}

// GenerateSessionToken signs a token for subject bound to sessionID. It expires with the session.
func (j *JWTManager) GenerateSessionToken(role Role, subject, email, sessionID string) (string, time.Time, error) {
	now := j.now()
	expiresAt := now.Add(j.TTL(role))

	claims := &Claims{
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    j.config.App.Name,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.config.JWT.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates and parses a JWT token
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.config.JWT.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.config.App.Name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no session")
	}

	return claims, nil
}

// ValidateRoleToken validates a token and checks it was issued for role
func (j *JWTManager) ValidateRoleToken(tokenString string, role Role) (*Claims, error) {
	claims, err := j.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Role != role {
		return nil, fmt.Errorf("invalid token role: expected %s, got %s", role, claims.Role)
	}

	return claims, nil
}

// ExtractTokenFromHeader extracts JWT token from Authorization header
func ExtractTokenFromHeader(authHeader string) string {
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}
