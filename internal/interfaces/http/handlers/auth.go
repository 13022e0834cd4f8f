// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orient-appliances/storefront/internal/config"
	"github.com/orient-appliances/storefront/internal/domain/dealer"
	"github.com/orient-appliances/storefront/internal/interfaces/http/middleware"
	"github.com/orient-appliances/storefront/internal/pkg/auth"
	"github.com/sirupsen/logrus"
)

// SessionStore keeps the server-side half of admin and dealer sessions
type SessionStore interface {
	Put(ctx context.Context, id, subject string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// DealerAuthenticator checks dealer credentials
type DealerAuthenticator interface {
	Authenticate(ctx context.Context, username, password string) (*dealer.Dealer, error)
}

// PasswordVerifier compares a password with a bcrypt hash
type PasswordVerifier interface {
	VerifyPassword(password, hash string) error
}

// AuthHandler handles admin and dealer sessions
type AuthHandler struct {
	jwtManager *auth.JWTManager
	passwords  PasswordVerifier
	sessions   SessionStore
	dealers    DealerAuthenticator
	config     *config.Config
	log        *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtManager *auth.JWTManager, passwords PasswordVerifier, sessions SessionStore, dealers DealerAuthenticator, cfg *config.Config, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		passwords:  passwords,
		sessions:   sessions,
		dealers:    dealers,
		config:     cfg,
		log:        log,
	}
}

// AdminLoginRequest is the back office login form
type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// DealerLoginRequest is the dealer login form
type DealerLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned after a successful login
type SessionResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	Role      auth.Role `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminLogin handles POST /admin/login
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	passwordErr := h.passwords.VerifyPassword(req.Password, h.config.Admin.PasswordHash)
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(h.config.Admin.Email))) == 1
	if passwordErr != nil || !emailOK {
		if passwordErr != nil && !auth.IsMismatch(passwordErr) {
			h.log.WithError(passwordErr).Error("Admin password hash could not be checked")
		}
		h.log.WithField("client_ip", c.ClientIP()).Warn("Failed admin login")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid email or password",
		})
		return
	}

	session, err := h.startSession(c.Request.Context(), auth.RoleAdmin, email, email)
	if err != nil {
		respondError(c, h.log, err, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    session,
	})
}

// DealerLogin handles POST /dealer/login
func (h *AuthHandler) DealerLogin(c *gin.Context) {
	var req DealerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.dealers.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.log, err, "Failed to log in")
		return
	}

	session, err := h.startSession(c.Request.Context(), auth.RoleDealer, strconv.FormatUint(uint64(d.ID), 10), d.Email)
	if err != nil {
		respondError(c, h.log, err, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data": gin.H{
			"session": session,
			"dealer":  d,
		},
	})
}

// Logout handles POST /admin/logout and /dealer/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), claims.SessionID()); err != nil {
		respondError(c, h.log, err, "Failed to end session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me handles GET /admin/me and /dealer/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Session is valid",
		"data": gin.H{
			"subject":    claims.Subject,
			"email":      claims.Email,
			"role":       claims.Role,
			"expires_at": claims.ExpiresAt.Time,
		},
	})
}

func (h *AuthHandler) startSession(ctx context.Context, role auth.Role, subject, email string) (*SessionResponse, error) {
	id := uuid.NewString()
	token, expiresAt, err := h.jwtManager.GenerateSessionToken(role, subject, email, id)
	if err != nil {
		return nil, err
	}
	if err := h.sessions.Put(ctx, id, subject, h.jwtManager.TTL(role)); err != nil {
		return nil, err
	}

	h.log.WithFields(logrus.Fields{"role": role, "subject": subject}).Info("Session started")
	return &SessionResponse{
		Token:     token,
		TokenType: "Bearer",
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}
