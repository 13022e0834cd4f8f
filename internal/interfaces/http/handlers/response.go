// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orient-appliances/storefront/internal/domain/cart"
	"github.com/orient-appliances/storefront/internal/domain/checkout"
	"github.com/orient-appliances/storefront/internal/domain/dealer"
	"github.com/orient-appliances/storefront/internal/domain/order"
	"github.com/orient-appliances/storefront/internal/domain/pricing"
	"github.com/orient-appliances/storefront/internal/domain/product"
	"github.com/orient-appliances/storefront/internal/domain/upload"
	"github.com/orient-appliances/storefront/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

const sessionCookie = "session_id"

// respondError maps domain errors onto the error envelope
func respondError(c *gin.Context, log *logrus.Logger, err error, fallback string) {
	status, body := errorBody(c, log, err, fallback)
	c.JSON(status, body)
}

func errorBody(c *gin.Context, log *logrus.Logger, err error, fallback string) (int, gin.H) {
	var validation *apperror.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, gin.H{
			"error":   validation.Message,
			"details": validation.Fields,
		}
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		dealer.IsNotFound(err):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, pricing.ErrUnavailable):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	case errors.Is(err, checkout.ErrSubmissionInFlight),
		errors.Is(err, order.ErrStale),
		errors.Is(err, dealer.ErrAlreadyDecided):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, dealer.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"error": err.Error()}
	case errors.Is(err, cart.ErrPersist):
		log.WithError(err).Error("Cart storage unavailable")
		return http.StatusServiceUnavailable, gin.H{
			"error":   "Cart could not be saved, please try again",
			"details": err.Error(),
		}
	default:
		log.WithError(err).WithField("request_id", c.GetString("request_id")).Error(fallback)
		return http.StatusInternalServerError, gin.H{"error": fallback}
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// sessionID returns the shopper session from the cookie, starting a new one when absent
func sessionID(c *gin.Context, maxAge int) string {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	id := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, maxAge, "/", "", c.Request.TLS != nil, true)
	return id
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func formFile(c *gin.Context, field string) *upload.File {
	h, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	f := upload.FromMultipart(h)
	return &f
}

func formFiles(c *gin.Context, fields ...string) []upload.File {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	var headers []*multipart.FileHeader
	for _, field := range fields {
		headers = append(headers, form.File[field]...)
	}
	files := make([]upload.File, len(headers))
	for i, h := range headers {
		files[i] = upload.FromMultipart(h)
	}
	return files
}
