package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/middleware"
	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

// claimsFromContext returns the caller's claims or writes 401 and returns nil.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil
	}
	return claims
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return fallback
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
