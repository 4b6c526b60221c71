package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/pkg/response"
)

type tokenIssuer interface {
	IssueToken(req dto.DevTokenRequest) (*dto.TokenResponse, error)
}

// AuthHandler serves the development token endpoint.
type AuthHandler struct {
	service tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(service tokenIssuer) *AuthHandler {
	return &AuthHandler{service: service}
}

// DevToken godoc
// @Summary Issue development token
// @Description Mints a signed token for any identity. Not registered in production.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body dto.DevTokenRequest true "Identity"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dev/token [post]
func (h *AuthHandler) DevToken(c *gin.Context) {
	var req dto.DevTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid token payload"))
		return
	}
	token, err := h.service.IssueToken(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
