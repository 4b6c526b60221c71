package dto

import "github.com/noah-isme/pda-bills-api/internal/models"

// DevTokenRequest asks the development token endpoint for a signed token.
type DevTokenRequest struct {
	UserID     string            `json:"user_id" validate:"required"`
	Name       string            `json:"name"`
	Role       models.Role       `json:"role" validate:"required"`
	Department models.Department `json:"department" validate:"required"`
}

// TokenResponse returns an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
