package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload issued by the identity provider.
type JWTClaims struct {
	UserID     string     `json:"user_id"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
	Name       string     `json:"name"`
	jwt.RegisteredClaims
}
