package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pda-bills-api/internal/dto"
	"github.com/noah-isme/pda-bills-api/internal/models"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

func newTestAuthService() *AuthService {
	return NewAuthService(AuthConfig{Secret: "secret", Issuer: "pda-bills-api", Expiration: time.Hour}, nil, nil)
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newTestAuthService()

	resp, err := svc.IssueToken(dto.DevTokenRequest{UserID: "emp-1", Name: "Asha", Role: models.RoleSNP, Department: models.DepartmentStudentPurchase})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, models.RoleSNP, claims.Role)
	assert.Equal(t, models.DepartmentStudentPurchase, claims.Department)
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	svc := newTestAuthService()

	other := NewAuthService(AuthConfig{Secret: "other", Issuer: "pda-bills-api"}, nil, nil)
	resp, err := other.IssueToken(dto.DevTokenRequest{UserID: "emp-1", Role: models.RoleEmployee, Department: models.DepartmentCSE})
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := NewAuthService(AuthConfig{Secret: "secret", Issuer: "someone-else"}, nil, nil)
	resp, err = wrongIssuer.IssueToken(dto.DevTokenRequest{UserID: "emp-1", Role: models.RoleEmployee, Department: models.DepartmentCSE})
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		Role:             models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "pda-bills-api"},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceIssueValidation(t *testing.T) {
	svc := newTestAuthService()

	_, err := svc.IssueToken(dto.DevTokenRequest{UserID: "emp-1", Role: models.Role("ROOT"), Department: models.DepartmentCSE})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.IssueToken(dto.DevTokenRequest{Role: models.RoleAdmin, Department: models.DepartmentCSE})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
