package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/pda-bills-api/internal/models"
	"github.com/noah-isme/pda-bills-api/internal/service"
	"github.com/noah-isme/pda-bills-api/pkg/config"
	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.token = token
	return v.claims, v.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c)})
	})
	r.GET("/balances/:employeeId", handlers...)
	return r
}

func serve(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee}}
	r := newRouter(JWT(stub))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/balances/emp-1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/balances/emp-1", "Basic abc").Code)

	rec := serve(r, "/balances/emp-1", "Bearer good-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good-token", stub.token)
	assert.Contains(t, rec.Body.String(), "emp-1")

	stub.err = appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/balances/emp-1", "Bearer bad").Code)
}

func TestJWTMiddlewareWithAuthService(t *testing.T) {
	auth := service.NewAuthService(service.AuthConfig{Secret: "secret", Issuer: "pda-bills-api"}, nil, nil)
	r := newRouter(JWT(auth))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/balances/emp-1", "Bearer not-a-jwt").Code)
}

func TestRBACMiddleware(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "emp-1", Role: models.RoleEmployee}}
	r := newRouter(JWT(stub), RBAC(string(models.RoleAdmin), Self))

	assert.Equal(t, http.StatusOK, serve(r, "/balances/emp-1", "Bearer t").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "/balances/emp-2", "Bearer t").Code)

	stub.claims = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	assert.Equal(t, http.StatusOK, serve(r, "/balances/emp-2", "Bearer t").Code)

	onlyAdmin := newRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, serve(onlyAdmin, "/balances/emp-1", "").Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics))

	serve(r, "/balances/emp-1", "")

	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareSkipsProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/health", "")
	assert.Equal(t, uint64(0), metrics.Snapshot().RequestsTotal)

	assert.Equal(t, http.StatusNotFound, serve(r, "/wp-admin/setup.php", "").Code)
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var meta map[string]interface{}
	r.GET("/x", WithResponseMeta(), func(c *gin.Context) {
		SetReplayed(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	serve(r, "/x", "")

	assert.Equal(t, true, meta[replayedKey])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestSecureHeaders(t *testing.T) {
	r := newRouter(Secure(config.SecurityConfig{}, config.EnvDevelopment))

	rec := serve(r, "/balances/emp-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
