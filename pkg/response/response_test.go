package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/pda-bills-api/pkg/errors"
	"github.com/noah-isme/pda-bills-api/pkg/middleware/requestid"
)

func serve(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorCarriesRequestID(t *testing.T) {
	w := serve(t, func(c *gin.Context) { Error(c, appErrors.ErrInsufficientBalance) })

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", body.Error.Code)
	assert.Equal(t, "req-42", body.Meta["request_id"])
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestStorageFailureSetsRetryAfter(t *testing.T) {
	w := serve(t, func(c *gin.Context) { Error(c, appErrors.Storage(errors.New("conn reset"), "save bill")) })

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestJSONOmitsEmptyMeta(t *testing.T) {
	w := serve(t, func(c *gin.Context) { JSON(c, http.StatusOK, gin.H{"id": "b-1"}, nil, map[string]interface{}{}) })

	assert.JSONEq(t, `{"data":{"id":"b-1"}}`, w.Body.String())
}
