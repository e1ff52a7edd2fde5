package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/library-seat-api/internal/backend"
	"github.com/noah-isme/library-seat-api/internal/models"
	"github.com/noah-isme/library-seat-api/internal/service"
	appErrors "github.com/noah-isme/library-seat-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
}

func newRouter(role models.UserRole) *gin.Engine {
	return newRouterWithClaims(&models.JWTClaims{UserID: "u1", Role: role})
}

func newRouterWithClaims(claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", JWT(stubValidator{claims: claims}), RBAC(models.RoleAdmin), func(c *gin.Context) {
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"token": backend.TokenFromContext(ctx),
			"scope": backend.ScopeFromContext(ctx),
			"user":  CurrentClaims(c).UserID,
		}})
	})
	return r
}

func serve(r *gin.Engine, authHeader string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestJWTForwardsTokenToBackendContext(t *testing.T) {
	w, env := serve(newRouter(models.RoleAdmin), "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good", env.Data["token"])
	assert.Equal(t, "admin:u1", env.Data["scope"])
	assert.Equal(t, "u1", env.Data["user"])
}

func TestJWTScopesCallerByLibrary(t *testing.T) {
	r := newRouterWithClaims(&models.JWTClaims{UserID: "u7", Role: models.RoleAdmin, LibraryID: "north"})
	w, env := serve(r, "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "library:north", env.Data["scope"])
}

func TestJWTScopesAnonymousClaimsByToken(t *testing.T) {
	r := newRouterWithClaims(&models.JWTClaims{Role: models.RoleAdmin})
	w, env := serve(r, "Bearer good")
	require.Equal(t, http.StatusOK, w.Code)
	scope, _ := env.Data["scope"].(string)
	assert.True(t, strings.HasPrefix(scope, "token:"), scope)
	assert.NotContains(t, scope, "good")
}

func TestJWTRejectsMissingAndInvalidTokens(t *testing.T) {
	r := newRouter(models.RoleAdmin)

	for _, header := range []string{"", "Token good", "Bearer bad"} {
		w, env := serve(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		require.NotNil(t, env.Error, header)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, env.Error.Code)
	}
}

func TestRBACRejectsNonAdmins(t *testing.T) {
	w, env := serve(newRouter(models.RoleStudent), "Bearer good")
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrForbidden.Code, env.Error.Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RBAC(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/bookings/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bookings/17", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	body := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(body, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, body.Body.String(), `http_requests_total{method="GET",path="/bookings/:id",status="204"} 1`)
}

func TestMetricsMiddlewareCollapsesUnknownRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))

	for _, path := range []string{"/wp-login.php", "/.env"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	}

	body := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(body, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, body.Body.String(), `http_requests_total{method="GET",path="unmatched",status="404"} 2`)
	assert.NotContains(t, body.Body.String(), "wp-login")
}
