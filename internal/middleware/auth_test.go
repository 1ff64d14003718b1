// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/accessramp/ramp-backend/internal/utils"
)

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doGet(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("GET", path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejectsMissingHeader(t *testing.T) {
	r := protectedRouter()
	w := doGet(r, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredRejectsMalformedHeader(t *testing.T) {
	r := protectedRouter()
	for _, header := range []string{"sometoken", "Basic abc", "Bearer"} {
		w := doGet(r, "/protected", header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestAuthRequiredRejectsGarbageToken(t *testing.T) {
	r := protectedRouter()
	w := doGet(r, "/protected", "Bearer not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateJWT(uuid.New(), "staff@accessramp.example", "staff", 1)
	assert.NoError(t, err)

	r := protectedRouter()
	w := doGet(r, "/protected", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRequiredRejectsStaffRole(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateJWT(uuid.New(), "staff@accessramp.example", "staff", 1)
	assert.NoError(t, err)

	r := protectedRouter()
	w := doGet(r, "/admin", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRequiredAcceptsAdminRole(t *testing.T) {
	utils.SetJWTSecret("middleware-test-secret")
	token, err := utils.GenerateJWT(uuid.New(), "admin@accessramp.example", "admin", 1)
	assert.NoError(t, err)

	r := protectedRouter()
	w := doGet(r, "/admin", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIntakeAuthRejectsWhenUnconfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/intake", IntakeAuth(""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest("POST", "/intake", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// An empty configured token must never accept anything.
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
