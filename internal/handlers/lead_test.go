// internal/handlers/lead_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/accessramp/ramp-backend/internal/middleware"
	"github.com/accessramp/ramp-backend/internal/services"
)

const testIntakeToken = "intake-test-token"

func newIntakeRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	leadHandler := NewLeadHandler(&services.LeadService{})
	r.POST("/v1/public/leads/intake", middleware.IntakeAuth(testIntakeToken), leadHandler.Intake)
	return r
}

func postIntake(r *gin.Engine, token string, body interface{}) *httptest.ResponseRecorder {
	jsonData, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", "/v1/public/leads/intake", bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIntakeRejectsMissingToken(t *testing.T) {
	r := newIntakeRouter()

	w := postIntake(r, "", map[string]interface{}{
		"customer": map[string]string{"first_name": "Pat"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response["success"].(bool))
}

func TestIntakeRejectsWrongToken(t *testing.T) {
	r := newIntakeRouter()

	w := postIntake(r, "some-other-token", map[string]interface{}{
		"customer": map[string]string{"first_name": "Pat"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIntakeRejectsMissingFields(t *testing.T) {
	r := newIntakeRouter()

	w := postIntake(r, testIntakeToken, map[string]interface{}{
		"customer": map[string]string{
			"first_name": "Pat",
			// last_name and email missing
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response["success"].(bool))
}

func TestIntakeRejectsBadEmail(t *testing.T) {
	r := newIntakeRouter()

	w := postIntake(r, testIntakeToken, map[string]interface{}{
		"customer": map[string]string{
			"first_name": "Pat",
			"last_name":  "Doyle",
			"email":      "not-an-email",
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIntakeRejectsMalformedBody(t *testing.T) {
	r := newIntakeRouter()

	req, _ := http.NewRequest("POST", "/v1/public/leads/intake", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testIntakeToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
