package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"consultbot/middleware"
	"consultbot/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestHealthRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, nil, middleware.NewKeyedLimiter(rate.Inf, 1))

	utils.RunHealthChecks(context.Background(), map[string]utils.HealthCheck{
		"redis": func(context.Context) error { return nil },
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body utils.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Services["redis"])

	utils.RunHealthChecks(context.Background(), map[string]utils.HealthCheck{
		"redis": func(context.Context) error { return errors.New("down") },
	})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebhookNotRegisteredWithoutBot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, nil, middleware.NewKeyedLimiter(rate.Inf, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, WebhookPath, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
