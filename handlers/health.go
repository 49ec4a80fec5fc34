package handlers

import (
	"net/http"

	"consultbot/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthHandler reports the last dependency health snapshot.
func HealthHandler(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
		getLogger(c).Warn("Health check reports degraded services", zap.Any("services", status.Services))
	}
	c.JSON(code, status)
}
