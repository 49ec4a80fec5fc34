package routes

import (
	"consultbot/handlers"
	"consultbot/middleware"

	"github.com/gin-gonic/gin"
)

const WebhookPath = "/telegram/webhook"

// RegisterRoutes registers the health endpoint and, when bot is set, the Telegram webhook.
func RegisterRoutes(r *gin.Engine, bot *handlers.Bot, limiter *middleware.KeyedLimiter) {
	r.GET("/health", handlers.HealthHandler)

	if bot != nil {
		tg := r.Group("/telegram")
		tg.Use(middleware.RateLimitMiddleware(limiter))
		tg.POST("/webhook", handlers.TelegramWebhookHandler(bot))
	}
}
