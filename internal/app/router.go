// internal/app/router.go
package app

import (
	dashboardHandler "junketops-service/internal/handlers/dashboard"
	tokenHandler "junketops-service/internal/handlers/token"
	tripHandler "junketops-service/internal/handlers/trip"
	wsHandler "junketops-service/internal/handlers/ws"
	"junketops-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	DashboardHandler *dashboardHandler.DashboardHandler
	TripHandler      *tripHandler.TripHandler
	TokenHandler     *tokenHandler.TokenHandler
	WSHandler        *wsHandler.WebSocketHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Dev Tokens ====================
	// Only wired when ENABLE_DEV_TOKENS=true; lets a local dashboard mint
	// tokens without a real identity provider.
	if h.TokenHandler != nil {
		api.POST("/auth/dev-token", h.TokenHandler.Mint)
	}

	// ==================== Dashboard ====================
	dashboard := api.Group("/dashboard")
	dashboard.Use(h.AuthMiddleware.Authenticated()...)
	{
		dashboard.GET("", h.DashboardHandler.GetDashboard)
		dashboard.GET("/customers", h.DashboardHandler.GetRankedCustomers)
	}

	dashboardAdmin := api.Group("/dashboard")
	dashboardAdmin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		dashboardAdmin.POST("/refresh", h.DashboardHandler.Refresh)
	}

	// ==================== Trips ====================
	trips := api.Group("/trips")
	trips.Use(h.AuthMiddleware.Authenticated()...)
	{
		trips.GET("/:id/summary", h.TripHandler.GetTripSummary)
	}

	tripsAdmin := api.Group("/trips")
	tripsAdmin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		tripsAdmin.POST("/:id/refresh", h.TripHandler.RefreshTrip)
	}

	// ==================== ADMIN ROUTES ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
