package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/votetripling/ambassador-api/internal/api/middleware"
	"github.com/votetripling/ambassador-api/internal/api/shared/types"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	admin := middleware.RequireRoles(types.RoleAdmin)
	ambassador := middleware.RequireRoles(types.RoleAmbassador)
	anyRole := middleware.RequireRoles(types.RoleAdmin, types.RoleAmbassador)

	v1 := router.Group("/api/v1", middleware.Auth(authCfg), middleware.PrincipalScope())
	{
		// Admin endpoints
		v1.POST("/triplers", admin, handler.CreateTripler)
		v1.PUT("/triplers/:id", admin, handler.UpdateTripler)
		v1.DELETE("/triplers/:id", admin, handler.DeleteTripler)
		v1.PUT("/triplers/:id/confirm", admin, handler.ConfirmTripler)
		v1.PUT("/triplers/:id/reconfirm", admin, handler.ReconfirmTripler)
		v1.GET("/admin/triplers", admin, handler.AdminSearchTriplers)
		v1.POST("/ambassadors", admin, handler.CreateAmbassador)

		// Fuzzy search, ranked by role
		v1.GET("/triplers", anyRole, handler.SearchTriplers)

		// Ambassador endpoints
		v1.GET("/suggest-triplers", ambassador, handler.SuggestTriplers)
		v1.GET("/triplers-limit", ambassador, handler.GetTriplerLimit)
		v1.GET("/triplers/:id", ambassador, handler.GetTripler)
		v1.POST("/triplers/:id/claim", ambassador, handler.ClaimTripler)
		v1.DELETE("/triplers/:id/claim", anyRole, handler.DetachTripler)
		v1.PUT("/triplers/:id/start-confirm", ambassador, handler.StartConfirmation)
		v1.PUT("/triplers/:id/remind", ambassador, handler.RemindTripler)
	}
}
