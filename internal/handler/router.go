package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biliticket/connhub/internal/config"
	"biliticket/connhub/internal/handler/middleware"
	jwtpkg "biliticket/connhub/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	connectionHandler *ConnectionHandler,
	adminHandler *AdminHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Connections of the authenticated user
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.GET("/connections", connectionHandler.List)
		protected.GET("/connections/:provider_id", connectionHandler.ListByProvider)
		protected.GET("/connections/:provider_id/:provider_user_id", connectionHandler.Get)
		protected.GET("/primary-connections/:provider_id", connectionHandler.Primary)
		protected.POST("/connections", connectionHandler.Add)
		protected.POST("/connections/lookup", connectionHandler.Lookup)
		protected.PUT("/connections/:provider_id/:provider_user_id", connectionHandler.Update)
		protected.DELETE("/connections/:provider_id", connectionHandler.RemoveProvider)
		protected.DELETE("/connections/:provider_id/:provider_user_id", connectionHandler.Remove)
	}

	// Admin routes (JWT + admin check)
	if adminHandler != nil {
		admin := r.Group("/api/v1/admin")
		admin.Use(middleware.JWTAuth(jwtManager))
		admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
		{
			admin.POST("/connections/owners", adminHandler.Owners)
			admin.POST("/connections/resolve", adminHandler.Resolve)
			admin.POST("/connections/resolve/goth", adminHandler.ResolveGothUser)
		}
	}

	return r
}
