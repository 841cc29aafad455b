package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"biliticket/connhub/internal/config"
)

// CORS is a no-op when no origin is configured.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	cc := cors.DefaultConfig()
	cc.AllowOrigins = cfg.AllowedOrigins
	if len(cfg.AllowedMethods) > 0 {
		cc.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		cc.AllowHeaders = cfg.AllowedHeaders
	}
	cc.AllowCredentials = cfg.AllowCredentials
	if cfg.MaxAge > 0 {
		cc.MaxAge = time.Duration(cfg.MaxAge.Seconds()) * time.Second
	}
	return cors.New(cc)
}
