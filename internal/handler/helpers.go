package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"biliticket/connhub/internal/handler/middleware"
	"biliticket/connhub/internal/provider"
	"biliticket/connhub/internal/repository"
	jwtpkg "biliticket/connhub/pkg/jwt"
	"biliticket/connhub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (string, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return "", ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok || claims.Subject == "" {
		return "", ErrNoClaims
	}
	return claims.Subject, nil
}

// writeError maps repository and registry errors onto HTTP statuses.
func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, repository.ErrNoSuchConnection),
		errors.Is(err, repository.ErrNotConnected):
		response.NotFound(c, err.Error())
	case errors.Is(err, repository.ErrDuplicateConnection):
		response.Conflict(c, err.Error())
	case errors.Is(err, repository.ErrInvalidArgument),
		errors.Is(err, provider.ErrFactoryNotFound):
		response.BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c, fallback)
	}
}
