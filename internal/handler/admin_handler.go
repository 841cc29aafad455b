package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"

	"biliticket/connhub/internal/service"
	"biliticket/connhub/pkg/response"
)

// AdminHandler serves cross-user lookups.
type AdminHandler struct {
	connectionService service.ConnectionService
}

func NewAdminHandler(connectionService service.ConnectionService) *AdminHandler {
	return &AdminHandler{connectionService: connectionService}
}

// Owners lists the users connected to any of the given provider accounts.
func (h *AdminHandler) Owners(c *gin.Context) {
	var req OwnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ids, err := h.connectionService.Owners(c.Request.Context(), req.ProviderID, req.ProviderUserIDs)
	if err != nil {
		writeError(c, err, "failed to find owners")
		return
	}
	response.Success(c, UserIDsResponse{UserIDs: ids})
}

// Resolve returns the owners of a connection, signing up a new user when
// the connection is unknown and sign-up is enabled.
func (h *AdminHandler) Resolve(c *gin.Context) {
	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	ids, err := h.connectionService.Resolve(c.Request.Context(), req.data())
	if err != nil {
		writeError(c, err, "failed to resolve connection")
		return
	}
	response.Success(c, UserIDsResponse{UserIDs: ids})
}

// ResolveGothUser is Resolve for a goth.User as produced by a goth login.
func (h *AdminHandler) ResolveGothUser(c *gin.Context) {
	var user goth.User
	if err := c.ShouldBindJSON(&user); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if user.Provider == "" || user.UserID == "" {
		response.BadRequest(c, "Provider and UserID are required")
		return
	}

	ids, err := h.connectionService.ResolveGothUser(c.Request.Context(), user)
	if err != nil {
		writeError(c, err, "failed to resolve connection")
		return
	}
	response.Success(c, UserIDsResponse{UserIDs: ids})
}
