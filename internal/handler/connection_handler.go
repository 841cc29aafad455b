package handler

import (
	"github.com/gin-gonic/gin"

	"biliticket/connhub/internal/model"
	"biliticket/connhub/internal/service"
	"biliticket/connhub/pkg/response"
)

type ConnectionHandler struct {
	connectionService service.ConnectionService
}

func NewConnectionHandler(connectionService service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: connectionService}
}

func pathKey(c *gin.Context) model.ConnectionKey {
	return model.ConnectionKey{
		ProviderID:     c.Param("provider_id"),
		ProviderUserID: c.Param("provider_user_id"),
	}
}

func (h *ConnectionHandler) List(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	all, err := h.connectionService.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "list connections failed")
		return
	}
	response.Success(c, toConnectionMap(all))
}

func (h *ConnectionHandler) ListByProvider(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	conns, err := h.connectionService.ListByProvider(c.Request.Context(), userID, c.Param("provider_id"))
	if err != nil {
		writeError(c, err, "list connections failed")
		return
	}
	response.Success(c, toConnectionResponses(conns))
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	conn, err := h.connectionService.Get(c.Request.Context(), userID, pathKey(c))
	if err != nil {
		writeError(c, err, "get connection failed")
		return
	}
	response.Success(c, toConnectionResponse(conn))
}

func (h *ConnectionHandler) Primary(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	conn, err := h.connectionService.Primary(c.Request.Context(), userID, c.Param("provider_id"))
	if err != nil {
		writeError(c, err, "get primary connection failed")
		return
	}
	response.Success(c, toConnectionResponse(conn))
}

func (h *ConnectionHandler) Lookup(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	found, err := h.connectionService.Lookup(c.Request.Context(), userID, req.Accounts)
	if err != nil {
		writeError(c, err, "lookup connections failed")
		return
	}
	response.Success(c, toConnectionMap(found))
}

func (h *ConnectionHandler) Add(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	conn, err := h.connectionService.Add(c.Request.Context(), userID, req.data())
	if err != nil {
		writeError(c, err, "add connection failed")
		return
	}
	response.Created(c, toConnectionResponse(conn))
}

func (h *ConnectionHandler) Update(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req ConnectionFields
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	conn, err := h.connectionService.Update(c.Request.Context(), userID, req.data(pathKey(c)))
	if err != nil {
		writeError(c, err, "update connection failed")
		return
	}
	response.Success(c, toConnectionResponse(conn))
}

func (h *ConnectionHandler) RemoveProvider(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	if err := h.connectionService.RemoveProvider(c.Request.Context(), userID, c.Param("provider_id")); err != nil {
		writeError(c, err, "remove connections failed")
		return
	}
	response.Success(c, nil)
}

func (h *ConnectionHandler) Remove(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	if err := h.connectionService.Remove(c.Request.Context(), userID, pathKey(c)); err != nil {
		writeError(c, err, "remove connection failed")
		return
	}
	response.Success(c, nil)
}
