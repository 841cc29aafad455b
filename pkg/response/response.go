package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every JSON reply. Code is 0 on success and
// the HTTP status otherwise.
type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Code: 0, Message: "ok", Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Code: 0, Message: "created", Data: data})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{Code: status, Message: message})
}

func BadRequest(c *gin.Context, message string) { Error(c, http.StatusBadRequest, message) }
func Unauthorized(c *gin.Context, message string) { Error(c, http.StatusUnauthorized, message) }
func Forbidden(c *gin.Context, message string) { Error(c, http.StatusForbidden, message) }
func NotFound(c *gin.Context, message string) { Error(c, http.StatusNotFound, message) }
func Conflict(c *gin.Context, message string) { Error(c, http.StatusConflict, message) }
func InternalError(c *gin.Context, message string) { Error(c, http.StatusInternalServerError, message) }
