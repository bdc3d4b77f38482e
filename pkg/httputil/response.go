package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medibook/scheduler-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 response
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an error to its HTTP status and stable code.
func RespondWithError(c *gin.Context, err error) {
	appErr := errors.From(err)

	// Attach to gin's error list so the logging middleware sees it.
	_ = c.Error(err)

	c.JSON(appErr.Status, Response{
		Success: false,
		Error: &Error{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
