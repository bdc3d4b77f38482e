package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medibook/scheduler-api/pkg/httputil"
	apperrors "github.com/medibook/scheduler-api/pkg/errors"
)

// Recovery turns panics into 500 responses and logs the stack.
func Recovery(log *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("request panic recovered")

				c.Abort()
				httputil.RespondWithError(c, &apperrors.AppError{
					Code:    apperrors.CodePersistence,
					Status:  http.StatusInternalServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}
