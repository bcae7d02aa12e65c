package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderRole      = "X-Sharevault-Role"

	requestIDKey = "request_id"
)

// RequestID takes the caller's X-Request-ID or generates one, and echoes
// it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			l.Error(c.Request.Context(), "request failed", args...)
		default:
			l.Debug(c.Request.Context(), "request handled", args...)
		}
	}
}

// Recovery turns a panic in a handler into a 500 response.
func Recovery(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				l.Error(c.Request.Context(), "panic in handler",
					"panic", fmt.Sprint(recovered), "request_id", c.GetString(requestIDKey))
				abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
			}
		}()
		c.Next()
	}
}

// RoleFromRequest puts the role named by the X-Sharevault-Role header or
// the role query parameter into the request context. Unknown roles are
// ignored.
func RoleFromRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.GetHeader(HeaderRole)
		if name == "" {
			name = c.Query(common.ParamRole)
		}
		if role, ok := models.ParseRole(name); ok {
			c.Request = c.Request.WithContext(access.WithRole(c.Request.Context(), role))
		}
		c.Next()
	}
}
