package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/logging"
	"github.com/dmitrijs2005/wellkeeper/internal/server/auth"
	"github.com/dmitrijs2005/wellkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// authMiddleware verifies the bearer token and stores the user id in the
// context. It aborts before the handler so no request body is consumed.
func authMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)

		if !found || !strings.EqualFold(scheme, common.BearerScheme) || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "No token provided"})
			return
		}

		userID, err := auth.GetUserIDFromToken(token, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "Invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requestLogger writes one line per request. Query strings are left out
// so tokens passed there never reach the log.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.IncInFlight()
		defer m.DecInFlight()

		c.Next()

		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
