package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"auction-lifecycle/internal/metrics"
	model "auction-lifecycle/internal/models"
	"auction-lifecycle/services/auction/helpers"
	"auction-lifecycle/utils"

	"github.com/gin-gonic/gin"
)

// PaymentKeyHeader carries the payment collaborator's shared key
const PaymentKeyHeader = "X-Payment-Key"

// TokenParser turns a bearer token into the caller it was issued to
type TokenParser interface {
	Parse(token string) (model.Caller, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	latency := time.Since(start)
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()

	metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
	metrics.HTTPLatency.WithLabelValues(route).Observe(latency.Seconds())

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  status,
		"latency": latency.String(),
	}
	if caller, ok := helpers.CallerFromContext(c); ok {
		fields["user_id"] = caller.UserID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the resulting caller under helpers.CallerKey.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			utils.AbortWithError(c, http.StatusUnauthorized,
				errors.New("missing bearer token"), "authentication required")
			return
		}

		caller, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			utils.Warn("AuthMiddleware: rejected token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			utils.AbortWithError(c, http.StatusUnauthorized, err, "authentication required")
			return
		}

		c.Set(helpers.CallerKey, caller)
		c.Next()
	}
}

// PaymentKeyMiddleware admits only requests presenting key in PaymentKeyHeader.
// An empty key rejects every request.
func PaymentKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader(PaymentKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
			utils.Warn("PaymentKeyMiddleware: rejected payment collaborator", map[string]any{
				"path":      c.Request.URL.Path,
				"key_given": presented != "",
			})
			utils.AbortWithError(c, http.StatusUnauthorized,
				errors.New("invalid payment key"), "payment collaborator credential required")
			return
		}
		c.Next()
	}
}
