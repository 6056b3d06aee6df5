package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/credigo/credigo/internal/logger"
)

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware assigns a request ID to every request, honoring one
// supplied by the client
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// requestLoggerMiddleware logs each request with latency and status
func requestLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		requestID, _ := c.Get("request_id")

		if status >= http.StatusInternalServerError {
			logger.Error("%s %s -> %d (%v) request_id=%v", c.Request.Method, c.Request.URL.Path, status, latency, requestID)
		} else {
			logger.Info("%s %s -> %d (%v) request_id=%v", c.Request.Method, c.Request.URL.Path, status, latency, requestID)
		}
	}
}

// rateLimitMiddleware applies a global token-bucket limit to the API
func rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	if burst < 1 {
		burst = 1
	}

	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, APIResponse{
				Success: false,
				Error:   "Too many requests",
			})
			return
		}
		c.Next()
	}
}
