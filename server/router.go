// Package server - HTTP host exposing the classification function.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/function"
)

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 1 << 20

// Invoker runs one function invocation.
type Invoker interface {
	Handle(ctx context.Context, body []byte) function.Response
}

// NewRouter builds the gin engine.
//
// POST / runs an invocation and always answers 200 with the function
// response; a body over MaxBodyBytes is refused without invoking.
// GET /health reports liveness.
//
// Arguments:
//   - invoker: The function handler.
//   - logger: The access logger.
//
// Returns:
//   - *gin.Engine: The router.
func NewRouter(invoker Invoker, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(accessLog(logger), gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.POST("/", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxBodyBytes+1))
		if err != nil {
			c.JSON(http.StatusOK, function.Response{Success: false, Error: "failed to read request body: " + err.Error()})
			return
		}
		if len(body) > MaxBodyBytes {
			c.JSON(http.StatusOK, function.Response{
				Success: false,
				Error:   fmt.Sprintf("request body too large: limit is %d bytes", MaxBodyBytes),
			})
			return
		}
		c.JSON(http.StatusOK, invoker.Handle(c.Request.Context(), body))
	})

	return router
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
