package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/session"
	"github.com/saker-ai/armscript/internal/ws"
)

// NewRouter wires the REST and websocket surfaces onto a gin engine.
func NewRouter(manager *session.Manager, wsHandler *ws.Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if wsHandler != nil {
		router.GET("/ws", func(c *gin.Context) {
			wsHandler.Handle(c.Writer, c.Request)
		})
	}

	a := &api{manager: manager, logger: logger}
	router.GET("/tools", a.listTools)
	sessions := router.Group("/sessions")
	sessions.POST("", a.createSession)
	sessions.GET("", a.listSessions)
	sessions.GET("/:id", a.getSession)
	sessions.DELETE("/:id", a.closeSession)
	sessions.POST("/:id/actions", a.applyAction)
	sessions.POST("/:id/export", a.exportSession)
	sessions.GET("/:id/artifacts/:artifact", a.getArtifact)

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		if logger == nil {
			return
		}
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", latency),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}
