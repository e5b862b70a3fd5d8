package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"andse-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del chat.
func NewRouter(
	logger *zap.Logger,
	verifier *service.TokenVerifier,
	chatH *ChatHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging y recovery.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	chatGroup := r.Group("/chat", JWTAuthMiddleware(verifier))
	chatGroup.GET("/sessions", chatH.ListSessions)
	chatGroup.POST("/new", chatH.CreateSession)
	chatGroup.GET("/session/:id", chatH.GetHistory)
	chatGroup.DELETE("/session/:id", chatH.DeleteSession)
	chatGroup.POST("/transcribe", chatH.Transcribe)
	chatGroup.POST("/upload", chatH.Upload)
	chatGroup.GET("/ws", wsH.Serve)

	r.GET("/system/status", chatH.Status)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
