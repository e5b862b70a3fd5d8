package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"andse-chat/internal/service"
)

const authUserKey = "auth_user_id"

// JWTAuthMiddleware valida el bearer token cuando hay secreto configurado;
// sin secreto deja pasar y los clientes se identifican por IP.
func JWTAuthMiddleware(verifier *service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil || !verifier.Enabled() {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authUserKey, claims.UserID)
		c.Next()
	}
}

// ClientKey identifica al cliente para rate limiting: user id autenticado o
// la IP como fallback.
func ClientKey(c *gin.Context) string {
	if val, ok := c.Get(authUserKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}
	return c.ClientIP()
}
