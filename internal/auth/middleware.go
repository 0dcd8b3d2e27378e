package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// AuthMiddleware 校验 Bearer access token，失败时在业务 handler 之前中止请求。
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			abortUnauthorized(c, "Not authorized")
			return
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		claims, err := issuer.ParseAccess(tokenStr)
		if err != nil {
			abortUnauthorized(c, "Not authorized, token failed")
			return
		}
		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": http.StatusUnauthorized, "message": msg})
}

func GetUserID(c *gin.Context) uint {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok2 := v.(uint); ok2 {
			return id
		}
	}
	return 0
}
