package mw

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS 返回跨域中间件。origins 为配置的白名单，"*" 表示任意来源；
// 白名单为空时 dev 环境允许所有来源，其余环境只允许同源。
// 因为要携带 refresh token cookie，响应总是回显具体的 Origin 而不是 "*"。
func CORS(origins []string, dev bool) gin.HandlerFunc {
	allowAll := len(origins) == 0 && dev
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
			continue
		}
		allowed[strings.TrimRight(strings.ToLower(o), "/")] = struct{}{}
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if allowAll || originAllowed(origin, c.Request.Host, allowed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func originAllowed(origin, host string, allowed map[string]struct{}) bool {
	if len(allowed) > 0 {
		_, ok := allowed[strings.TrimRight(strings.ToLower(origin), "/")]
		return ok
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
