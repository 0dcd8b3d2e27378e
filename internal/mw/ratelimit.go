package mw

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type keyLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter 按 key（IP+路由）维护令牌桶，长时间未出现的 key 会被回收。
type RateLimiter struct {
	mu    sync.Mutex
	keys  map[string]*keyLimiter
	limit rate.Limit
	burst int
	ttl   time.Duration
}

func NewRateLimiter(limit rate.Limit, burst int, ttl time.Duration) *RateLimiter {
	return &RateLimiter{keys: make(map[string]*keyLimiter), limit: limit, burst: burst, ttl: ttl}
}

// Allow 报告 key 当前是否还有令牌。
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	kl, ok := rl.keys[key]
	if !ok {
		kl = &keyLimiter{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.keys[key] = kl
	}
	kl.seen = now
	rl.mu.Unlock()
	return kl.lim.AllowN(now, 1)
}

// sweep 删除 ttl 内没有请求的 key，返回剩余数量。
func (rl *RateLimiter) sweep(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, v := range rl.keys {
		if now.Sub(v.seen) > rl.ttl {
			delete(rl.keys, k)
		}
	}
	return len(rl.keys)
}

// Run 定期回收过期 key，ctx 取消后返回。
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.sweep(now)
		}
	}
}

// Middleware 返回基于 IP+路由的限速中间件。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := clientIP(c.Request.RemoteAddr)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if !rl.Allow(ip + "|" + path) {
			log.Warn().Str("ip", ip).Str("path", path).Msg("rate limited")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": http.StatusTooManyRequests, "message": "Too many requests"})
			return
		}
		c.Next()
	}
}

// RateLimit 创建限速器并在后台回收过期 key，直到 ctx 取消。
func RateLimit(ctx context.Context, limit rate.Limit, burst int) gin.HandlerFunc {
	rl := NewRateLimiter(limit, burst, 2*time.Minute)
	go rl.Run(ctx)
	return rl.Middleware()
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
