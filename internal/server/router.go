package server

import (
	"context"
	"net/http"
	"time"

	"github.com/nidhijagga/quicktalk-be/internal/auth"
	"github.com/nidhijagga/quicktalk-be/internal/config"
	clog "github.com/nidhijagga/quicktalk-be/internal/log"
	"github.com/nidhijagga/quicktalk-be/internal/metrics"
	"github.com/nidhijagga/quicktalk-be/internal/mw"
	"github.com/nidhijagga/quicktalk-be/internal/service"
	"github.com/nidhijagga/quicktalk-be/internal/store"
	"github.com/nidhijagga/quicktalk-be/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
// ctx 取消时停止限速器与过期 token 清理的后台 goroutine。
func SetupRouter(ctx context.Context, cfg config.Config, db *gorm.DB, hub *ws.Hub) *gin.Engine {
	st := store.New(db)
	issuer := auth.NewTokenIssuerFromConfig(cfg)
	authSvc := service.NewAuthService(st, st, issuer)
	go authSvc.SweepExpiredTokens(ctx, time.Hour)
	h := NewHandler(
		authSvc,
		service.NewUserService(st, hub),
		service.NewChatService(st),
		CookieOptions{
			Enabled: cfg.RefreshTokenCookie,
			Secure:  !cfg.IsDev(),
			MaxAge:  int(issuer.RefreshTTL() / time.Second),
		},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(clog.Requests())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.CORSOrigins, cfg.IsDev()))
	// 控制单个 IP+路由的速率。
	r.Use(mw.RateLimit(ctx, rate.Every(time.Second/20), 40))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/refresh", h.Refresh)
	r.POST("/logout", h.Logout)

	// 需要 Bearer Token 的接口。
	authed := r.Group("")
	authed.Use(auth.AuthMiddleware(issuer))
	authed.GET("/user_profile", h.UserProfile)
	authed.GET("/users", h.ListUsers)

	chat := r.Group("/chat")
	chat.POST("/send", h.SendMessage)
	chat.GET("/history/:userA/:userB", h.ChatHistory)

	r.GET("/ws", ws.Serve(hub, cfg.CORSOrigins))
	return r
}
