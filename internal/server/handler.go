package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nidhijagga/quicktalk-be/internal/auth"
	"github.com/nidhijagga/quicktalk-be/internal/metrics"
	"github.com/nidhijagga/quicktalk-be/internal/service"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refreshToken"

// CookieOptions 控制 refresh token cookie 的下发方式。
type CookieOptions struct {
	Enabled bool
	Secure  bool
	MaxAge  int // 秒
}

// Handler 聚合所有 HTTP handler，依赖注入 service 层。
type Handler struct {
	authSvc *service.AuthService
	userSvc *service.UserService
	chatSvc *service.ChatService
	cookie  CookieOptions
}

func NewHandler(authSvc *service.AuthService, userSvc *service.UserService, chatSvc *service.ChatService, cookie CookieOptions) *Handler {
	return &Handler{authSvc: authSvc, userSvc: userSvc, chatSvc: chatSvc, cookie: cookie}
}

type signupReq struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type sendMessageReq struct {
	Sender    uint   `json:"sender" binding:"required"`
	Recipient uint   `json:"recipient" binding:"required"`
	Content   string `json:"content" binding:"required,max=4000"`
}

type historyURI struct {
	UserA uint `uri:"userA" binding:"required"`
	UserB uint `uri:"userB" binding:"required"`
}

// Signup 处理用户注册请求。
func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 2 {
		respond(c, http.StatusBadRequest, "invalid username")
		return
	}
	if _, err := h.authSvc.Signup(c.Request.Context(), req.Username, normalizeEmail(req.Email), req.Password); err != nil {
		fail(c, err, "signup")
		return
	}
	respond(c, http.StatusCreated, "User created successfully")
}

// Login 校验凭据并签发 token 对。
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid payload")
		return
	}
	result, err := h.authSvc.Login(c.Request.Context(), normalizeEmail(req.Email), req.Password)
	if err != nil {
		fail(c, err, "login")
		return
	}
	h.setRefreshCookie(c, result.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"status":       http.StatusOK,
		"message":      "Logged in successfully",
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.User,
	})
}

// Refresh 轮换 refresh token。token 取自请求体，缺省时取 cookie。
func (h *Handler) Refresh(c *gin.Context) {
	token, err := h.refreshTokenFrom(c)
	if err != nil {
		respond(c, http.StatusBadRequest, "invalid payload")
		return
	}
	pair, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		fail(c, err, "refresh")
		return
	}
	h.setRefreshCookie(c, pair.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"status":       http.StatusOK,
		"message":      "Token refreshed",
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout 始终返回成功，不暴露 token 是否存在。请求体无法解析时仍使用 cookie 中的 token。
func (h *Handler) Logout(c *gin.Context) {
	token, _ := h.refreshTokenFrom(c)
	if err := h.authSvc.Logout(c.Request.Context(), token); err != nil {
		fail(c, err, "logout")
		return
	}
	h.clearRefreshCookie(c)
	respond(c, http.StatusOK, "Logged out successfully")
}

func (h *Handler) UserProfile(c *gin.Context) {
	user, err := h.userSvc.Profile(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		fail(c, err, "user profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "message": "User profile fetched successfully", "user": user})
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context())
	if err != nil {
		fail(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "message": "Users fetched successfully", "users": users})
}

// SendMessage 只负责持久化，实时投递走 websocket。
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respond(c, http.StatusBadRequest, "invalid payload")
		return
	}
	msg, err := h.chatSvc.Send(c.Request.Context(), req.Sender, req.Recipient, req.Content)
	if err != nil {
		fail(c, err, "send message")
		return
	}
	metrics.MessagesPersistedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"status": http.StatusCreated, "message": "Message sent successfully", "messageData": msg})
}

// ChatHistory 返回两人之间的完整会话，按时间升序。
func (h *Handler) ChatHistory(c *gin.Context) {
	var uri historyURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respond(c, http.StatusBadRequest, "invalid user id")
		return
	}
	msgs, err := h.chatSvc.History(c.Request.Context(), uri.UserA, uri.UserB)
	if err != nil {
		fail(c, err, "chat history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "message": "Chat history fetched successfully", "messages": msgs})
}

// refreshTokenFrom 优先读取请求体中的 refreshToken，其次读取 cookie；空请求体合法。
// 请求体格式错误时仍会返回 cookie 中的 token，同时返回解析错误。
func (h *Handler) refreshTokenFrom(c *gin.Context) (string, error) {
	var req refreshReq
	bindErr := c.ShouldBindJSON(&req)
	if errors.Is(bindErr, io.EOF) {
		bindErr = nil
	}
	if token := strings.TrimSpace(req.RefreshToken); bindErr == nil && token != "" {
		return token, nil
	}
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		return cookie, bindErr
	}
	return "", bindErr
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	if !h.cookie.Enabled {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	if !h.cookie.Enabled {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.cookie.Secure, true)
}

// normalizeEmail 在 binding 校验通过后统一大小写，email 唯一性按小写比较。
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
