package server

import (
	"errors"
	"net/http"

	"github.com/nidhijagga/quicktalk-be/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrDuplicateUser, http.StatusConflict, "User already exists"},
	{service.ErrNotFound, http.StatusNotFound, "User not found"},
	{service.ErrInvalidCredential, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrMissingToken, http.StatusUnauthorized, "No refresh token provided"},
	{service.ErrInvalidToken, http.StatusForbidden, "Invalid refresh token"},
	{service.ErrUnrecognizedToken, http.StatusForbidden, "Refresh token not recognized"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "Not authorized"},
}

// respond 输出统一的 {"status", "message"} 结构。
func respond(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": status, "message": message})
}

// fail 把业务错误映射到状态码；未识别的错误按 500 处理并记录日志，不向客户端暴露细节。
func fail(c *gin.Context, err error, op string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			log.Debug().Err(err).Str("op", op).Int("status", e.status).Msg("request rejected")
			respond(c, e.status, e.message)
			return
		}
	}
	log.Error().Err(err).Str("op", op).Str("path", c.FullPath()).Msg("server fault")
	respond(c, http.StatusInternalServerError, "Server error")
}
