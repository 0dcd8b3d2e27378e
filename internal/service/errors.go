package service

import "errors"

// 业务层错误分类，handler 根据错误类型映射到 HTTP 状态码。
// 其余错误一律视为 ServerFault。
var (
	ErrDuplicateUser     = errors.New("user already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrMissingToken      = errors.New("no refresh token provided")
	ErrInvalidToken      = errors.New("invalid refresh token")
	ErrUnrecognizedToken = errors.New("refresh token not recognized")
	ErrUnauthorized      = errors.New("not authorized")
)
