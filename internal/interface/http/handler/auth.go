package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appuser "github.com/xiebiao/bookreview/internal/application/user"
	"github.com/xiebiao/bookreview/internal/interface/http/dto"
	"github.com/xiebiao/bookreview/internal/interface/http/middleware"
	"github.com/xiebiao/bookreview/pkg/response"
)

type loginExecutor interface {
	Execute(ctx context.Context, req appuser.LoginRequest) (*appuser.LoginResponse, error)
}

type logoutExecutor interface {
	Execute(ctx context.Context, userID uint, accessToken string) error
}

type refreshExecutor interface {
	Execute(refreshToken string) (*appuser.RefreshTokenResponse, error)
}

// AuthHandler 认证HTTP处理器
// Handler只做参数绑定、调用用例、输出响应
type AuthHandler struct {
	loginUseCase   loginExecutor
	logoutUseCase  logoutExecutor
	refreshUseCase refreshExecutor
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(
	loginUseCase *appuser.LoginUseCase,
	logoutUseCase *appuser.LogoutUseCase,
	refreshUseCase *appuser.RefreshTokenUseCase,
) *AuthHandler {
	return &AuthHandler{
		loginUseCase:   loginUseCase,
		logoutUseCase:  logoutUseCase,
		refreshUseCase: refreshUseCase,
	}
}

// Login 用户登录
// @Summary      用户登录
// @Description  验证用户名密码，返回JWT Token对。支持JSON和表单（OAuth2 password模式）
// @Tags         认证
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body dto.LoginRequest true "登录信息"
// @Success      200 {object} response.Response{data=appuser.LoginResponse} "登录成功"
// @Failure      400 {object} response.Response "参数格式错误"
// @Failure      401 {object} response.Response "用户名或密码错误"
// @Failure      422 {object} response.Response "参数校验失败"
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), appuser.LoginRequest{
		Username: req.Username,
		Password: req.Password,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Logout 用户登出
// @Summary      用户登出
// @Description  删除会话，并把当前Access Token加入黑名单
// @Tags         认证
// @Security     BearerAuth
// @Success      204 "登出成功"
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.logoutUseCase.Execute(c.Request.Context(), userID, middleware.GetAccessToken(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Description  使用Refresh Token换取新的Access Token
// @Tags         认证
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshTokenRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=appuser.RefreshTokenResponse}
// @Failure      401 {object} response.Response "Token无效或已过期"
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.refreshUseCase.Execute(req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
