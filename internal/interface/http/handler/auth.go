package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	appauth "github.com/xiebiao/bookcatalog/internal/application/auth"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// AuthHandler 认证HTTP处理器
type AuthHandler struct {
	app *appauth.AppService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(app *appauth.AppService) *AuthHandler {
	return &AuthHandler{app: app}
}

// Login 用户登录
// @Summary      登录
// @Description  校验邮箱密码，签发Access/Refresh Token对
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "登录凭证"
// @Success      200 {object} response.Response{data=dto.LoginResponse}
// @Failure      401 {object} response.Response "邮箱或密码错误"
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	result, err := h.app.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.LoginResponse{
		AccessToken:        result.Tokens.AccessToken,
		RefreshToken:       result.Tokens.RefreshToken,
		ExpiresIn:          result.Tokens.ExpiresIn,
		MustChangePassword: result.MustChangePassword,
	})
}

// Refresh 刷新Access Token
// @Summary      刷新Token
// @Description  Authorization头携带（可已过期的）Access Token，请求体携带Refresh Token；只签发新Access Token，Refresh Token不轮换
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "Refresh Token"
// @Success      200 {object} response.Response{data=dto.RefreshResponse}
// @Failure      403 {object} response.Response "Refresh Token无效或已吊销"
// @Router       /api/v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	accessToken := bearerToken(c)
	if accessToken == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	newAccess, expiresIn, err := h.app.Refresh(c.Request.Context(), accessToken, req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.RefreshResponse{
		AccessToken: newAccess,
		ExpiresIn:   expiresIn,
	})
}

// Logout 用户登出
// @Summary      登出
// @Description  版本号+1吊销该用户全部已签发Token（含其他设备）
// @Tags         auth
// @Produce      json
// @Success      200 {object} response.Response
// @Security     BearerAuth
// @Router       /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.app.Logout(c.Request.Context(), u.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// bearerToken 从Authorization头提取Bearer Token
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
