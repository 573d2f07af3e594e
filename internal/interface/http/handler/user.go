package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/internal/interface/http/dto"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/response"
)

// UserHandler 用户HTTP处理器
type UserHandler struct {
	svc user.Service
}

// NewUserHandler 创建用户处理器
func NewUserHandler(svc user.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// Create 创建用户
// @Summary      创建用户
// @Description  管理员创建用户，初始密码由服务端生成并仅在响应中返回一次，首次登录必须修改
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateUserRequest true "用户信息"
// @Success      201 {object} response.Response{data=dto.CreateUserResponse}
// @Failure      400 {object} response.Response "邮箱已存在"
// @Failure      404 {object} response.Response "角色不存在"
// @Security     BearerAuth
// @Router       /api/v1/users/create [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBindError)
		return
	}

	u, password, err := h.svc.CreateUser(c.Request.Context(), req.Email, req.FirstName, req.LastName, req.RoleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromUser(u, password))
}
