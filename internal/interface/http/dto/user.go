package dto

import (
	"time"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
)

// CreateUserRequest 创建用户请求
// 密码由服务端生成并一次性返回，不在请求中出现
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email" example:"editor@example.com"`
	FirstName string `json:"firstName" binding:"required,max=100" example:"Jane"`
	LastName  string `json:"lastName" binding:"required,max=100" example:"Doe"`
	RoleID    string `json:"roleId" binding:"required,uuid" example:"0c7f2b1a-..."`
}

// CreateUserResponse 创建用户响应
// Password是生成的初始密码，仅在这里出现一次，用户首次登录必须修改
type CreateUserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	RoleName  string    `json:"roleName"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromUser 领域实体转响应
func FromUser(u *user.User, password string) *CreateUserResponse {
	return &CreateUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.Profile.FirstName,
		LastName:  u.Profile.LastName,
		RoleName:  u.RoleName,
		Password:  password,
		CreatedAt: u.CreatedAt,
	}
}
