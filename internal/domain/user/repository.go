package user

import (
	"context"
)

// Repository 用户仓储接口
// DDD设计说明：
// 1. 接口定义在domain层（依赖倒置原则），实现在infrastructure/persistence/mysql
// 2. Create在一个事务内同时创建User与Profile
// 3. 便于单元测试（Mock此接口）
type Repository interface {
	// Create 创建用户及其档案（单个事务）
	// 邮箱已存在时返回ErrEmailDuplicate
	Create(ctx context.Context, u *User) error

	// FindByID 根据ID查找用户，不存在返回ErrUserNotFound
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail 根据邮箱查找用户，不存在返回ErrUserNotFound
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindWithPermissions 根据ID查找用户并展开角色与权限集合
	// 认证中间件每次请求都会调用（权限集合经Redis缓存）
	FindWithPermissions(ctx context.Context, id string) (*User, error)

	// FindRoleByID 根据ID查找角色，不存在返回ErrRoleNotFound
	FindRoleByID(ctx context.Context, id string) (*Role, error)

	// UpdateRefreshTokenHash 更新Refresh Token哈希（nil表示清除）
	UpdateRefreshTokenHash(ctx context.Context, userID string, hash *string) error

	// IncrementTokenVersion 版本号+1，吊销该用户已签发的全部Token
	IncrementTokenVersion(ctx context.Context, userID string) error
}
