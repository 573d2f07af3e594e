package user

import (
	"time"
)

// User 用户实体（聚合根）
// DDD设计说明：
// 1. 密码与Refresh Token只保存bcrypt哈希，领域层不出现明文
// 2. TokenVersion是Token吊销机制的核心：登出时+1，
//    旧Token携带的版本号不再匹配即被认证中间件拒绝（无需黑名单）
// 3. 角色与权限是共享引用数据，按需展开到RoleName/Permissions
type User struct {
	ID                 string
	Email              string
	Password           string // bcrypt哈希值
	TokenVersion       int
	RefreshTokenHash   *string // Refresh Token的bcrypt哈希，nil表示已登出
	RoleID             string
	RoleName           string
	Permissions        []string
	IsActive           bool
	MustChangePassword bool
	Profile            Profile
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile 用户档案（与User一对一）
type Profile struct {
	ID        string
	FirstName string
	LastName  string
}

// Role 角色
type Role struct {
	ID   string
	Name string
}

// 内置角色
const (
	RoleSuperAdmin = "super_admin"
	RoleEditor     = "editor"
)

// 权限动作
const (
	PermBooksCreate = "books:create"
	PermBooksRead   = "books:read"
	PermBooksUpdate = "books:update"
	PermBooksDelete = "books:delete"
	PermBooksExport = "books:export"
	PermUsersCreate = "users:create"
	PermUsersRead   = "users:read"
	PermUsersUpdate = "users:update"
	PermUsersDelete = "users:delete"
)

// HasPermission 检查用户是否具备指定权限
// super_admin绕过权限检查（引导数据中不为其挂载具体权限）
func (u *User) HasPermission(action string) bool {
	if u.RoleName == RoleSuperAdmin {
		return true
	}
	for _, p := range u.Permissions {
		if p == action {
			return true
		}
	}
	return false
}
