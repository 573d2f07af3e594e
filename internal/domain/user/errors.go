package user

import (
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// 用户领域错误定义
var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = apperrors.ErrUserNotFound

	// ErrEmailDuplicate 邮箱已被注册
	ErrEmailDuplicate = apperrors.ErrEmailDuplicate

	// ErrRoleNotFound 角色不存在
	ErrRoleNotFound = apperrors.ErrRoleNotFound

	// ErrInvalidCredentials 登录凭证错误(用户不存在与密码错误返回同一错误,避免探测)
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials

	// ErrRefreshDenied Refresh Token缺失或不匹配
	ErrRefreshDenied = apperrors.ErrInvalidRefreshToken
)
