package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（业务错误码，非HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus 根据错误码段推导HTTP状态码
// 规范：错误码前三位对应HTTP状态（40402 → 404），500xx统一返回500
func (e *AppError) HTTPStatus() int {
	switch {
	case e.Code >= 40000 && e.Code < 40100:
		return http.StatusBadRequest
	case e.Code >= 40100 && e.Code < 40200:
		return http.StatusUnauthorized
	case e.Code >= 40300 && e.Code < 40400:
		return http.StatusForbidden
	case e.Code >= 40400 && e.Code < 40500:
		return http.StatusNotFound
	case e.Code >= 40900 && e.Code < 41000:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeWriteFailure,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeWriteFailure,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 400xx: 业务冲突（重复书名/ISBN等）
// - 401xx: 未认证（凭证错误、Token无效/已吊销）
// - 403xx: 无权限（Refresh Token无效、缺少权限）
// - 404xx: 资源不存在
// - 409xx: 参数错误
// - 500xx: 服务端错误（事务写入失败等）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal     = 50000 // 内部错误
	ErrCodeWriteFailure = 50001 // 事务写入失败
	ErrCodeRedisError   = 50002 // Redis错误

	// 认证错误（40100-40199）
	ErrCodeUnauthorized       = 40100 // 未登录
	ErrCodeInvalidToken       = 40101 // Token无效
	ErrCodeTokenExpired       = 40102 // Token过期
	ErrCodeInvalidCredentials = 40103 // 邮箱或密码错误
	ErrCodeTokenRevoked       = 40105 // Token已吊销（版本号不匹配）

	// 授权错误（40300-40399）
	ErrCodeForbidden           = 40300 // 缺少权限
	ErrCodeInvalidRefreshToken = 40301 // Refresh Token无效

	// 资源错误（40400-40499）
	ErrCodeNotFound        = 40400 // 资源不存在（通用）
	ErrCodeUserNotFound    = 40401 // 用户不存在
	ErrCodeBookNotFound    = 40402 // 图书不存在
	ErrCodeRoleNotFound    = 40403 // 角色不存在
	ErrCodeNoSearchMatches = 40404 // 无符合条件的记录
	ErrCodeNothingToExport = 40405 // 无可导出数据

	// 业务冲突（40000-40099）
	ErrCodeConflict       = 40000 // 冲突（通用）
	ErrCodeEmailDuplicate = 40003 // 邮箱已存在
	ErrCodeISBNDuplicate  = 40004 // ISBN已存在
	ErrCodeTitleDuplicate = 40006 // 书名已存在
	ErrCodeDuplicateEntry = 40009 // 重复记录（通用）

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal     = New(ErrCodeInternal, "系统内部错误")
	ErrWriteFailure = New(ErrCodeWriteFailure, "数据写入失败")
	ErrRedisError   = New(ErrCodeRedisError, "缓存服务错误")

	// 认证
	ErrUnauthorized       = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken       = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired       = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidCredentials = New(ErrCodeInvalidCredentials, "邮箱或密码错误")
	ErrTokenRevoked       = New(ErrCodeTokenRevoked, "Token已失效，请重新登录")

	// 授权
	ErrForbidden           = New(ErrCodeForbidden, "无权限访问")
	ErrInvalidRefreshToken = New(ErrCodeInvalidRefreshToken, "Refresh Token无效")

	// 资源不存在
	ErrUserNotFound    = New(ErrCodeUserNotFound, "用户不存在")
	ErrBookNotFound    = New(ErrCodeBookNotFound, "图书不存在")
	ErrRoleNotFound    = New(ErrCodeRoleNotFound, "角色不存在")
	ErrNoSearchMatches = New(ErrCodeNoSearchMatches, "没有符合条件的图书")
	ErrNothingToExport = New(ErrCodeNothingToExport, "没有可导出的图书")

	// 业务冲突
	ErrEmailDuplicate = New(ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrISBNDuplicate  = New(ErrCodeISBNDuplicate, "ISBN号已存在")
	ErrTitleDuplicate = New(ErrCodeTitleDuplicate, "书名已存在")
	ErrDuplicateEntry = New(ErrCodeDuplicateEntry, "记录写入冲突，请重试")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "系统内部错误",
		Err:     err,
	}
}
