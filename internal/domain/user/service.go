package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Service 用户领域服务
// 设计说明：
// 1. Service封装跨实体的业务逻辑：密码哈希与验证、Refresh Token哈希、Token吊销
// 2. 依赖Repository接口，不依赖具体实现（依赖倒置）
// 3. 不处理HTTP请求与JWT签发（签发在应用层编排）
type Service interface {
	// CreateUser 管理员开通用户：创建User+Profile，自动生成随机初始密码
	// 返回的明文密码只出现这一次（响应给管理员转交），持久化的是bcrypt哈希
	CreateUser(ctx context.Context, email, firstName, lastName, roleID string) (*User, string, error)

	// Authenticate 校验邮箱+密码，成功返回用户
	// 用户不存在与密码错误统一返回ErrInvalidCredentials
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// SetRefreshToken 持久化Refresh Token的bcrypt哈希（明文不落库）
	SetRefreshToken(ctx context.Context, userID, refreshToken string) error

	// VerifyRefreshToken 校验明文Refresh Token与存储哈希
	// 无存储哈希（已登出）或不匹配时返回ErrRefreshDenied
	VerifyRefreshToken(ctx context.Context, userID, refreshToken string) (*User, error)

	// RevokeTokens 吊销用户全部已签发Token：版本号+1并清除Refresh Token哈希
	RevokeTokens(ctx context.Context, userID string) error
}

type service struct {
	repo       Repository
	bcryptCost int
}

// NewService 创建用户领域服务
// bcryptCost从配置读取，推荐12（每+1耗时翻倍）
func NewService(repo Repository, bcryptCost int) Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &service{repo: repo, bcryptCost: bcryptCost}
}

// CreateUser 管理员开通用户
func (s *service) CreateUser(ctx context.Context, email, firstName, lastName, roleID string) (*User, string, error) {
	// 1. 邮箱占用预检（数据库唯一索引兜底并发场景）
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailDuplicate
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, "", err
	}

	// 2. 角色必须存在
	role, err := s.repo.FindRoleByID(ctx, roleID)
	if err != nil {
		return nil, "", err
	}

	// 3. 生成随机初始密码并哈希
	password, err := generatePassword(16)
	if err != nil {
		return nil, "", apperrors.Wrap(err, "生成初始密码失败")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", apperrors.Wrap(err, "密码加密失败")
	}

	// 4. 创建用户实体（首次登录必须改密）
	u := &User{
		Email:              email,
		Password:           string(hashed),
		TokenVersion:       0,
		RoleID:             role.ID,
		RoleName:           role.Name,
		IsActive:           true,
		MustChangePassword: true,
		Profile: Profile{
			FirstName: firstName,
			LastName:  lastName,
		},
	}

	// 5. 持久化（User+Profile同一事务）
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, "", err
	}

	return u, password, nil
}

// Authenticate 校验邮箱+密码
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// SetRefreshToken 持久化Refresh Token哈希
func (s *service) SetRefreshToken(ctx context.Context, userID, refreshToken string) error {
	hash, err := hashToken(refreshToken, s.bcryptCost)
	if err != nil {
		return apperrors.Wrap(err, "Refresh Token加密失败")
	}
	return s.repo.UpdateRefreshTokenHash(ctx, userID, &hash)
}

// VerifyRefreshToken 校验明文Refresh Token
func (s *service) VerifyRefreshToken(ctx context.Context, userID, refreshToken string) (*User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrRefreshDenied
		}
		return nil, err
	}

	// 无存储哈希说明用户已登出
	if u.RefreshTokenHash == nil {
		return nil, ErrRefreshDenied
	}

	if err := compareToken(*u.RefreshTokenHash, refreshToken); err != nil {
		return nil, ErrRefreshDenied
	}

	return u, nil
}

// RevokeTokens 吊销用户全部已签发Token
func (s *service) RevokeTokens(ctx context.Context, userID string) error {
	if err := s.repo.IncrementTokenVersion(ctx, userID); err != nil {
		return err
	}
	return s.repo.UpdateRefreshTokenHash(ctx, userID, nil)
}

// =========================================
// 辅助函数
// =========================================

// hashToken 对Token做bcrypt哈希
// bcrypt只处理前72字节而JWT远超此长度,先做SHA-256摘要再哈希
func hashToken(token string, cost int) (string, error) {
	digest := sha256.Sum256([]byte(token))
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(digest[:])), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// compareToken 校验Token与bcrypt哈希
func compareToken(hash, token string) error {
	digest := sha256.Sum256([]byte(token))
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(hex.EncodeToString(digest[:])))
}

// passwordCharset 初始密码字符集(避免易混淆字符)
const passwordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%"

// generatePassword 生成加密安全的随机密码
func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = passwordCharset[n.Int64()]
	}
	return string(buf), nil
}
