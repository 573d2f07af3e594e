package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// LoginResult 登录结果
type LoginResult struct {
	Tokens             *jwt.TokenPair
	MustChangePassword bool
}

// AppService 认证应用服务
// Token生命周期编排：
// 1. 登录：校验凭证 → 签发双Token → Refresh Token哈希落库
// 2. 刷新：校验Refresh Token与库中哈希 → 只签发新Access Token（Refresh不轮换）
// 3. 登出：版本号+1吊销全部已签发Token，清除Refresh Token哈希
type AppService struct {
	users user.Service
	jwt   *jwt.Manager
}

// NewAppService 创建认证应用服务
func NewAppService(users user.Service, jwtMgr *jwt.Manager) *AppService {
	return &AppService{users: users, jwt: jwtMgr}
}

// Login 用户登录
func (s *AppService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	pair, err := s.jwt.GenerateTokenPair(u.ID, u.Email, u.TokenVersion)
	if err != nil {
		return nil, apperrors.Wrap(err, "签发Token失败")
	}

	if err := s.users.SetRefreshToken(ctx, u.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user_id", u.ID).Msg("用户登录成功")
	return &LoginResult{
		Tokens:             pair,
		MustChangePassword: u.MustChangePassword,
	}, nil
}

// Refresh 刷新Access Token
// 要求同时携带过期（或未过期）的Access Token与有效的Refresh Token：
// 1. Access Token只验签名不验有效期，用于安全取出UserID
// 2. Refresh Token验签后与库中bcrypt哈希比对，不匹配即拒绝
// 3. Refresh Token中的版本号必须匹配当前版本（登出后的旧Token拒绝）
// 4. 只签发新Access Token，Refresh Token不轮换
func (s *AppService) Refresh(ctx context.Context, accessToken, refreshToken string) (string, int64, error) {
	accessClaims, err := s.jwt.ParseAccessTokenAllowExpired(accessToken)
	if err != nil {
		return "", 0, user.ErrRefreshDenied
	}

	refreshClaims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil || refreshClaims.UserID != accessClaims.UserID {
		return "", 0, user.ErrRefreshDenied
	}

	u, err := s.users.VerifyRefreshToken(ctx, accessClaims.UserID, refreshToken)
	if err != nil {
		return "", 0, err
	}
	if refreshClaims.TokenVersion != u.TokenVersion {
		return "", 0, user.ErrRefreshDenied
	}

	newAccess, err := s.jwt.GenerateAccessToken(u.ID, u.Email, u.TokenVersion)
	if err != nil {
		return "", 0, apperrors.Wrap(err, "签发Token失败")
	}

	log.Debug().Str("user_id", u.ID).Msg("Access Token已刷新")
	return newAccess, s.jwt.AccessExpireSeconds(), nil
}

// Logout 用户登出
// 版本号+1使该用户所有已签发Token失效，并清除Refresh Token哈希
func (s *AppService) Logout(ctx context.Context, userID string) error {
	if err := s.users.RevokeTokens(ctx, userID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Msg("用户登出，Token已全部吊销")
	return nil
}
