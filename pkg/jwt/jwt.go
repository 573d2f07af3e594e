package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

// Manager JWT管理器
// 设计说明：
// 1. 双Token机制：Access Token（短期）+ Refresh Token（长期）
// 2. 两种Token使用独立的密钥与有效期，Access Token泄露不影响Refresh Token
// 3. Claims中携带TokenVersion：登出时用户版本号+1，旧Token全部失效（无需黑名单）
type Manager struct {
	accessSecret  string        // Access Token签名密钥
	refreshSecret string        // Refresh Token签名密钥
	accessExpire  time.Duration // Access Token有效期
	refreshExpire time.Duration // Refresh Token有效期
}

// NewManager 创建JWT管理器
func NewManager(accessSecret, refreshSecret string, accessExpire, refreshExpire time.Duration) *Manager {
	return &Manager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessExpire:  accessExpire,
		refreshExpire: refreshExpire,
	}
}

// AccessClaims Access Token载荷
type AccessClaims struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// RefreshClaims Refresh Token载荷（只含必要字段，减少payload大小）
type RefreshClaims struct {
	UserID       string `json:"user_id"`
	TokenVersion int    `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenPair Token对（Access + Refresh）
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access Token过期时间（秒）
}

// GenerateAccessToken 签发Access Token
func (m *Manager) GenerateAccessToken(userID, email string, tokenVersion int) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:       userID,
		Email:        email,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "bookcatalog",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.accessSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "生成Access Token失败")
	}
	return signed, nil
}

// GenerateRefreshToken 签发Refresh Token
func (m *Manager) GenerateRefreshToken(userID string, tokenVersion int) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID:       userID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "bookcatalog",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.refreshSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "生成Refresh Token失败")
	}
	return signed, nil
}

// GenerateTokenPair 签发Token对（登录时使用）
func (m *Manager) GenerateTokenPair(userID, email string, tokenVersion int) (*TokenPair, error) {
	accessToken, err := m.GenerateAccessToken(userID, email, tokenVersion)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.GenerateRefreshToken(userID, tokenVersion)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.accessExpire.Seconds()),
	}, nil
}

// AccessExpireSeconds Access Token有效期（秒）
func (m *Manager) AccessExpireSeconds() int64 {
	return int64(m.accessExpire.Seconds())
}

// ParseAccessToken 解析并验证Access Token（签名+有效期）
// 注意：TokenVersion与用户当前版本号的比对由认证中间件完成，
// 签名合法但版本号过期的Token同样会被拒绝
func (m *Manager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, m.accessKeyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperrors.ErrInvalidToken
}

// ParseAccessTokenAllowExpired 解析Access Token但忽略有效期
// 用于/auth/refresh：调用方持有的Access Token可能已过期，
// 但签名必须合法，以便安全地取出UserID
func (m *Manager) ParseAccessTokenAllowExpired(tokenString string) (*AccessClaims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, &AccessClaims{}, m.accessKeyFunc)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*AccessClaims); ok {
		return claims, nil
	}
	return nil, apperrors.ErrInvalidToken
}

// ParseRefreshToken 解析并验证Refresh Token
func (m *Manager) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
		}
		return []byte(m.refreshSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidRefreshToken
	}

	if claims, ok := token.Claims.(*RefreshClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, apperrors.ErrInvalidRefreshToken
}

// accessKeyFunc 验证签名算法并返回Access密钥
func (m *Manager) accessKeyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("非法的签名算法: %v", token.Header["alg"])
	}
	return []byte(m.accessSecret), nil
}
