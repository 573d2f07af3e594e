package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// PermissionCache 角色权限集合缓存
// 设计说明：
// 1. 认证中间件每次请求都要展开角色权限，缓存避免反复JOIN role_permissions
// 2. key为perms:{roleID}，value为权限动作的JSON数组，TTL由配置决定
// 3. 角色权限很少变化，TTL过期自然刷新即可，无需主动失效
// 4. Redis不可用时降级为未命中，调用方回源数据库，不影响正确性
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache 创建权限缓存
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

func permKey(roleID string) string {
	return fmt.Sprintf("perms:%s", roleID)
}

// Get 查询角色的权限集合，未命中返回(nil, false)
func (c *PermissionCache) Get(ctx context.Context, roleID string) ([]string, bool) {
	data, err := c.client.Get(ctx, permKey(roleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("role_id", roleID).Msg("读取权限缓存失败，回源数据库")
		return nil, false
	}

	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

// Set 写入角色的权限集合
func (c *PermissionCache) Set(ctx context.Context, roleID string, perms []string) {
	data, err := json.Marshal(perms)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, permKey(roleID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("role_id", roleID).Msg("写入权限缓存失败")
	}
}

// Ping 健康检查用
func (c *PermissionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
