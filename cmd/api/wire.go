//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// 使用方式：
// Step 1: 运行 `wire gen ./cmd/api`
// Step 2: Wire生成wire_gen.go，包含完整的依赖创建代码
// Step 3: main.go切换为调用InitializeRouter()
//
// 与main.go中的手动组装等价，依赖链在编译期校验

package main

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appauth "github.com/xiebiao/bookcatalog/internal/application/auth"
	appbook "github.com/xiebiao/bookcatalog/internal/application/book"
	"github.com/xiebiao/bookcatalog/internal/domain/book"
	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/persistence/redis"
	ihttp "github.com/xiebiao/bookcatalog/internal/interface/http"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
	"github.com/xiebiao/bookcatalog/pkg/jwt"
)

// infrastructureSet 基础设施层：配置、数据库、Redis
var infrastructureSet = wire.NewSet(
	config.Load,
	mysql.NewDB,
	redis.NewClient,
)

// repositorySet 仓储层
var repositorySet = wire.NewSet(
	mysql.NewBookRepository,
	mysql.NewUserRepository,
	mysql.NewTxManager,
	wire.Bind(new(appbook.TxManager), new(*mysql.TxManager)),
)

// domainSet 领域层
var domainSet = wire.NewSet(
	book.NewService,
	provideUserService,
)

// applicationSet 应用层
var applicationSet = wire.NewSet(
	appbook.NewAppService,
	appauth.NewAppService,
)

// middlewareSet 中间件：JWT管理器、权限缓存、认证中间件
var middlewareSet = wire.NewSet(
	provideJWTManager,
	providePermissionCache,
	middleware.NewAuthMiddleware,
	wire.Bind(new(middleware.PermissionCache), new(*redis.PermissionCache)),
)

// handlerSet HTTP处理器
var handlerSet = wire.NewSet(
	handler.NewBookHandler,
	handler.NewAuthHandler,
	handler.NewUserHandler,
	provideHealthHandler,
	wire.Struct(new(ihttp.Handlers), "*"),
)

// provideJWTManager 从配置提取JWT参数
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
	)
}

// provideUserService 从配置提取bcrypt代价因子
func provideUserService(repo user.Repository, cfg *config.Config) user.Service {
	return user.NewService(repo, cfg.Security.BcryptCost)
}

// providePermissionCache 从配置提取缓存TTL
func providePermissionCache(client *goredis.Client, cfg *config.Config) *redis.PermissionCache {
	return redis.NewPermissionCache(client, cfg.Redis.PermCacheTTL)
}

// provideHealthHandler 健康检查依赖数据库与Redis
func provideHealthHandler(db *gorm.DB, cache *redis.PermissionCache) *handler.HealthHandler {
	return handler.NewHealthHandler(db, cache)
}

// InitializeRouter 构建完整的HTTP路由
func InitializeRouter() (*gin.Engine, error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		ihttp.NewRouter,
	)
	return nil, nil
}
