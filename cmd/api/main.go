package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

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
	"github.com/xiebiao/bookcatalog/pkg/logger"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
)

// main 主程序入口
// 手动依赖注入：Repository ← Service ← AppService ← Handler
// （cmd/api/wire.go提供等价的Wire注入器，wire gen生成wire_gen.go后可切换）
func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志与指标
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	metrics.InitMetrics()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("mode", cfg.Server.Mode).
		Msg("配置加载成功")

	// 3. 初始化数据库连接（含迁移与引导数据）
	db, err := mysql.NewDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化数据库失败")
	}

	// 4. 初始化Redis连接
	redisClient, err := redis.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化Redis失败")
	}

	// 5. 依赖注入（手动组装）
	// 基础设施层
	bookRepo := mysql.NewBookRepository(db)
	userRepo := mysql.NewUserRepository(db)
	txManager := mysql.NewTxManager(db)
	permCache := redis.NewPermissionCache(redisClient, cfg.Redis.PermCacheTTL)
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpire,
		cfg.JWT.RefreshExpire,
	)

	// 领域层
	bookService := book.NewService(bookRepo)
	userService := user.NewService(userRepo, cfg.Security.BcryptCost)

	// 应用层
	bookApp := appbook.NewAppService(bookService, txManager)
	authApp := appauth.NewAppService(userService, jwtManager)

	// 接口层
	handlers := &ihttp.Handlers{
		Book:   handler.NewBookHandler(bookApp),
		Auth:   handler.NewAuthHandler(authApp),
		User:   handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(db, permCache),
		AuthMW: middleware.NewAuthMiddleware(jwtManager, userRepo, permCache),
	}

	// 6. 构建路由与HTTP服务
	router := ihttp.NewRouter(cfg, handlers)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. 启动服务并等待退出信号（优雅停机）
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("启动服务失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("收到退出信号，开始优雅停机")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("停机超时，强制退出")
	}
	log.Info().Msg("服务已退出")
}
