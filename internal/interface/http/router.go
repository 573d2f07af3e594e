package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/bookcatalog/internal/domain/user"
	"github.com/xiebiao/bookcatalog/internal/infrastructure/config"
	"github.com/xiebiao/bookcatalog/internal/interface/http/handler"
	"github.com/xiebiao/bookcatalog/internal/interface/http/middleware"
)

// Handlers 路由需要的全部处理器与中间件
type Handlers struct {
	Book   *handler.BookHandler
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
	AuthMW *middleware.AuthMiddleware
}

// NewRouter 构建HTTP路由
// 路由表集中在这里显式注册，权限要求与端点写在一处，一眼可见
func NewRouter(cfg *config.Config, h *Handlers) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	// 运维端点
	r.GET("/health", middleware.APIKeyAuth(cfg.Security.HealthAPIKey), h.Health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	timeout := middleware.Timeout(cfg.Server.RequestTimeout)

	// 认证（login/refresh无需Access Token有效）
	auth := api.Group("/auth", timeout)
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
		auth.POST("/logout", h.AuthMW.RequireAuth(), h.Auth.Logout)
	}

	// 图书
	// 导出是流式长响应，不挂请求超时
	requireAuth := h.AuthMW.RequireAuth()
	books := api.Group("/books", requireAuth)
	{
		books.POST("", timeout, h.AuthMW.RequirePermission(user.PermBooksCreate), h.Book.Create)
		books.GET("", timeout, h.AuthMW.RequirePermission(user.PermBooksRead), h.Book.Search)
		books.GET("/export/csv", h.AuthMW.RequirePermission(user.PermBooksExport), h.Book.ExportCSV)
		books.GET("/:id", timeout, h.AuthMW.RequirePermission(user.PermBooksRead), h.Book.Get)
		books.PATCH("/:id", timeout, h.AuthMW.RequirePermission(user.PermBooksUpdate), h.Book.Update)
		books.DELETE("/:id", timeout, h.AuthMW.RequirePermission(user.PermBooksDelete), h.Book.Delete)
	}

	// 用户管理
	users := api.Group("/users", requireAuth, timeout)
	{
		users.POST("/create", h.AuthMW.RequirePermission(user.PermUsersCreate), h.User.Create)
	}

	return r
}
