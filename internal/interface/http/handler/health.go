package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 内存水位阈值，超出时对应检查项报down（服务仍返回整体状态）
const (
	heapLimitBytes = 512 << 20 // 堆内存512MiB
	sysLimitBytes  = 1 << 30   // 向OS申请的内存1GiB
)

// Pinger 依赖连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
// 检查项：数据库连通性、Redis连通性、进程内存水位
type HealthHandler struct {
	db    *gorm.DB
	redis Pinger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db *gorm.DB, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

type healthCheck struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Check 健康检查
// @Summary      健康检查
// @Description  检查数据库/Redis连通性与进程内存水位，任一项异常返回503
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      503 {object} map[string]interface{}
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]healthCheck{
		"database":    h.checkDatabase(ctx),
		"redis":       h.checkRedis(ctx),
		"memory_heap": checkMemory(),
	}

	status := http.StatusOK
	overall := "up"
	for _, chk := range checks {
		if chk.Status != "up" {
			status = http.StatusServiceUnavailable
			overall = "down"
			break
		}
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) healthCheck {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return healthCheck{Status: "down", Error: err.Error()}
	}
	return healthCheck{Status: "up"}
}

func (h *HealthHandler) checkRedis(ctx context.Context) healthCheck {
	if err := h.redis.Ping(ctx); err != nil {
		return healthCheck{Status: "down", Error: err.Error()}
	}
	return healthCheck{Status: "up"}
}

func checkMemory() healthCheck {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if ms.HeapAlloc > heapLimitBytes || ms.Sys > sysLimitBytes {
		return healthCheck{Status: "down", Error: "内存使用超出阈值"}
	}
	return healthCheck{Status: "up"}
}
