package api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	db    *gorm.DB
	store *storage.Store
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, store *storage.Store) *HealthController {
	return &HealthController{
		db:    db,
		store: store,
	}
}

// Check 健康检查
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	// 检查数据库连接
	if c.db != nil {
		if err := c.checkDatabase(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	// 检查文件存储目录
	if c.store != nil {
		if err := c.checkStorage(); err != nil {
			status = "unhealthy"
			checks["storage"] = "unhealthy: " + err.Error()
		} else {
			checks["storage"] = "healthy"
		}
	} else {
		checks["storage"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}

// checkStorage 检查生成文件目录是否可访问
func (c *HealthController) checkStorage() error {
	_, err := os.Stat(c.store.ArtifactDir())
	return err
}
