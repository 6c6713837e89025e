package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"gorm.io/gorm"
)

// SetupRouter 创建基础路由
// 注册全局中间件、健康检查和指标端点,业务路由由调用方绑定
func SetupRouter(db *gorm.DB, store *storage.Store, cfg *config.Config) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(IdentityMiddleware(cfg.Auth.IdentityHeader))
	router.Use(RequestLogMiddleware())
	router.Use(ErrorHandlerMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))

	// 健康检查
	healthController := NewHealthController(db, store)
	router.GET("/health", healthController.Check)

	// Prometheus 指标端点
	router.GET("/metrics", MetricsHandler)

	return router
}
