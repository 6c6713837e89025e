package api

import (
	"github.com/gin-gonic/gin"
	"github.com/hectronix2005/Legalbot-sub003/internal/metrics"
)

// MetricsHandler Prometheus 指标处理器
func MetricsHandler(c *gin.Context) {
	metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
