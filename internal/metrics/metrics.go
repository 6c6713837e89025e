package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 合同生成数
	contractsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contracts_generated_total",
			Help: "Total number of contracts generated",
		},
	)

	// 版本操作数
	versionOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "version_operations_total",
			Help: "Total number of version operations",
		},
		[]string{"action"}, // edit, restore
	)

	// 文件生成结果
	artifactsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifacts_generated_total",
			Help: "Total number of document artifacts generated",
		},
		[]string{"format", "outcome"}, // docx/pdf, success/failure
	)

	// 文档生成耗时
	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "document_generation_duration_seconds",
			Help:    "Document generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// 清理删除的文件数
	artifactsCleanedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artifacts_cleaned_total",
			Help: "Total number of artifact files removed by retention cleanup",
		},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(contractsGeneratedTotal)
	prometheus.MustRegister(versionOperationsTotal)
	prometheus.MustRegister(artifactsGeneratedTotal)
	prometheus.MustRegister(generationDuration)
	prometheus.MustRegister(artifactsCleanedTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordContractGenerated 记录合同生成
func RecordContractGenerated() {
	contractsGeneratedTotal.Inc()
}

// RecordVersionOperation 记录版本操作
func RecordVersionOperation(action string) {
	versionOperationsTotal.WithLabelValues(action).Inc()
}

// RecordArtifactGenerated 记录单个文件的生成结果
func RecordArtifactGenerated(format string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	artifactsGeneratedTotal.WithLabelValues(format, outcome).Inc()
}

// RecordGenerationDuration 记录文档生成耗时
func RecordGenerationDuration(seconds float64) {
	generationDuration.Observe(seconds)
}

// RecordArtifactsCleaned 记录清理删除的文件数
func RecordArtifactsCleaned(count int) {
	artifactsCleanedTotal.Add(float64(count))
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
