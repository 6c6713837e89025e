package container

import (
	"fmt"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/database"
	"github.com/hectronix2005/Legalbot-sub003/internal/docgen"
	"github.com/hectronix2005/Legalbot-sub003/internal/repository"
	"github.com/hectronix2005/Legalbot-sub003/internal/service"
	"github.com/hectronix2005/Legalbot-sub003/internal/storage"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、存储、服务等
type Container struct {
	db               *gorm.DB
	store            *storage.Store
	pipeline         *docgen.Pipeline
	templateService  service.TemplateService
	contractService  service.ContractService
	auditLogService  service.AuditLogService
	retentionService *service.RetentionService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 初始化数据库（带重试机制）
	// 默认重试 3 次，初始间隔 1 秒，指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化文件存储
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 3. 初始化仓储层
	templateRepo := repository.NewTemplateRepository(db)
	contractRepo := repository.NewContractRepository(db)
	versionRepo := repository.NewDocumentVersionRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 4. 初始化文档生成管线
	pipeline := docgen.NewPipeline(store)

	// 5. 初始化服务层
	auditLogService := service.NewAuditLogService(auditRepo)
	templateService := service.NewTemplateService(templateRepo, store, auditLogService)
	contractService := service.NewContractService(
		contractRepo, versionRepo, templateRepo, sequenceRepo,
		pipeline, store, auditLogService,
	)
	retentionService := service.NewRetentionService(contractRepo, store, cfg.Retention)

	return &Container{
		db:               db,
		store:            store,
		pipeline:         pipeline,
		templateService:  templateService,
		contractService:  contractService,
		auditLogService:  auditLogService,
		retentionService: retentionService,
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Store 获取文件存储
func (c *Container) Store() *storage.Store {
	return c.store
}

// Pipeline 获取文档生成管线
func (c *Container) Pipeline() *docgen.Pipeline {
	return c.pipeline
}

// TemplateService 获取模板服务
func (c *Container) TemplateService() service.TemplateService {
	return c.templateService
}

// ContractService 获取合同服务
func (c *Container) ContractService() service.ContractService {
	return c.contractService
}

// AuditLogService 获取审计日志服务
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogService
}

// RetentionService 获取文件保留策略服务
func (c *Container) RetentionService() *service.RetentionService {
	return c.retentionService
}

// Close 关闭容器持有的资源
func (c *Container) Close() error {
	if c.retentionService != nil {
		c.retentionService.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
