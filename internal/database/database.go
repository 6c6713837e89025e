package database

import (
	"context"
	"fmt"
	"time"

	"github.com/hectronix2005/Legalbot-sub003/internal/config"
	"github.com/hectronix2005/Legalbot-sub003/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime int // 秒
	ConnMaxIdleTime int // 秒
}

// BuildDSN 构建 PostgreSQL DSN
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// GetPoolConfig 获取连接池配置
func GetPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 1 小时
		ConnMaxIdleTime: 600,  // 10 分钟
	}
}

// Connect 连接数据库
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// 从配置中读取连接池参数，如果没有配置则使用默认值
	var poolConfig *PoolConfig
	if cfg.MaxIdleConns > 0 || cfg.MaxOpenConns > 0 {
		// 使用配置中的值
		poolConfig = &PoolConfig{
			MaxIdleConns:    cfg.MaxIdleConns,
			MaxOpenConns:    cfg.MaxOpenConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		}
		// 如果某些值未设置，使用默认值
		if poolConfig.MaxIdleConns == 0 {
			poolConfig.MaxIdleConns = 10
		}
		if poolConfig.MaxOpenConns == 0 {
			poolConfig.MaxOpenConns = 100
		}
		if poolConfig.ConnMaxLifetime == 0 {
			poolConfig.ConnMaxLifetime = 3600
		}
		if poolConfig.ConnMaxIdleTime == 0 {
			poolConfig.ConnMaxIdleTime = 600
		}
	} else {
		// 使用默认配置
		poolConfig = GetPoolConfig()
	}

	sqlDB.SetMaxIdleConns(poolConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(poolConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(poolConfig.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(poolConfig.ConnMaxIdleTime) * time.Second)

	return db, nil
}

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	// 检测数据库类型
	dialector := db.Dialector.Name()

	// SQLite 不支持 jsonb，需要手动创建表
	// GORM SQLite dialector 的名称可能是 "sqlite" 或 "sqlite3"
	if dialector == "sqlite" || dialector == "sqlite3" {
		// 手动创建 SQLite 表（使用 TEXT 替代 jsonb）
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		// PostgreSQL 等其他数据库使用 AutoMigrate
		if err := db.AutoMigrate(
			&model.Company{},
			&model.Template{},
			&model.Contract{},
			&model.DocumentVersion{},
			&model.SequenceCounter{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	// 创建索引
	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables 为 SQLite 手动创建表（使用 TEXT 替代 jsonb）
func createSQLiteTables(db *gorm.DB) error {
	// 创建 companies 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS companies (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			tax_id VARCHAR(64),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create companies table: %w", err)
	}

	// 创建 templates 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS templates (
			id VARCHAR(64) PRIMARY KEY,
			company_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			content TEXT,
			fields TEXT NOT NULL,
			source_path VARCHAR(512),
			source_name VARCHAR(255),
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			created_by VARCHAR(64)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create templates table: %w", err)
	}

	// 创建 contracts 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS contracts (
			id VARCHAR(64) PRIMARY KEY,
			contract_number VARCHAR(32) NOT NULL UNIQUE,
			template_id VARCHAR(64) NOT NULL,
			company_id VARCHAR(64) NOT NULL,
			content TEXT,
			docx_path VARCHAR(512),
			pdf_path VARCHAR(512),
			status VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			created_by VARCHAR(64)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create contracts table: %w", err)
	}

	// 创建 document_versions 表 (使用组合唯一键 contract_id, version)
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS document_versions (
			id VARCHAR(64) PRIMARY KEY,
			contract_id VARCHAR(64) NOT NULL,
			version INTEGER NOT NULL,
			content TEXT,
			editable_content TEXT,
			docx_path VARCHAR(512),
			pdf_path VARCHAR(512),
			change_description TEXT,
			is_current BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			created_by VARCHAR(64),
			UNIQUE (contract_id, version)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create document_versions table: %w", err)
	}

	// 创建 sequence_counters 表 (使用组合主键 company_id, period)
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sequence_counters (
			company_id VARCHAR(64) NOT NULL,
			period VARCHAR(8) NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (company_id, period)
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create sequence_counters table: %w", err)
	}

	// 创建 audit_logs 表
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes 创建数据库索引
func CreateIndexes(db *gorm.DB) error {
	// templates 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_templates_company_id ON templates(company_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_templates_company_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_templates_created_at ON templates(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_templates_created_at: %w", err)
	}

	// contracts 表索引
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_contracts_number ON contracts(contract_number)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_number: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_company_id ON contracts(company_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_company_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_template_id ON contracts(template_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_template_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_contracts_created_by ON contracts(created_by)").Error; err != nil {
		return fmt.Errorf("failed to create idx_contracts_created_by: %w", err)
	}

	// document_versions 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_versions_contract_id ON document_versions(contract_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_versions_contract_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_versions_is_current ON document_versions(contract_id, is_current)").Error; err != nil {
		return fmt.Errorf("failed to create idx_versions_is_current: %w", err)
	}
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_contract_version ON document_versions(contract_id, version)").Error; err != nil {
		return fmt.Errorf("failed to create idx_versions_contract_version: %w", err)
	}

	// audit_logs 表索引
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	return nil
}

// ConnectWithRetry 带重试的数据库连接
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		// 如果不是最后一次重试，等待后重试
		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2 // 指数退避
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// CheckHealth 检查数据库连接健康状态
func CheckHealth(db *gorm.DB) bool {
	if db == nil {
		return false
	}

	sqlDB, err := db.DB()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return false
	}

	return true
}
