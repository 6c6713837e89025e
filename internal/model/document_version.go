package model

import (
	"errors"
	"time"
)

// DocumentVersion 合同版本数据模型
// 每次生成、编辑或恢复都会新增一条记录,版本链只追加不修改
type DocumentVersion struct {
	ID                string    `gorm:"primaryKey;type:varchar(64)"`
	ContractID        string    `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_versions_contract_version,priority:1"`
	Version           int       `gorm:"not null;uniqueIndex:idx_versions_contract_version,priority:2"` // 版本号,从 1 开始连续递增
	Content           string    `gorm:"type:text"`
	EditableContent   string    `gorm:"type:text"`         // 可编辑正文(编辑器使用)
	DocxPath          string    `gorm:"type:varchar(512)"` // DOCX 文件路径(生成失败时为空)
	PDFPath           string    `gorm:"type:varchar(512)"` // PDF 文件路径(生成失败时为空)
	ChangeDescription string    `gorm:"type:text"`
	IsCurrent         bool      `gorm:"not null;index"` // 是否为当前版本(每个合同同一时刻至多一个)
	CreatedAt         time.Time `gorm:"not null;index"`
	CreatedBy         string    `gorm:"type:varchar(64)"` // 创建人 ID
}

// TableName 指定表名
func (DocumentVersion) TableName() string {
	return "document_versions"
}

// Validate 验证版本模型
func (v *DocumentVersion) Validate() error {
	if v.ID == "" {
		return errors.New("version ID is required")
	}
	if v.ContractID == "" {
		return errors.New("contract ID is required")
	}
	if v.Version <= 0 {
		return errors.New("version must be positive")
	}
	return nil
}
