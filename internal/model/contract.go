package model

import (
	"errors"
	"fmt"
	"time"
)

// 合同状态
const (
	ContractStatusGenerated = "generated" // 已生成
	ContractStatusEdited    = "edited"    // 已编辑
	ContractStatusRestored  = "restored"  // 已从历史版本恢复
)

// Contract 合同数据模型
// 生成的文件存储在磁盘上,数据库只保存最新版本的文件路径
type Contract struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)"`
	ContractNumber string    `gorm:"type:varchar(32);not null;uniqueIndex"` // 合同编号(一经分配不可变更)
	TemplateID     string    `gorm:"type:varchar(64);not null;index"`
	CompanyID      string    `gorm:"type:varchar(64);not null;index"` // 所属公司 ID
	Content        string    `gorm:"type:text"`                       // 当前版本正文缓存
	DocxPath       string    `gorm:"type:varchar(512)"`               // 最新 DOCX 文件路径
	PDFPath        string    `gorm:"type:varchar(512)"`               // 最新 PDF 文件路径
	Status         string    `gorm:"type:varchar(32);not null;index"`
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
	CreatedBy      string    `gorm:"type:varchar(64);index"` // 创建人 ID
}

// TableName 指定表名
func (Contract) TableName() string {
	return "contracts"
}

// Validate 验证合同模型
func (c *Contract) Validate() error {
	if c.ID == "" {
		return errors.New("contract ID is required")
	}
	if c.ContractNumber == "" {
		return errors.New("contract number is required")
	}
	if c.TemplateID == "" {
		return errors.New("template ID is required")
	}
	if c.CompanyID == "" {
		return errors.New("company ID is required")
	}
	return nil
}

// FormatContractNumber 按照 CON-{period}-{序号(4 位补零)} 生成合同编号
func FormatContractNumber(period string, value int64) string {
	return fmt.Sprintf("CON-%s-%04d", period, value)
}
