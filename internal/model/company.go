package model

import (
	"errors"
	"time"
)

// Company 公司数据模型
// 合同编号序列以公司为分配范围
type Company struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)"`
	Name      string    `gorm:"type:varchar(255);not null"`
	TaxID     string    `gorm:"type:varchar(64)"` // 税号
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (Company) TableName() string {
	return "companies"
}

// Validate 验证公司模型
func (c *Company) Validate() error {
	if c.ID == "" {
		return errors.New("company ID is required")
	}
	if c.Name == "" {
		return errors.New("company name is required")
	}
	return nil
}
