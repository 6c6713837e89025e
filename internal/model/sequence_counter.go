package model

import (
	"errors"
	"time"
)

// SequenceCounter 合同编号序列计数器
// 以 (company_id, period) 为主键,首次分配时惰性创建,只增不减
type SequenceCounter struct {
	CompanyID string    `gorm:"primaryKey;type:varchar(64)"`
	Period    string    `gorm:"primaryKey;type:varchar(8)"` // 周期(4 位年份)
	Count     int64     `gorm:"not null;default:0"`         // 当前计数值
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName 指定表名
func (SequenceCounter) TableName() string {
	return "sequence_counters"
}

// Validate 验证计数器模型
func (s *SequenceCounter) Validate() error {
	if s.CompanyID == "" {
		return errors.New("company ID is required")
	}
	if s.Period == "" {
		return errors.New("period is required")
	}
	return nil
}
